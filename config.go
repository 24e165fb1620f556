package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxBodyBytes = 10 << 10 // 10kb
	defaultLogMaxSize   = 10       // MB
	defaultLimiterRPS   = 100.0 / (15 * 60)
	defaultLimiterBurst = 100
	defaultLimiterTTL   = 15 * time.Minute
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit          string        `yaml:"git_commit" json:"git_commit" envconfig:"LCAT_GIT_COMMIT"`
	GitTag             string        `yaml:"git_tag" json:"git_tag" envconfig:"LCAT_GIT_TAG"`
	BuildTime          string        `yaml:"build_time" json:"build_time" envconfig:"LCAT_BUILD_TIME"`
	IsProduction       bool          `yaml:"is_production" json:"is_production" envconfig:"LCAT_IS_PRODUCTION"`
	Debug              bool          `yaml:"debug" json:"debug" envconfig:"LCAT_DEBUG"`
	LogLevel           zapcore.Level `yaml:"log_level" json:"log_level" envconfig:"LCAT_LOG_LEVEL"`
	LogFolder          string        `yaml:"log_folder" json:"log_folder" envconfig:"LCAT_LOG_FOLDER"`
	LogMaxSize         int           `yaml:"log_max_size" json:"log_max_size" envconfig:"LCAT_LOG_MAX_SIZE"`
	OpsEndpointsEnable bool          `yaml:"ops_endpoints_enable" json:"ops_endpoints_enable" envconfig:"LCAT_OPS_ENDPOINTS_ENABLE"`
	ProfilerEnable     bool          `yaml:"profiler_enable" json:"profiler_enable" envconfig:"LCAT_PROFILER_ENABLE"`
	Server             ServerConfig  `yaml:"server" json:"server"`
	Limiter            LimiterConfig `yaml:"limiter" json:"limiter"`
	Events             EventsConfig  `yaml:"events" json:"events"`
	Redis              RedisConfig   `yaml:"redis" json:"redis"`
	BoltDB             BoltDBConfig  `yaml:"boltdb" json:"boltdb"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" json:"host" envconfig:"LCAT_SERVER_HOST"`
	Port            string        `yaml:"port" json:"port" envconfig:"LCAT_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" envconfig:"LCAT_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" envconfig:"LCAT_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout" envconfig:"LCAT_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" envconfig:"LCAT_SERVER_SHUTDOWN_TIMEOUT"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" json:"max_body_bytes" envconfig:"LCAT_SERVER_MAX_BODY_BYTES"`
}

// LimiterConfig tunes the per client ip token bucket.
type LimiterConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled" envconfig:"LCAT_LIMITER_ENABLED"`
	RPS     float64       `yaml:"rps" json:"rps" envconfig:"LCAT_LIMITER_RPS"`
	Burst   int           `yaml:"burst" json:"burst" envconfig:"LCAT_LIMITER_BURST"`
	IdleTTL time.Duration `yaml:"idle_ttl" json:"idle_ttl" envconfig:"LCAT_LIMITER_IDLE_TTL"`
	// TrustProxy keys the buckets on the forwarding headers instead of the peer address.
	TrustProxy bool `yaml:"trust_proxy" json:"trust_proxy" envconfig:"LCAT_LIMITER_TRUST_PROXY"`
}

// EventsConfig toggles the catalog changes feed. When disabled
// neither redis nor boltdb are contacted.
type EventsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" envconfig:"LCAT_EVENTS_ENABLED"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" json:"host" envconfig:"LCAT_REDIS_HOST"`
	Port          string        `yaml:"port" json:"port" envconfig:"LCAT_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" json:"dial_timeout" envconfig:"LCAT_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" json:"read_timeout" envconfig:"LCAT_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" json:"write_timeout" envconfig:"LCAT_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" json:"pool_size" envconfig:"LCAT_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" json:"pool_timeout" envconfig:"LCAT_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" json:"-" envconfig:"LCAT_REDIS_USERNAME"`
	Password      string        `yaml:"password" json:"-" envconfig:"LCAT_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" json:"db_index" envconfig:"LCAT_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" json:"filepath" envconfig:"LCAT_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" envconfig:"LCAT_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" json:"bucket_name" envconfig:"LCAT_BOLTDB_BUCKET_NAME"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables into the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if config.Server.MaxBodyBytes <= 0 {
		config.Server.MaxBodyBytes = defaultMaxBodyBytes
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = defaultLogMaxSize
	}

	if len(config.LogFolder) == 0 {
		config.LogFolder = "logs"
	}

	if config.Limiter.RPS <= 0 {
		config.Limiter.RPS = defaultLimiterRPS
	}

	if config.Limiter.Burst <= 0 {
		config.Limiter.Burst = defaultLimiterBurst
	}

	if config.Limiter.IdleTTL <= 0 {
		config.Limiter.IdleTTL = defaultLimiterTTL
	}

	if !config.Events.Enabled {
		return nil
	}

	if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
		return errors.New("make sure to set valid redis address and port in configuration file")
	}

	if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
		return errors.New("make sure to set valid boltdb file path and bucket name in configuration file")
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration. The file is optional.
	err = godotenv.Load("./config.env")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `LCAT`.
	err = LoadConfigEnvs("LCAT", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
