package main

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	msgRateLimited    = "Too many requests from this IP, please try again after 15 minutes"
	msgMethodNotAllow = "Method %s is not allowed on %s"
)

// welcome lists the catalog endpoints on the index page.
var welcome = map[string]interface{}{
	"status":        StatusSuccess,
	"message":       "Welcome to the Library API",
	"documentation": "/swagger/index.html",
	"endpoints": map[string]interface{}{
		"authors": map[string]string{
			"getAll":   "GET /api/v1/authors",
			"getOne":   "GET /api/v1/authors/:id",
			"getBooks": "GET /api/v1/authors/:id/books",
			"create":   "POST /api/v1/authors",
			"update":   "PUT /api/v1/authors/:id",
			"patch":    "PATCH /api/v1/authors/:id",
			"delete":   "DELETE /api/v1/authors/:id",
		},
		"books": map[string]string{
			"getAll": "GET /api/v1/books",
			"getOne": "GET /api/v1/books/:id",
			"create": "POST /api/v1/books",
			"update": "PUT /api/v1/books/:id",
			"patch":  "PATCH /api/v1/books/:id",
			"delete": "DELETE /api/v1/books/:id",
		},
	},
}

// writeJSON sends a plain json document and logs a failure to do so.
func (api *APIHandler) writeJSON(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send response",
			zap.String("request.id", GetValueFromContext(r.Context(), ContextRequestID)),
			zap.String("request.path", r.URL.Path),
			zap.Error(err),
		)
	}
}

// Index welcomes users and lists the available endpoints.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.writeJSON(w, r, http.StatusOK, welcome)
}

// Health is the liveness probe.
func (api *APIHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"requestid": GetValueFromContext(r.Context(), ContextRequestID),
		"status":    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
		"message":   "Hello. Library catalog api is available. Enjoy :)",
	})
}

// NotFound answers every unknown route.
func (api *APIHandler) NotFound(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.WriteAppError(w, r, newAppError(KindNotFound, http.StatusNotFound,
		fmt.Sprintf("Can't find %s on this server!", r.URL.RequestURI())))
}

// MethodNotAllowed answers known routes called with an unsupported method.
// The router already sets the Allow header.
func (api *APIHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.WriteAppError(w, r, newAppError(KindBadRequest, http.StatusMethodNotAllowed,
		fmt.Sprintf(msgMethodNotAllow, r.Method, r.URL.Path)))
}

// Maintenance handles request to enable or disable the maintenance mode of the service.
// Enable the maintenance mode : /ops/maintenance?status=enable&msg=message-to-be-displayed-to-users
// Disable the maintenance mode: /ops/maintenance?status=disable
func (api *APIHandler) Maintenance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	q := r.URL.Query()

	switch q.Get("status") {
	case "enable":
		api.mode.Enable(q.Get("msg"), api.clock.Now())
		message, started := api.mode.Infos()
		api.GetLoggerFromContext(r.Context()).Warn("maintenance mode enabled", zap.String("request.id", requestID))
		api.writeJSON(w, r, http.StatusOK, map[string]interface{}{
			"requestid":           requestID,
			"maintenance.started": started.Format(time.RFC1123),
			"maintenance.message": message,
			"message":             "Maintenance mode enabled successfully.",
		})
	case "disable":
		api.mode.Disable()
		api.GetLoggerFromContext(r.Context()).Warn("maintenance mode disabled", zap.String("request.id", requestID))
		api.writeJSON(w, r, http.StatusOK, map[string]interface{}{
			"requestid": requestID,
			"message":   "Maintenance mode disabled successfully.",
		})
	default:
		api.WriteAppError(w, r, BadRequest("status query parameter must be enable or disable"))
	}
}

// export goroutines to be used by expvar handler.
var goroutines = expvar.NewInt("goroutines")

// GetMemStats returns memory statistics with number of goroutines in json.
func GetMemStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	goroutines.Set(int64(runtime.NumGoroutine()))
	expvar.Handler().ServeHTTP(w, r)
}

// RunGC forces the run of the garbage collector asynchronously.
func (api *APIHandler) RunGC(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	go runtime.GC()
	api.writeJSON(w, r, http.StatusOK, map[string]string{"called": "go runtime.GC()"})
}

// FreeOSMemory forces a garbage collection and tries to return the memory
// back to the operating system asynchronously.
func (api *APIHandler) FreeOSMemory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	go debug.FreeOSMemory()
	api.writeJSON(w, r, http.StatusOK, map[string]string{"called": "go debug.FreeOSMemory()"})
}

// GetStatistics provides useful details about the application to the internal ops users.
// The request being served is not counted in the called field.
func (api *APIHandler) GetStatistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	message, started := api.mode.Infos()
	maintenanceStarted := ""
	if !started.IsZero() {
		maintenanceStarted = started.Format(time.RFC1123)
	}

	api.stats.mu.RLock()
	status := make(map[int]uint64, len(api.stats.status))
	for code, count := range api.stats.status {
		status[code] = count
	}
	api.stats.mu.RUnlock()

	api.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"requestid":     GetValueFromContext(r.Context(), ContextRequestID),
		"app.version":   api.stats.version,
		"app.container": api.stats.container,
		"app.platform":  api.stats.platform,
		"go.version":    api.stats.runtime,
		"called":        atomic.LoadUint64(&api.stats.called) - 1,
		"started":       api.stats.started.Format(time.RFC1123),
		"uptime":        fmt.Sprintf("%.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
		"maintenance": map[string]interface{}{
			"enabled": api.mode.enabled.Load(),
			"started": maintenanceStarted,
			"message": message,
		},
		"status": status,
	})
}

// GetConfigs serves current in-use configurations. Credentials are not exported.
func (api *APIHandler) GetConfigs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"requestid": GetValueFromContext(r.Context(), ContextRequestID),
		"configs":   api.config,
	})
}

// GetJournal serves the most recent catalog changes, newest first.
// Use /ops/journal?limit=20 to restrict the number of entries.
func (api *APIHandler) GetJournal(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	if api.journal == nil {
		api.WriteAppError(w, r, BadRequest("catalog events journal is disabled"))
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil || n < 0 {
			api.WriteAppError(w, r, Validation(msgInvalidQueryOptions, map[string][]string{"limit": {msgLimitInvalid}}))
			return
		}
		limit = n
	}

	entries, err := api.journal.Recent(r.Context(), limit)
	if err != nil {
		api.WriteAppError(w, r, fmt.Errorf("journal: read recent entries: %w", err))
		return
	}
	api.WriteSuccess(w, r, http.StatusOK, CollectionResponse(requestID, entries))
}
