package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
)

type ContextKey string

const (
	ContextRequestID     ContextKey = "request.id"
	ContextRequestNumber ContextKey = "request.number"
)

const (
	msgBodyTooLarge   = "Request body is too large"
	msgBodyMalformed  = "Request body contains badly-formed JSON"
	msgBodyNotObject  = "Request body must be a JSON object"
	msgBodyMultiValue = "Request body must only contain a single JSON object"
)

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val, ok := ctx.Value(contextKey).(string); ok {
		return val
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val, ok := ctx.Value(ContextRequestNumber).(uint64); ok {
		return val
	}
	return 0
}

// DecodeFields reads a JSON object body of at most maxBytes into a raw field set.
// An empty body yields an empty set so that validation reports the missing fields.
func DecodeFields(w http.ResponseWriter, r *http.Request, maxBytes int64) (Fields, error) {
	fields := Fields{}
	if r.Body == nil || r.Body == http.NoBody {
		return fields, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&fields)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return Fields{}, nil
		case errors.As(err, &maxBytesError):
			return nil, BadRequest(msgBodyTooLarge)
		case errors.As(err, &syntaxError), errors.Is(err, io.ErrUnexpectedEOF):
			return nil, BadRequest(msgBodyMalformed)
		case errors.As(err, &unmarshalTypeError):
			return nil, BadRequest(msgBodyNotObject)
		default:
			return nil, Internal(fmt.Errorf("decode request body: %w", err))
		}
	}
	if fields == nil {
		return nil, BadRequest(msgBodyNotObject)
	}

	err = dec.Decode(&struct{}{})
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return fields, nil
	case errors.As(err, &maxBytesError):
		return nil, BadRequest(msgBodyTooLarge)
	}
	return nil, BadRequest(msgBodyMultiValue)
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	for _, ip := range strings.Split(ips, ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	if net.ParseIP(ip) != nil {
		return ip
	}
	return ""
}

// GetRequestPeerIP returns the ip of the connection peer, ignoring any
// client supplied header.
func GetRequestPeerIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
