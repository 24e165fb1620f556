package main

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/felixge/httpsnoop"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// MiddlewareFunc is a custom type for ease of use.
type MiddlewareFunc func(httprouter.Handle) httprouter.Handle

// Middlewares is a custom type to represent a stack of
// middleware functions used to build a single chain.
type Middlewares []MiddlewareFunc

// MiddlewaresStacks builds the public and ops middlewares chains.
func (api *APIHandler) MiddlewaresStacks() (*Middlewares, *Middlewares) {
	public := &Middlewares{
		api.RequestIDMiddleware,
		api.PanicRecoveryMiddleware,
		api.RequestsCounterMiddleware,
		api.CoreMiddleware,
		CORSMiddleware,
		api.RateLimitMiddleware,
		api.MaintenanceModeMiddleware,
	}
	ops := &Middlewares{
		api.RequestIDMiddleware,
		api.PanicRecoveryMiddleware,
		api.RequestsCounterMiddleware,
		api.CoreMiddleware,
	}
	return public, ops
}

// CoreMiddleware logs each request then its outcome. The status code is
// captured with httpsnoop and counted into the statistics.
func (api *APIHandler) CoreMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := GetValueFromContext(r.Context(), ContextRequestID)
		logger := api.GetLoggerFromContext(r.Context())
		logger.Info(
			"request",
			zap.Uint64("request.num", GetRequestNumberFromContext(r.Context())),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.String("request.ip", GetRequestSourceIP(r)),
			zap.String("request.agent", r.UserAgent()),
			zap.String("request.referer", r.Referer()),
		)

		metrics := httpsnoop.CaptureMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next(w, r, ps)
		}), w, r)

		api.stats.RecordStatus(metrics.Code)
		logger.Info(
			"response",
			zap.String("request.id", requestID),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.Int("response.status", metrics.Code),
			zap.Int64("response.bytes", metrics.Written),
			zap.Duration("request.duration", metrics.Duration),
		)
	}
}

// RequestsCounterMiddleware increments the number of received requests statistics and add this
// new value to the request context to be used during logging as `request.num` field.
func (api *APIHandler) RequestsCounterMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), ContextRequestNumber, atomic.AddUint64(&api.stats.called, 1))
		next(w, r.WithContext(ctx), ps)
	}
}

// RequestIDMiddleware generates a unique id for the request and a logger bound to it.
// The id is echoed back into the X-Request-ID header.
func (api *APIHandler) RequestIDMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := api.ids.Generate(RequestIDPrefix)
		ctx := context.WithValue(r.Context(), ContextRequestID, requestID)
		ctx = context.WithValue(ctx, LoggerContextKey, api.logger.With(zap.String("request.id", requestID)))
		w.Header().Set("X-Request-ID", requestID)
		next(w, r.WithContext(ctx), ps)
	}
}

// SetCORSHeaders applies the cors and security headers.
func SetCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH, HEAD")
	h.Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "SAMEORIGIN")
	h.Set("X-DNS-Prefetch-Control", "off")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Cross-Origin-Resource-Policy", "same-origin")
	h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
}

// CORSMiddleware intercepts each incoming HTTP calls then apply cors headers on it.
func CORSMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		SetCORSHeaders(w.Header())
		next(w, r, ps)
	}
}

// Preflight answers OPTIONS requests on any known route.
func Preflight() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetCORSHeaders(w.Header())
		w.WriteHeader(http.StatusNoContent)
	})
}

// RateLimitMiddleware rejects with 429 the clients which have exhausted their token bucket.
// Clients are identified by the peer address unless the limiter trusts a proxy.
func (api *APIHandler) RateLimitMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if api.config.Limiter.Enabled && !api.limiters.Allow(api.limiterKey(r)) {
			api.WriteAppError(w, r, TooManyRequests(msgRateLimited))
			return
		}
		next(w, r, ps)
	}
}

func (api *APIHandler) limiterKey(r *http.Request) string {
	if api.config.Limiter.TrustProxy {
		if ip := GetRequestSourceIP(r); ip != "" {
			return ip
		}
	}
	return GetRequestPeerIP(r)
}

// MaintenanceModeMiddleware answers 503 with the maintenance reason while the mode is on.
func (api *APIHandler) MaintenanceModeMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !api.mode.enabled.Load() {
			next(w, r, ps)
			return
		}
		message, _ := api.mode.Infos()
		if message == "" {
			message = "Service currently unavailable."
		}
		api.WriteAppError(w, r, Unavailable(message))
	}
}

// PanicRecoveryMiddleware catches any panic during the request lifecycle and produces
// an error log for further analysis. It sends a failure response to the client with 500.
func (api *APIHandler) PanicRecoveryMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				api.WriteAppError(w, r, Internal(fmt.Errorf("panic occurred: %v", err)))
			}
		}()
		next(w, r, ps)
	}
}

// Chain wraps a given httprouter.Handle with a list of middlewares.
// It does by starting from the last middleware from the list.
func (m *Middlewares) Chain(h httprouter.Handle) httprouter.Handle {
	if len(*m) == 0 {
		return h
	}
	lg := len(*m)
	handle := (*m)[lg-1](h)

	for i := lg - 2; i >= 0; i-- {
		handle = (*m)[i](handle)
	}

	return handle
}
