package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

const (
	StatusSuccess = "success"

	// StatusClientClosedRequest is the Nginx non standard code used to
	// log requests cancelled by the client.
	StatusClientClosedRequest = 499
)

// APIResponse is the data model sent when a request succeed. Results is
// only set on collection reads.
type APIResponse struct {
	RequestID string      `json:"requestid"`
	Status    string      `json:"status"`
	Results   *int        `json:"results,omitempty"`
	Data      interface{} `json:"data"`
}

// APIError is the data model sent when an error occurred during request processing.
type APIError struct {
	RequestID string              `json:"requestid"`
	Status    string              `json:"status"`
	Message   string              `json:"message"`
	Errors    map[string][]string `json:"errors,omitempty"`
	Stack     string              `json:"stack,omitempty"`
}

func GenericResponse(requestid string, data interface{}) *APIResponse {
	return &APIResponse{RequestID: requestid, Status: StatusSuccess, Data: data}
}

// CollectionResponse sets the number of returned items next to the data.
func CollectionResponse[T any](requestid string, items []T) *APIResponse {
	total := len(items)
	return &APIResponse{RequestID: requestid, Status: StatusSuccess, Results: &total, Data: items}
}

// abortedByContext writes the status code to log when the request context is
// already done: 504 on processing timeout and 499 when the client went away.
func abortedByContext(ctx context.Context, w http.ResponseWriter) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		w.WriteHeader(http.StatusGatewayTimeout)
	} else {
		w.WriteHeader(StatusClientClosedRequest)
	}
	return err
}

// WriteResponse sends a success response with the given status code.
// A 204 response carries no body.
func WriteResponse(ctx context.Context, w http.ResponseWriter, code int, resp *APIResponse) error {
	if err := abortedByContext(ctx, w); err != nil {
		return err
	}
	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(resp)
}

// WriteErrorResponse sends an error response with the given status code.
func WriteErrorResponse(ctx context.Context, w http.ResponseWriter, code int, errResp *APIError) error {
	if err := abortedByContext(ctx, w); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(errResp)
}

// WriteAppError is the single place where failures are classified, logged
// and rendered. Internal failures only expose their cause and a stack in debug mode.
func (api *APIHandler) WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	logger := api.GetLoggerFromContext(r.Context())
	appErr := AsAppError(err)

	errResp := &APIError{
		RequestID: requestID,
		Status:    appErr.Status(),
		Message:   appErr.Message,
	}

	if appErr.IsOperational() {
		logger.Info("request failed",
			zap.String("request.id", requestID),
			zap.String("error.kind", appErr.Kind.String()),
			zap.String("error.message", appErr.Message),
		)
		errResp.Errors = appErr.Errors
	} else {
		logger.Error("request errored",
			zap.String("request.id", requestID),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.Error(appErr.Cause),
		)
	}

	if api.config.Debug {
		errResp.Stack = appErr.Error() + "\n" + string(debug.Stack())
	}

	if err := WriteErrorResponse(r.Context(), w, appErr.StatusCode, errResp); err != nil {
		logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// WriteSuccess sends a success response and logs a failure to do so.
func (api *APIHandler) WriteSuccess(w http.ResponseWriter, r *http.Request, code int, resp *APIResponse) {
	if err := WriteResponse(r.Context(), w, code, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send response",
			zap.String("request.id", resp.RequestID),
			zap.Error(err),
		)
	}
}
