package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// apiKeyMiddleware validates the X-API-Key header. An empty expected key
// lets every request through.
func apiKeyMiddleware(expectedKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expectedKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				sendError(w, r, "Missing X-API-Key header", http.StatusUnauthorized)
				return
			}
			if apiKey != expectedKey {
				sendError(w, r, "Invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs each request at info once it completes
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// accepts reports whether the request's Accept header names mediaType
func accepts(r *http.Request, mediaType string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == mediaType {
			return true
		}
	}
	return false
}

// send writes resp as CBOR when the client asks for it and as JSON otherwise
func send(w http.ResponseWriter, r *http.Request, statusCode int, resp APIResponse) {
	if r != nil && accepts(r, ContentTypeCBOR) {
		data, err := cbor.Marshal(resp)
		if err == nil {
			w.Header().Set("Content-Type", ContentTypeCBOR)
			w.WriteHeader(statusCode)
			_, _ = w.Write(data)
			return
		}
	}
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// sendSuccess sends a successful response
func sendSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	send(w, r, http.StatusOK, APIResponse{Success: true, Data: data})
}

// sendCreated sends a 201 response
func sendCreated(w http.ResponseWriter, r *http.Request, data interface{}) {
	send(w, r, http.StatusCreated, APIResponse{Success: true, Data: data})
}

// sendError sends an error response
func sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	send(w, r, statusCode, APIResponse{Success: false, Error: message})
}

// sendBinary writes raw record bytes
func sendBinary(w http.ResponseWriter, typeName string, data []byte) {
	w.Header().Set("Content-Type", ContentTypeBinary)
	w.Header().Set("X-Record-Type", typeName)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
