package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

// ValidateContentType ensures POST/PUT/PATCH bodies declare a supported
// content type: JSON everywhere, multipart on the upload route.
func ValidateContentType(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if r.URL.Path == "/api/upload" {
				if !strings.Contains(contentType, "multipart/form-data") {
					http.Error(w, `{"error":"Content-Type must be multipart/form-data"}`, http.StatusUnsupportedMediaType)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !strings.Contains(contentType, "application/json") {
				log.Warn("invalid content type",
					slog.String("path", r.URL.Path),
					slog.String("content_type", contentType),
					slog.String("method", r.Method),
				)
				http.Error(w, `{"error":"Content-Type must be application/json"}`, http.StatusUnsupportedMediaType)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
