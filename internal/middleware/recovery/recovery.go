// Package recovery turns handler panics into a logged 500 JSON response.
package recovery

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"networth/internal/log"
)

// Middleware recovers panics raised by next. The panic value and stack are
// logged through the request logger when one is in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panicked",
				log.NewFields().
					WithError(fmt.Errorf("panic: %v", rec)).
					WithErrorType(log.ErrorTypeInternal).
					WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
					ToSlice()...,
			)
			log.FromContext(r.Context()).Debug("Panic stack", "stack", string(debug.Stack()))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Internal server error"})
		}()
		next.ServeHTTP(w, r)
	})
}
