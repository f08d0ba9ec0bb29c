package httpapi

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const ctxAccessEntry contextKey = "accessEntry"

// accessEntry collects request details that are only known deeper in the chain.
type accessEntry struct {
	userID int64
}

// RequestLogger writes one access line per request: request id, method, path, status,
// bytes, duration and the session user (or "-" when anonymous).
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := &accessEntry{}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), ctxAccessEntry, entry)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			user := "-"
			if entry.userID != 0 {
				user = strconv.FormatInt(entry.userID, 10)
			}
			reqID := middleware.GetReqID(r.Context())
			if reqID == "" {
				reqID = "-"
			}
			logger.Printf("%s %s %s %d %dB %s user=%s", reqID, r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start), user)
		})
	}
}

func noteUser(r *http.Request, userID int64) {
	if entry, ok := r.Context().Value(ctxAccessEntry).(*accessEntry); ok {
		entry.userID = userID
	}
}
