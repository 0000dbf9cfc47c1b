package middleware

import (
	"log"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Logging prints one access-log line per request, tagged with the request id
// chimw.RequestID put in the context.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Printf("reqid=%s method=%s path=%s status=%d bytes=%d remote=%s duration=%s",
			chimw.GetReqID(r.Context()),
			r.Method,
			r.URL.Path,
			responseStatus(ww),
			ww.BytesWritten(),
			r.RemoteAddr,
			time.Since(start),
		)
	})
}

// responseStatus reports 200 for handlers that wrote a body without calling
// WriteHeader.
func responseStatus(ww chimw.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
