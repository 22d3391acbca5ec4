package server

import (
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

// rateLimit rejects requests beyond rps with 429. A non-positive rps
// disables the limit.
func (s *Server) rateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				s.logger.Warn("Rate limit exceeded", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				w.Header().Set("Retry-After", "1")
				_ = render.Render(w, r, &errResponse{HTTPStatus: http.StatusTooManyRequests, Message: "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
