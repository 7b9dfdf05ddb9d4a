package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/auth"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// KeyFunc picks the bucket a request is counted in; "" skips limiting
type KeyFunc func(r *http.Request) string

// ByIP counts requests per client address
func ByIP(r *http.Request) string {
	return ClientIP(r)
}

// ByPrincipal counts requests per authenticated user. It must run after
// Authenticator.
func ByPrincipal(r *http.Request) string {
	user, err := PrincipalFromContext(r.Context())
	if err != nil {
		return ""
	}
	return user.ID()
}

// RateLimit rejects requests over the limiter's budget with 429. Limiter
// errors fail open.
func RateLimit(limiter auth.RateLimiter, key KeyFunc, limit int, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r.Context(), k)
			if err != nil {
				logger.Warn("Rate limiter error", zap.String("key", k), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				errHandler.Handle(w, r, pkgerrors.NewRateLimitError(limit, "minute"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
