package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/services"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	domainservices "github.com/thismakesmehappy/NewApiTest-sub000/domain/services"
	"github.com/thismakesmehappy/NewApiTest-sub000/infrastructure/persistence/memory"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/auth"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.err
}

func (s *stubLimiter) Reset(context.Context, string) error { return nil }

func TestCircuitBreakerMiddleware(t *testing.T) {
	logger := zap.NewNop()
	errHandler := pkgerrors.NewErrorHandler(logger, false)

	t.Run("Should pass through successful requests", func(t *testing.T) {
		handler := CircuitBreaker(DefaultCircuitBreakerConfig("ok"), errHandler, logger)(okHandler())

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should open after repeated 5xx and reject with 503", func(t *testing.T) {
		config := DefaultCircuitBreakerConfig("failing")
		config.MinRequests = 2
		config.FailureThreshold = 0.5
		handler := CircuitBreaker(config, errHandler, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
			assert.Equal(t, http.StatusInternalServerError, w.Code)
		}

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "30", w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "UNAVAILABLE")
	})

	t.Run("Should not count client errors as failures", func(t *testing.T) {
		config := DefaultCircuitBreakerConfig("client-errors")
		config.MinRequests = 1
		handler := CircuitBreaker(config, errHandler, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		for i := 0; i < 5; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
			assert.Equal(t, http.StatusNotFound, w.Code)
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	logger := zap.NewNop()
	errHandler := pkgerrors.NewErrorHandler(logger, false)

	t.Run("Should reject when the limiter denies", func(t *testing.T) {
		limiter := &stubLimiter{allowed: false}
		handler := RateLimit(limiter, ByIP, 10, errHandler, logger)(okHandler())

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
		assert.Equal(t, []string{"10.0.0.1"}, limiter.keys)
	})

	t.Run("Should keep one bucket when the client rotates X-Forwarded-For", func(t *testing.T) {
		limiter := &stubLimiter{allowed: true}
		handler := RateLimit(limiter, ByIP, 10, errHandler, logger)(okHandler())

		for _, spoofed := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
			req := httptest.NewRequest("GET", "/test", nil)
			req.RemoteAddr = "192.0.2.10:5000"
			req.Header.Set("X-Forwarded-For", spoofed)
			req = req.WithContext(newContextV2(req.Context(), events.APIGatewayV2HTTPRequest{
				RequestContext: events.APIGatewayV2HTTPRequestContext{
					HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{SourceIP: "203.0.113.20"},
				},
			}))
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		assert.Equal(t, []string{"203.0.113.20", "203.0.113.20", "203.0.113.20"}, limiter.keys)
	})

	t.Run("Should let requests through when the limiter fails", func(t *testing.T) {
		limiter := &stubLimiter{err: errors.New("table unavailable")}
		handler := RateLimit(limiter, ByIP, 10, errHandler, logger)(okHandler())

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should skip unauthenticated requests when keyed by principal", func(t *testing.T) {
		limiter := &stubLimiter{allowed: false}
		handler := RateLimit(limiter, ByPrincipal, 10, errHandler, logger)(okHandler())

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, limiter.keys)
	})

	t.Run("Should enforce the sliding window limiter", func(t *testing.T) {
		handler := RateLimit(auth.NewIPRateLimiter(2), ByIP, 2, errHandler, logger)(okHandler())

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest("GET", "/test", nil)
			req.RemoteAddr = "198.51.100.4:5555"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("Should pass through without a limiter", func(t *testing.T) {
		handler := RateLimit(nil, ByIP, 10, errHandler, logger)(okHandler())

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestParseGroupsClaim(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"[ADMIN TEAM_ADMIN]", []string{"ADMIN", "TEAM_ADMIN"}},
		{"admin,team-admin", []string{"admin", "team-admin"}},
		{"ADMIN", []string{"ADMIN"}},
		{"", []string{}},
		{"[]", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := parseGroupsClaim(tt.raw)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientIP(t *testing.T) {
	gateway := func(req *http.Request, sourceIP string) *http.Request {
		gw := events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{SourceIP: sourceIP},
		}
		return req.WithContext(newContextV2(req.Context(), events.APIGatewayV2HTTPRequest{RequestContext: gw}))
	}

	tests := []struct {
		name       string
		remoteAddr string
		xff        []string
		realIP     string
		sourceIP   string
		want       string
	}{
		{name: "Should use the remote address without a proxy", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "Should use the remote address for IPv6", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "Should ignore X-Real-IP", remoteAddr: "192.0.2.1:1234", realIP: "192.0.2.2", want: "192.0.2.1"},
		{name: "Should take the right-most forwarded hop", remoteAddr: "10.0.0.2:80", xff: []string{"192.0.2.3, 192.0.2.4"}, want: "192.0.2.4"},
		{name: "Should take the last forwarded header", remoteAddr: "10.0.0.2:80", xff: []string{"198.51.100.9", "192.0.2.5"}, want: "192.0.2.5"},
		{name: "Should prefer the gateway source address", remoteAddr: "10.0.0.2:80", xff: []string{"198.51.100.9, 192.0.2.4"}, sourceIP: "203.0.113.50", want: "203.0.113.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for _, v := range tt.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.sourceIP != "" {
				req = gateway(req, tt.sourceIP)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func newTestAuthenticator(t *testing.T, verifier auth.TokenVerifier) (*Authenticator, *memory.Store) {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	authz := domainservices.NewAuthorizationService()
	principals := services.NewPrincipalService(authz, store.Teams(), store, logger)
	keys := services.NewDeveloperKeyService(store.Keys(), logger)
	return NewAuthenticator(verifier, keys, principals, pkgerrors.NewErrorHandler(logger, false), logger), store
}

func principalEcho(t *testing.T, got **entities.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := PrincipalFromContext(r.Context())
		require.NoError(t, err)
		*got = user
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticator(t *testing.T) {
	const secret = "test-secret"
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SigningMethod: "HS256", SecretKey: secret, Issuer: "items-api"})
	require.NoError(t, err)
	generator, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{SigningMethod: "HS256", SecretKey: secret, Issuer: "items-api", ExpiryTime: time.Minute})
	require.NoError(t, err)

	t.Run("Should reject requests without credentials", func(t *testing.T) {
		a, _ := newTestAuthenticator(t, validator)
		w := httptest.NewRecorder()
		a.Middleware(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should reject a token signed with another key", func(t *testing.T) {
		a, _ := newTestAuthenticator(t, validator)
		other, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{SecretKey: "other", Issuer: "items-api"})
		require.NoError(t, err)
		token, err := other.GenerateToken("alice", "alice", "", nil)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		a.Middleware(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should resolve the principal from a bearer token", func(t *testing.T) {
		a, _ := newTestAuthenticator(t, validator)
		token, err := generator.GenerateToken("alice", "alice", "alice@example.com", []string{"admin"})
		require.NoError(t, err)

		var user *entities.User
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		a.Middleware(principalEcho(t, &user)).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", user.ID())
		assert.True(t, user.IsAdmin())
	})

	t.Run("Should refuse bearer tokens without a verifier", func(t *testing.T) {
		a, _ := newTestAuthenticator(t, nil)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer anything")
		w := httptest.NewRecorder()
		a.Middleware(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should accept gateway authorizer claims", func(t *testing.T) {
		a, _ := newTestAuthenticator(t, nil)
		gw := events.APIGatewayV2HTTPRequestContext{
			Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
				JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
					Claims: map[string]string{
						"sub":              "bob",
						"cognito:username": "bob",
						"cognito:groups":   "[TEAM_ADMIN]",
					},
				},
			},
		}
		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(newContextV2(req.Context(), events.APIGatewayV2HTTPRequest{RequestContext: gw}))

		var user *entities.User
		w := httptest.NewRecorder()
		a.Middleware(principalEcho(t, &user)).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "bob", user.ID())
		assert.Equal(t, valueobjects.RoleTeamAdmin, user.Role())
	})

	t.Run("Should authenticate developer keys", func(t *testing.T) {
		a, _ := newTestAuthenticator(t, nil)
		owner := entities.NewUser("carol", "carol", "", valueobjects.RoleUser)
		_, plaintext, err := a.keys.Create(context.Background(), owner, "ci")
		require.NoError(t, err)

		var user *entities.User
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(APIKeyHeader, plaintext)
		w := httptest.NewRecorder()
		a.Middleware(principalEcho(t, &user)).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "carol", user.ID())

		req = httptest.NewRequest("GET", "/", nil)
		req.Header.Set(APIKeyHeader, plaintext+"x")
		w = httptest.NewRecorder()
		a.Middleware(okHandler()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	errHandler := pkgerrors.NewErrorHandler(zap.NewNop(), false)
	handler := RequireRole(errHandler, valueobjects.RoleAdmin)(okHandler())

	serve := func(user *entities.User) int {
		req := httptest.NewRequest("GET", "/", nil)
		if user != nil {
			req = req.WithContext(WithPrincipal(req.Context(), user))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(entities.NewUser("u", "u", "", valueobjects.RoleTeamAdmin)))
	assert.Equal(t, http.StatusOK, serve(entities.NewUser("a", "a", "", valueobjects.RoleAdmin)))
}

func TestRequestIDHeader(t *testing.T) {
	handler := chimiddleware.RequestID(RequestIDHeader(okHandler()))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-Id", "req-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-Id"))
}

func TestMetricsMiddleware(t *testing.T) {
	collector := observability.NewCollector("test")
	router := chi.NewRouter()
	router.Use(Metrics(collector))
	router.Get("/items/{itemID}", okHandler().ServeHTTP)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/items/123", nil))
	require.Equal(t, http.StatusOK, w.Code)

	families, err := collector.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "route" && l.GetValue() == "/items/{itemID}" {
					found = true
				}
			}
		}
	}
	assert.True(t, found, "expected a sample labelled with the route pattern")
}

// newContextV2 attaches an API Gateway v2 event to ctx through the proxy
// library's public request accessor, which is the only exported way to set it.
func newContextV2(ctx context.Context, event events.APIGatewayV2HTTPRequest) context.Context {
	if event.RawPath == "" {
		event.RawPath = "/"
	}
	if event.RequestContext.HTTP.Method == "" {
		event.RequestContext.HTTP.Method = http.MethodGet
	}
	req, err := (&core.RequestAccessorV2{}).EventToRequestWithContext(ctx, event)
	if err != nil {
		panic(err)
	}
	return req.Context()
}
