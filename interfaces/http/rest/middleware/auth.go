package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/services"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/auth"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// APIKeyHeader carries a developer key instead of a bearer token
const APIKeyHeader = "X-Api-Key"

type principalKey struct{}

// WithPrincipal stores the resolved user on the context
func WithPrincipal(ctx context.Context, user *entities.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// PrincipalFromContext returns the user set by Authenticator
func PrincipalFromContext(ctx context.Context) (*entities.User, error) {
	user, ok := ctx.Value(principalKey{}).(*entities.User)
	if !ok || user == nil {
		return nil, pkgerrors.NewUnauthorizedError("authentication required")
	}
	return user, nil
}

// Authenticator establishes who is calling and resolves the principal.
//
// Credentials are tried in order: developer key header, API Gateway JWT
// authorizer claims (Lambda), bearer token. The first present credential
// decides; a bad one is not retried against the next source.
type Authenticator struct {
	verifier   auth.TokenVerifier
	keys       *services.DeveloperKeyService
	principals *services.PrincipalService
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewAuthenticator creates the middleware. A nil verifier disables bearer
// tokens, which is how the Lambda build runs behind the gateway authorizer.
func NewAuthenticator(
	verifier auth.TokenVerifier,
	keys *services.DeveloperKeyService,
	principals *services.PrincipalService,
	errHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *Authenticator {
	return &Authenticator{
		verifier:   verifier,
		keys:       keys,
		principals: principals,
		errors:     errHandler,
		logger:     logger,
	}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		identity, userCtx, err := a.identify(r)
		if err != nil {
			a.logger.Debug("Authentication failed",
				zap.String("path", r.URL.Path),
				zap.String("ip", ClientIP(r)),
				zap.Error(err),
			)
			a.errors.Handle(w, r, err)
			return
		}

		user, err := a.principals.Resolve(ctx, identity)
		if err != nil {
			a.errors.Handle(w, r, err)
			return
		}

		ctx = auth.SetUserInContext(ctx, userCtx)
		ctx = WithPrincipal(ctx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) identify(r *http.Request) (services.Identity, *auth.UserContext, error) {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		if a.keys == nil {
			return services.Identity{}, nil, pkgerrors.NewUnauthorizedError("developer keys are not accepted")
		}
		identity, devKey, err := a.keys.Authenticate(r.Context(), key)
		if err != nil {
			return services.Identity{}, nil, err
		}
		return identity, &auth.UserContext{UserID: identity.UserID, Method: auth.MethodAPIKey, KeyID: devKey.ID()}, nil
	}

	if identity, ok := identityFromGateway(r.Context()); ok {
		return identity, userContextFor(identity, auth.MethodAuthorizer), nil
	}

	token := bearerToken(r)
	if token == "" {
		return services.Identity{}, nil, pkgerrors.NewUnauthorizedError(auth.ErrMissingToken.Error())
	}
	if a.verifier == nil {
		return services.Identity{}, nil, pkgerrors.NewUnauthorizedError("bearer tokens are not accepted")
	}

	claims, err := a.verifier.VerifyToken(r.Context(), token)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, auth.ErrExpiredToken) {
			msg = "token has expired"
		}
		return services.Identity{}, nil, pkgerrors.NewUnauthorizedError(msg).WithCause(err)
	}

	identity := services.Identity{
		UserID:   claims.UserID(),
		Username: claims.DisplayName(),
		Email:    claims.Email,
		Groups:   claims.AllGroups(),
	}
	return identity, userContextFor(identity, auth.MethodJWT), nil
}

// identityFromGateway reads the claims the HTTP API JWT authorizer already
// verified. They are only present when the request came through the Lambda
// proxy adapter.
func identityFromGateway(ctx context.Context) (services.Identity, bool) {
	reqCtx, ok := core.GetAPIGatewayV2ContextFromContext(ctx)
	if !ok || reqCtx.Authorizer == nil || reqCtx.Authorizer.JWT == nil {
		return services.Identity{}, false
	}
	claims := reqCtx.Authorizer.JWT.Claims
	sub := claims["sub"]
	if sub == "" {
		return services.Identity{}, false
	}

	username := claims["cognito:username"]
	if username == "" {
		username = claims["username"]
	}
	return services.Identity{
		UserID:   sub,
		Username: username,
		Email:    claims["email"],
		Groups:   parseGroupsClaim(claims["cognito:groups"]),
	}, true
}

// parseGroupsClaim handles the gateway's flattened array forms: "[a b]",
// "a,b" and "a".
func parseGroupsClaim(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
}

func userContextFor(id services.Identity, method string) *auth.UserContext {
	return &auth.UserContext{
		UserID:   id.UserID,
		Username: id.Username,
		Email:    id.Email,
		Groups:   id.Groups,
		Method:   method,
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ClientIP returns the address requests are attributed to. Behind API Gateway
// that is the connection source it recorded. Otherwise only the right-most
// X-Forwarded-For hop is used, since it was appended by the nearest proxy and
// everything to its left is client supplied.
func ClientIP(r *http.Request) string {
	if reqCtx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context()); ok && reqCtx.HTTP.SourceIP != "" {
		return reqCtx.HTTP.SourceIP
	}
	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		parts := strings.Split(xff[len(xff)-1], ",")
		if hop := strings.TrimSpace(parts[len(parts)-1]); hop != "" {
			return hop
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequireRole rejects principals below the given role
func RequireRole(errHandler *pkgerrors.ErrorHandler, role valueobjects.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := PrincipalFromContext(r.Context())
			if err != nil {
				errHandler.Handle(w, r, err)
				return
			}
			if !user.Role().AtLeast(role) {
				errHandler.Handle(w, r, pkgerrors.NewForbiddenError(role.String()+" role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
