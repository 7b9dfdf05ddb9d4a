package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// JWKSValidator verifies Cognito tokens against the user pool's JWKS.
// Keys are cached and refreshed by keyfunc.
type JWKSValidator struct {
	jwks     keyfunc.Keyfunc
	issuer   string
	audience []string
	logger   *zap.Logger
}

// NewJWKSValidator fetches the key set from jwksURL
func NewJWKSValidator(ctx context.Context, jwksURL, issuer string, audience []string, logger *zap.Logger) (*JWKSValidator, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}
	logger.Info("JWKS validator initialized", zap.String("jwks_url", jwksURL))
	return NewJWKSValidatorWithKeyfunc(jwks, issuer, audience, logger), nil
}

// NewJWKSValidatorWithKeyfunc builds a validator around an existing key set
func NewJWKSValidatorWithKeyfunc(jwks keyfunc.Keyfunc, issuer string, audience []string, logger *zap.Logger) *JWKSValidator {
	return &JWKSValidator{
		jwks:     jwks,
		issuer:   issuer,
		audience: audience,
		logger:   logger,
	}
}

// VerifyToken implements TokenVerifier. Only RS256 and ES256 are accepted.
func (v *JWKSValidator) VerifyToken(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.jwks.KeyfuncCtx(ctx),
		jwt.WithValidMethods([]string{"RS256", "ES256"}))
	if err != nil {
		v.logger.Debug("Token parse failed", zap.Error(err))
		return nil, classifyParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenUse != "" && claims.TokenUse != "access" && claims.TokenUse != "id" {
		return nil, fmt.Errorf("%w: unexpected token_use %q", ErrInvalidClaims, claims.TokenUse)
	}
	if err := checkClaims(claims, v.issuer, v.audience); err != nil {
		return nil, err
	}
	return claims, nil
}
