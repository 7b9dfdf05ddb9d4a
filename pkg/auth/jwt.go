package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Claims covers both locally issued tokens and Cognito id/access tokens
type Claims struct {
	Email           string   `json:"email,omitempty"`
	Username        string   `json:"username,omitempty"`
	CognitoUsername string   `json:"cognito:username,omitempty"`
	Groups          []string `json:"cognito:groups,omitempty"`
	Roles           []string `json:"roles,omitempty"`
	TokenUse        string   `json:"token_use,omitempty"`
	ClientID        string   `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

// UserID is the subject of the token
func (c *Claims) UserID() string {
	return c.Subject
}

// DisplayName prefers the Cognito username, then username, then email
func (c *Claims) DisplayName() string {
	switch {
	case c.CognitoUsername != "":
		return c.CognitoUsername
	case c.Username != "":
		return c.Username
	default:
		return c.Email
	}
}

// AllGroups merges Cognito groups and locally issued roles
func (c *Claims) AllGroups() []string {
	out := make([]string, 0, len(c.Groups)+len(c.Roles))
	out = append(out, c.Groups...)
	return append(out, c.Roles...)
}

// TokenVerifier turns a bearer token into verified claims
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Claims, error)
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningMethod string   // RS256 or HS256
	PublicKey     string   // For RS256
	SecretKey     string   // For HS256
	Issuer        string   // Expected issuer
	Audience      []string // Accepted audiences or client ids
}

// JWTValidator handles JWT validation with a static key
type JWTValidator struct {
	publicKey     *rsa.PublicKey
	secretKey     []byte
	signingMethod jwt.SigningMethod
	issuer        string
	audience      []string
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(config JWTConfig) (*JWTValidator, error) {
	validator := &JWTValidator{
		issuer:   config.Issuer,
		audience: config.Audience,
	}

	switch config.SigningMethod {
	case "RS256":
		validator.signingMethod = jwt.SigningMethodRS256
		if config.PublicKey == "" {
			return nil, errors.New("public key required for RS256")
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(config.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		validator.publicKey = key
	case "HS256", "":
		validator.signingMethod = jwt.SigningMethodHS256
		if config.SecretKey == "" {
			return nil, errors.New("secret key required for HS256")
		}
		validator.secretKey = []byte(config.SecretKey)
	default:
		return nil, fmt.Errorf("unsupported signing method: %s", config.SigningMethod)
	}

	return validator, nil
}

// VerifyToken implements TokenVerifier
func (v *JWTValidator) VerifyToken(_ context.Context, token string) (*Claims, error) {
	return v.ValidateToken(token)
}

// ValidateToken validates a JWT token and returns the claims
func (v *JWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		switch v.signingMethod {
		case jwt.SigningMethodRS256:
			return v.publicKey, nil
		default:
			return v.secretKey, nil
		}
	}, jwt.WithValidMethods([]string{v.signingMethod.Alg()}))
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if err := checkClaims(claims, v.issuer, v.audience); err != nil {
		return nil, err
	}
	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

// checkClaims validates issuer, audience and subject. Cognito access tokens
// carry the app client in client_id instead of aud, so either is accepted.
func checkClaims(claims *Claims, issuer string, audience []string) error {
	if issuer != "" && claims.Issuer != issuer {
		return fmt.Errorf("%w: invalid issuer", ErrInvalidClaims)
	}
	if len(audience) > 0 {
		valid := slices.Contains(audience, claims.ClientID)
		for _, aud := range claims.Audience {
			if slices.Contains(audience, aud) {
				valid = true
			}
		}
		if !valid {
			return fmt.Errorf("%w: invalid audience", ErrInvalidClaims)
		}
	}
	if claims.Subject == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidClaims)
	}
	return nil
}

// JWTGeneratorConfig holds JWT generator configuration
type JWTGeneratorConfig struct {
	SigningMethod string        // RS256 or HS256
	PrivateKey    string        // For RS256
	SecretKey     string        // For HS256
	Issuer        string        // Token issuer
	Audience      []string      // Token audience
	ExpiryTime    time.Duration // Token expiry duration
}

// JWTGenerator issues tokens for local development and the admin CLI
type JWTGenerator struct {
	privateKey    *rsa.PrivateKey
	secretKey     []byte
	signingMethod jwt.SigningMethod
	issuer        string
	audience      []string
	expiryTime    time.Duration
}

// NewJWTGenerator creates a new JWT generator
func NewJWTGenerator(config JWTGeneratorConfig) (*JWTGenerator, error) {
	generator := &JWTGenerator{
		issuer:     config.Issuer,
		audience:   config.Audience,
		expiryTime: config.ExpiryTime,
	}
	if generator.expiryTime <= 0 {
		generator.expiryTime = time.Hour
	}

	switch config.SigningMethod {
	case "RS256":
		generator.signingMethod = jwt.SigningMethodRS256
		if config.PrivateKey == "" {
			return nil, errors.New("private key required for RS256")
		}
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(config.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		generator.privateKey = key
	case "HS256", "":
		generator.signingMethod = jwt.SigningMethodHS256
		if config.SecretKey == "" {
			return nil, errors.New("secret key required for HS256")
		}
		generator.secretKey = []byte(config.SecretKey)
	default:
		return nil, fmt.Errorf("unsupported signing method: %s", config.SigningMethod)
	}

	return generator, nil
}

// GenerateToken signs a token for the user with the given groups
func (g *JWTGenerator) GenerateToken(userID, username, email string, groups []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:    email,
		Username: username,
		Groups:   groups,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   userID,
			Audience:  g.audience,
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiryTime)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(g.signingMethod, claims)

	var key interface{}
	switch g.signingMethod {
	case jwt.SigningMethodRS256:
		key = g.privateKey
	default:
		key = g.secretKey
	}
	return token.SignedString(key)
}

// Authentication methods recorded on UserContext
const (
	MethodJWT        = "jwt"
	MethodAuthorizer = "authorizer"
	MethodAPIKey     = "api_key"
)

// UserContext is the authenticated identity of a request
type UserContext struct {
	UserID   string
	Username string
	Email    string
	Groups   []string
	Method   string
	KeyID    string
}

type contextKey string

const UserContextKey contextKey = "user"

// GetUserFromContext extracts user from context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(UserContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, errors.New("user not found in context")
	}
	return user, nil
}

// SetUserInContext adds user to context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}
