package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/openkeyhub/governance/internal/rest/response"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// ErrMissingSecret is returned when bearer tokens cannot be verified.
var ErrMissingSecret = errors.New("jwt secret is not configured")

type principalCtxKey struct{}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, principal)
}

// Principal returns the authenticated principal, or an empty string for anonymous requests.
func Principal(ctx context.Context) string {
	if principal, ok := ctx.Value(principalCtxKey{}).(string); ok {
		return principal
	}
	return ""
}

// Middleware authenticates HS256 bearer tokens. The token subject is the caller's principal.
type Middleware struct {
	secret []byte
	issuer string
	logger *zap.Logger
}

// New creates the authentication middleware.
func New(config *config.API, logger *zap.Logger) (*Middleware, error) {
	if config.JWTSecret == "" {
		return nil, ErrMissingSecret
	}

	return &Middleware{
		secret: []byte(config.JWTSecret),
		issuer: config.JWTIssuer,
		logger: logger.Named("rest_auth"),
	}, nil
}

// Authenticate resolves the principal when a bearer token is present.
// Requests without a token continue anonymously; invalid tokens are rejected.
func (m *Middleware) Authenticate(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		header := req.Header.Get("Authorization")
		if header == "" {
			return next(w, req)
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return response.Problem(w, http.StatusUnauthorized, response.CodeUnauthenticated, "malformed authorization header")
		}

		principal, err := m.verify(token)
		if err != nil {
			m.logger.Debug("Rejected bearer token", zap.Error(err))
			return response.Problem(w, http.StatusUnauthorized, response.CodeUnauthenticated, "invalid bearer token")
		}

		return next(w, req.WithContext(WithPrincipal(req.Context(), principal)))
	}
}

// RequirePrincipal rejects anonymous requests.
func (m *Middleware) RequirePrincipal(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		if Principal(req.Context()) == "" {
			return response.Problem(w, http.StatusUnauthorized, response.CodeUnauthenticated, "bearer token required")
		}
		return next(w, req)
	}
}

func (m *Middleware) verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...); err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", jwt.ErrTokenInvalidClaims)
	}
	return claims.Subject, nil
}

// IssueToken signs a token for principal that expires after ttl.
func IssueToken(config *config.API, principal string, ttl time.Duration) (string, error) {
	if config.JWTSecret == "" {
		return "", ErrMissingSecret
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   principal,
		Issuer:    config.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}
