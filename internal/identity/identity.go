// Package identity reads the organization identifier issued by the external
// identity provider. It verifies bearer tokens but makes no access decisions.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bissquit/statuspage/internal/pkg/ctxlog"
	"github.com/bissquit/statuspage/internal/pkg/httputil"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultOrgClaim is the claim carrying the provider's organization id.
const DefaultOrgClaim = "org_id"

// Identity errors.
var (
	ErrDisabled     = errors.New("identity verification is not configured")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingClaim = errors.New("token has no organization claim")
)

// Config holds verifier configuration.
type Config struct {
	SigningKey string
	OrgClaim   string
	Issuer     string
}

// Verifier validates HS256 tokens and extracts the organization claim.
type Verifier struct {
	key      []byte
	orgClaim string
	parser   *jwt.Parser
}

// NewVerifier creates a verifier. An empty signing key yields a verifier
// that rejects every token with ErrDisabled.
func NewVerifier(cfg Config) *Verifier {
	claim := cfg.OrgClaim
	if claim == "" {
		claim = DefaultOrgClaim
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Verifier{
		key:      []byte(cfg.SigningKey),
		orgClaim: claim,
		parser:   jwt.NewParser(opts...),
	}
}

// ExternalRef validates token and returns its organization claim.
func (v *Verifier) ExternalRef(token string) (string, error) {
	if len(v.key) == 0 {
		return "", ErrDisabled
	}

	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	ref, ok := claims[v.orgClaim].(string)
	if !ok || ref == "" {
		return "", ErrMissingClaim
	}
	return ref, nil
}

type ctxKey struct{}

// WithExternalRef stores the organization reference in the context.
func WithExternalRef(ctx context.Context, ref string) context.Context {
	return context.WithValue(ctx, ctxKey{}, ref)
}

// ExternalRef returns the organization reference stored by Middleware.
func ExternalRef(ctx context.Context) string {
	if ref, ok := ctx.Value(ctxKey{}).(string); ok {
		return ref
	}
	return ""
}

// Middleware verifies the bearer token and stores its organization claim.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				httputil.Error(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			ref, err := v.ExternalRef(parts[1])
			if err != nil {
				ctxlog.FromContext(r.Context()).Debug("identity token rejected", "error", err)
				httputil.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithExternalRef(r.Context(), ref)))
		})
	}
}
