package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthConfig enables HS256 bearer authentication on the API routes when
// Secret is non-empty.
type AuthConfig struct {
	Secret    []byte
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

func (a AuthConfig) Enabled() bool {
	return len(a.Secret) > 0
}

// TokenRequest describes a token to issue.
type TokenRequest struct {
	Subject string
	TTL     time.Duration
}

const claimsKey = "j2g.claims"

// IssueToken signs an HS256 token accepted by RequireJWT.
func IssueToken(cfg AuthConfig, req TokenRequest) (string, error) {
	if !cfg.Enabled() {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   req.Subject,
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	if req.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(req.TTL))
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString(cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// RequireJWT rejects requests without a valid bearer token.
func RequireJWT(cfg AuthConfig) gin.HandlerFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.ClockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			abortError(c, http.StatusUnauthorized, errors.New("missing or invalid Authorization header"))
			return
		}
		raw := strings.TrimSpace(auth[len("Bearer "):])
		claims := &jwt.RegisteredClaims{}
		tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return cfg.Secret, nil
		})
		if err != nil || !tok.Valid {
			abortError(c, http.StatusUnauthorized, errors.New("invalid token"))
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the verified claims of the request, if any.
func ClaimsFrom(c *gin.Context) *jwt.RegisteredClaims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*jwt.RegisteredClaims); ok {
			return claims
		}
	}
	return nil
}
