// Package auth verifies bearer tokens issued by the external identity provider.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/offeringbowl/backend/internal/infrastructure/config"
)

// Verification errors
var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token has expired")
	ErrTokenNotYetValid  = errors.New("token is not yet valid")
	ErrMissingSubject    = errors.New("token has no subject")
	ErrNoVerificationKey = errors.New("no token verification key configured")
)

// Claims are the identity provider claims this service reads. Role and
// UserID are optional custom claims; when absent the caller is hydrated
// from storage.
type Claims struct {
	jwt.RegisteredClaims
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// Identity is the verified caller
type Identity struct {
	UID    string
	Email  string
	Name   string
	Role   string
	UserID string
}

// Verifier turns a bearer token into a verified Identity
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// JWTVerifier verifies HS256 or RS256 signed tokens
type JWTVerifier struct {
	key    any
	parser *jwt.Parser
}

// NewJWTVerifier builds a verifier from configuration. A PEM public key file
// selects RS256; otherwise the shared secret selects HS256.
func NewJWTVerifier(cfg config.AuthConfig) (*JWTVerifier, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}

	switch {
	case cfg.PublicKeyFile != "":
		pem, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		return newVerifier(key, jwt.SigningMethodRS256.Alg(), opts), nil
	case cfg.Secret != "":
		return newVerifier([]byte(cfg.Secret), jwt.SigningMethodHS256.Alg(), opts), nil
	default:
		return nil, ErrNoVerificationKey
	}
}

// NewRSAVerifier builds an RS256 verifier around an already parsed key
func NewRSAVerifier(key *rsa.PublicKey, issuer, audience string) *JWTVerifier {
	var opts []jwt.ParserOption
	opts = append(opts, jwt.WithExpirationRequired())
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return newVerifier(key, jwt.SigningMethodRS256.Alg(), opts)
}

func newVerifier(key any, alg string, opts []jwt.ParserOption) *JWTVerifier {
	opts = append(opts, jwt.WithValidMethods([]string{alg}))
	return &JWTVerifier{key: key, parser: jwt.NewParser(opts...)}
}

// Verify implements Verifier
func (v *JWTVerifier) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return &Identity{
		UID:    claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   claims.Role,
		UserID: claims.UserID,
	}, nil
}

// SignHS256 issues a token for local development and tests. Production
// tokens come from the identity provider.
func SignHS256(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

var _ Verifier = (*JWTVerifier)(nil)
