package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/offeringbowl/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestVerifier(t *testing.T) *JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier(config.AuthConfig{
		Secret:   testSecret,
		Issuer:   "test-issuer",
		Audience: "offering-bowl",
	})
	require.NoError(t, err)
	return v
}

func testClaims(subject string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			Issuer:   "test-issuer",
			Audience: jwt.ClaimStrings{"offering-bowl"},
		},
		Email: "aang@airtemple.org",
		Name:  "Aang",
		Role:  "monastic",
	}
}

func TestJWTVerifier_Verify(t *testing.T) {
	v := newTestVerifier(t)

	token, err := SignHS256(testSecret, testClaims("uid-aang"), time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-aang", id.UID)
	assert.Equal(t, "aang@airtemple.org", id.Email)
	assert.Equal(t, "Aang", id.Name)
	assert.Equal(t, "monastic", id.Role)
	assert.Empty(t, id.UserID)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v := newTestVerifier(t)

	expired := testClaims("uid")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	future := testClaims("uid")
	future.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))

	wrongIssuer := testClaims("uid")
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := testClaims("uid")
	wrongAudience.Audience = jwt.ClaimStrings{"other-app"}

	tests := []struct {
		name    string
		secret  string
		claims  Claims
		wantErr error
	}{
		{"expired", testSecret, expired, ErrExpiredToken},
		{"not yet valid", testSecret, future, ErrTokenNotYetValid},
		{"wrong issuer", testSecret, wrongIssuer, ErrInvalidToken},
		{"wrong audience", testSecret, wrongAudience, ErrInvalidToken},
		{"wrong secret", "another-secret-key-of-32-characters", testClaims("uid"), ErrInvalidToken},
		{"no subject", testSecret, testClaims(""), ErrMissingSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := SignHS256(tt.secret, tt.claims, time.Hour)
			require.NoError(t, err)

			_, err = v.Verify(token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestJWTVerifier_Garbage(t *testing.T) {
	_, err := newTestVerifier(t).Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_RejectsAlgorithmSwitch(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := NewRSAVerifier(&key.PublicKey, "", "")

	// HS256 signed with something other than the RSA key must fail
	token, err := SignHS256(testSecret, testClaims("uid"), time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTVerifier_PublicKeyFile(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "jwt.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	v, err := NewJWTVerifier(config.AuthConfig{PublicKeyFile: path})
	require.NoError(t, err)

	claims := testClaims("uid-katara")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-katara", id.UID)
}

func TestNewJWTVerifier_NoKey(t *testing.T) {
	_, err := NewJWTVerifier(config.AuthConfig{})
	assert.ErrorIs(t, err, ErrNoVerificationKey)
}
