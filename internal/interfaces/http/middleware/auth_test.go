package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/offeringbowl/backend/internal/domain/identity"
	"github.com/offeringbowl/backend/internal/domain/shared"
	"github.com/offeringbowl/backend/internal/infrastructure/auth"
	"github.com/offeringbowl/backend/internal/infrastructure/cache"
	"github.com/offeringbowl/backend/internal/infrastructure/config"
	"github.com/offeringbowl/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) Get(ctx context.Context, userID string) (*identity.User, error) {
	args := m.Called(ctx, userID)
	if u := args.Get(0); u != nil {
		return u.(*identity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func newVerifier(t *testing.T) auth.Verifier {
	t.Helper()
	v, err := auth.NewJWTVerifier(config.AuthConfig{Secret: testutil.TestSecret})
	require.NoError(t, err)
	return v
}

// echoIdentity answers with the identity left in the context by the chain
func echoIdentity(c *gin.Context) {
	id, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "uid": id.UID, "role": id.Role, "userId": id.UserID})
}

func TestAuthenticate(t *testing.T) {
	router := gin.New()
	router.Use(Authenticate(newVerifier(t)))
	router.GET("/me", echoIdentity)

	t.Run("valid token", func(t *testing.T) {
		w := testutil.Do(t, router, testutil.Request{Method: http.MethodGet, Path: "/me", Token: testutil.Token(t, "aang")})
		body := testutil.AssertSuccess(t, w, http.StatusOK)
		assert.Equal(t, "aang", body["uid"])
	})

	t.Run("missing header", func(t *testing.T) {
		w := testutil.Do(t, router, testutil.Request{Method: http.MethodGet, Path: "/me"})
		testutil.AssertFailure(t, w, http.StatusUnauthorized, MsgTokenMissing)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		w := testutil.Do(t, router, testutil.Request{
			Method:  http.MethodGet,
			Path:    "/me",
			Headers: map[string]string{"Authorization": "Basic YWFuZzpwdw=="},
		})
		testutil.AssertFailure(t, w, http.StatusUnauthorized, MsgTokenMissing)
	})

	t.Run("bad signature", func(t *testing.T) {
		w := testutil.Do(t, router, testutil.Request{Method: http.MethodGet, Path: "/me", Token: "not.a.jwt"})
		testutil.AssertFailure(t, w, http.StatusUnauthorized, "Invalid token.")
	})

	t.Run("expired", func(t *testing.T) {
		token, err := auth.SignHS256(testutil.TestSecret, auth.Claims{}, -time.Minute)
		require.NoError(t, err)
		w := testutil.Do(t, router, testutil.Request{Method: http.MethodGet, Path: "/me", Token: token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHydrateUser(t *testing.T) {
	stored := &identity.User{UserID: "aang", Role: identity.RoleMonastic, Name: "Aang"}

	t.Run("loads from store and fills the cache", func(t *testing.T) {
		users := new(MockUserLookup)
		users.On("Get", mock.Anything, "aang").Return(stored, nil).Once()
		userCache := cache.NewInMemoryUserCache(time.Minute)
		defer userCache.Close()

		router := gin.New()
		router.Use(Authenticate(newVerifier(t)), HydrateUser(users, userCache))
		router.GET("/me", echoIdentity)

		for i := 0; i < 2; i++ {
			w := testutil.Do(t, router, testutil.Request{Method: http.MethodGet, Path: "/me", Token: testutil.Token(t, "aang")})
			body := testutil.AssertSuccess(t, w, http.StatusOK)
			assert.Equal(t, "monastic", body["role"])
			assert.Equal(t, "aang", body["userId"])
		}
		users.AssertExpectations(t)
	})

	t.Run("claims already complete", func(t *testing.T) {
		users := new(MockUserLookup)
		router := gin.New()
		router.Use(Authenticate(newVerifier(t)), HydrateUser(users, nil))
		router.GET("/me", echoIdentity)

		w := testutil.Do(t, router, testutil.Request{
			Method: http.MethodGet,
			Path:   "/me",
			Token:  testutil.Token(t, "katara", testutil.WithRole("patron")),
		})
		body := testutil.AssertSuccess(t, w, http.StatusOK)
		assert.Equal(t, "patron", body["role"])
		users.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("miss continues without role", func(t *testing.T) {
		users := new(MockUserLookup)
		users.On("Get", mock.Anything, "zuko").Return(nil, shared.NotFound("User not found."))
		router := gin.New()
		router.Use(Authenticate(newVerifier(t)), HydrateUser(users, nil))
		router.GET("/me", echoIdentity)

		w := testutil.Do(t, router, testutil.Request{Method: http.MethodGet, Path: "/me", Token: testutil.Token(t, "zuko")})
		body := testutil.AssertSuccess(t, w, http.StatusOK)
		assert.Equal(t, "", body["role"])
	})

	t.Run("store failure continues", func(t *testing.T) {
		users := new(MockUserLookup)
		users.On("Get", mock.Anything, "zuko").Return(nil, errors.New("timeout"))
		router := gin.New()
		router.Use(Authenticate(newVerifier(t)), HydrateUser(users, nil))
		router.GET("/me", echoIdentity)

		w := testutil.Do(t, router, testutil.Request{Method: http.MethodGet, Path: "/me", Token: testutil.Token(t, "zuko")})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	router := gin.New()
	router.Use(Authenticate(newVerifier(t)))
	calls := 0
	router.GET("/monastics-only", RequireRole(identity.RoleMonastic), func(c *gin.Context) {
		calls++
		echoIdentity(c)
	})

	w := testutil.Do(t, router, testutil.Request{
		Method: http.MethodGet,
		Path:   "/monastics-only",
		Token:  testutil.Token(t, "aang", testutil.WithRole("monastic")),
	})
	testutil.AssertSuccess(t, w, http.StatusOK)

	w = testutil.Do(t, router, testutil.Request{
		Method: http.MethodGet,
		Path:   "/monastics-only",
		Token:  testutil.Token(t, "katara", testutil.WithRole("patron")),
	})
	testutil.AssertFailure(t, w, http.StatusForbidden, "User role patron is not permitted.")
	assert.Equal(t, 1, calls, "handler must not run for a refused role")
}

func TestRestrictToOwner(t *testing.T) {
	router := gin.New()
	router.GET("/anonymous/:userId", RestrictToOwner("userId"), echoIdentity)

	authed := router.Group("", Authenticate(newVerifier(t)))
	authed.GET("/users/:userId", RestrictToOwner("userId"), echoIdentity)
	authed.POST("/settings", RestrictToOwner(""), echoIdentity)
	authed.GET("/role-then-owner/:userId", RequireRole(identity.RoleMonastic), RestrictToOwner("userId"), echoIdentity)

	tests := []struct {
		name    string
		method  string
		path    string
		token   string
		status  int
		message string
	}{
		{"owner", http.MethodGet, "/users/aang", testutil.Token(t, "aang"), http.StatusOK, ""},
		{"other user", http.MethodGet, "/users/aang", testutil.Token(t, "zuko"), http.StatusForbidden, MsgNotPermitted},
		{"no session", http.MethodGet, "/anonymous/aang", "", http.StatusUnauthorized, MsgNoSession},
		{"hydrated owner", http.MethodPost, "/settings", testutil.Token(t, "aang", testutil.WithRole("monastic")), http.StatusOK, ""},
		{"not hydrated", http.MethodPost, "/settings", testutil.Token(t, "aang"), http.StatusForbidden, MsgUserDataMissing},
		{"role before owner", http.MethodGet, "/role-then-owner/aang", testutil.Token(t, "zuko", testutil.WithRole("patron")), http.StatusForbidden, "User role patron is not permitted."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.Do(t, router, testutil.Request{Method: tt.method, Path: tt.path, Token: tt.token})
			if tt.status == http.StatusOK {
				testutil.AssertSuccess(t, w, http.StatusOK)
				return
			}
			testutil.AssertFailure(t, w, tt.status, tt.message)
		})
	}
}
