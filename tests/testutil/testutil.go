// Package testutil provides common test utilities for the Offering Bowl
// backend: a spying store wrapper, a fixed clock, gin test contexts and
// bearer tokens for HTTP tests.
package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/offeringbowl/backend/internal/infrastructure/auth"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestSecret is the HS256 secret Token signs with
const TestSecret = "offering-bowl-test-secret-0123456789"

// SpyStore wraps a Store, counts writes per table and can be told to fail.
type SpyStore struct {
	store.Store

	mu      sync.Mutex
	puts    map[string]int
	deletes map[string]int
	failOn  map[string]error
}

// NewSpyStore wraps an in-memory store
func NewSpyStore() *SpyStore {
	return &SpyStore{
		Store:   store.NewMemoryStore(),
		puts:    map[string]int{},
		deletes: map[string]int{},
		failOn:  map[string]error{},
	}
}

// FailOn makes every call of op ("get", "put", "delete", "query", "scan")
// return err. A nil err clears the failure.
func (s *SpyStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failOn, op)
		return
	}
	s.failOn[op] = err
}

func (s *SpyStore) failure(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failOn[op]
}

// Puts returns the number of successful puts to table
func (s *SpyStore) Puts(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[table]
}

// Deletes returns the number of successful deletes on table
func (s *SpyStore) Deletes(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes[table]
}

// Get implements store.Store
func (s *SpyStore) Get(ctx context.Context, table string, key store.Key, out any) (bool, error) {
	if err := s.failure("get"); err != nil {
		return false, err
	}
	return s.Store.Get(ctx, table, key, out)
}

// Put implements store.Store
func (s *SpyStore) Put(ctx context.Context, table string, item any) error {
	if err := s.failure("put"); err != nil {
		return err
	}
	if err := s.Store.Put(ctx, table, item); err != nil {
		return err
	}
	s.mu.Lock()
	s.puts[table]++
	s.mu.Unlock()
	return nil
}

// Delete implements store.Store
func (s *SpyStore) Delete(ctx context.Context, table string, key store.Key) error {
	if err := s.failure("delete"); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, table, key); err != nil {
		return err
	}
	s.mu.Lock()
	s.deletes[table]++
	s.mu.Unlock()
	return nil
}

// Query implements store.Store
func (s *SpyStore) Query(ctx context.Context, q store.Query) (*store.Page, error) {
	if err := s.failure("query"); err != nil {
		return nil, err
	}
	return s.Store.Query(ctx, q)
}

// Scan implements store.Store
func (s *SpyStore) Scan(ctx context.Context, sc store.Scan) (*store.Page, error) {
	if err := s.failure("scan"); err != nil {
		return nil, err
	}
	return s.Store.Scan(ctx, sc)
}

// Clock is a manually advanced time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current clock time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Token signs a bearer token for uid with the test secret. Extra claims
// are optional.
func Token(t *testing.T, uid string, claims ...func(*auth.Claims)) string {
	t.Helper()

	c := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uid},
		Email:            uid + "@example.org",
		Name:             uid,
	}
	for _, apply := range claims {
		apply(&c)
	}
	token, err := auth.SignHS256(TestSecret, c, time.Hour)
	require.NoError(t, err, "Failed to sign token")
	return token
}

// WithRole sets the role claim
func WithRole(role string) func(*auth.Claims) {
	return func(c *auth.Claims) {
		c.Role = role
		c.UserID = c.Subject
	}
}

// TestContext wraps a Gin test context with HTTP recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a new Gin test context.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	return &TestContext{
		Context:  c,
		Recorder: w,
		Engine:   engine,
	}
}

// ResponseBody returns the response body as bytes.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// ResponseCode returns the HTTP status code.
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// AssertEventually retries an assertion function until it passes or times out.
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	t.Fatalf("Condition not met within %v: %v", timeout, msgAndArgs)
}
