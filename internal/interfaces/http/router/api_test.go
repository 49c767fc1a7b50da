package router

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	activityapp "github.com/offeringbowl/backend/internal/application/activity"
	contentapp "github.com/offeringbowl/backend/internal/application/content"
	identityapp "github.com/offeringbowl/backend/internal/application/identity"
	patronageapp "github.com/offeringbowl/backend/internal/application/patronage"
	"github.com/offeringbowl/backend/internal/infrastructure/auth"
	"github.com/offeringbowl/backend/internal/infrastructure/cache"
	"github.com/offeringbowl/backend/internal/infrastructure/config"
	"github.com/offeringbowl/backend/internal/infrastructure/storage"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
	"github.com/offeringbowl/backend/internal/infrastructure/telemetry"
	"github.com/offeringbowl/backend/internal/interfaces/http/handler"
	"github.com/offeringbowl/backend/internal/interfaces/http/middleware"
	"github.com/offeringbowl/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type api struct {
	engine  http.Handler
	store   *testutil.SpyStore
	clock   *testutil.Clock
	metrics *telemetry.Metrics
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "offering-bowl", Env: "test"},
		HTTP: config.HTTPConfig{
			MaxBodySize:      1 << 20,
			CORSAllowOrigins: []string{"*"},
			CORSAllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			CORSAllowHeaders: []string{"Authorization", "Content-Type"},
		},
		Telemetry: config.TelemetryConfig{ServiceName: "offering-bowl"},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newAPI(t *testing.T, limiter *middleware.RateLimiter) *api {
	t.Helper()

	st := testutil.NewSpyStore()
	clock := testutil.NewClock(time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC))
	metrics := telemetry.NewMetrics()
	userCache := cache.NewInMemoryUserCache(time.Minute)
	t.Cleanup(func() { _ = userCache.Close() })

	verifier, err := auth.NewJWTVerifier(config.AuthConfig{Secret: testutil.TestSecret})
	require.NoError(t, err)

	activities := activityapp.NewService(st, activityapp.WithClock(clock.Now), activityapp.WithMetrics(metrics))
	users := identityapp.NewUserService(st, activities, userCache, identityapp.WithClock(clock.Now))
	settings := identityapp.NewSettingsService(st, identityapp.WithClock(clock.Now))
	profiles := identityapp.NewProfileService(st, users, activities, identityapp.WithClock(clock.Now))
	contracts := patronageapp.NewContractService(st, activities, patronageapp.WithClock(clock.Now))
	receipts := patronageapp.NewReceiptService(st, contracts, activities, patronageapp.WithClock(clock.Now))
	posts := contentapp.NewPostService(st, contracts, activities, contentapp.WithClock(clock.Now), contentapp.WithMetrics(metrics))
	media := contentapp.NewMediaService(st, storage.NewStubMediaStorage("https://cdn.test"), activities, contentapp.WithClock(clock.Now))

	engine := New(Deps{
		Config:  testConfig(),
		Logger:  zap.NewNop(),
		Metrics: metrics,
		Limiter: limiter,
		Handlers: Handlers{
			System:     handler.NewSystemHandler(),
			Users:      handler.NewUserHandler(users),
			Settings:   handler.NewSettingsHandler(settings),
			Profiles:   handler.NewProfileHandler(profiles),
			Posts:      handler.NewPostHandler(posts),
			Contracts:  handler.NewContractHandler(contracts),
			Receipts:   handler.NewReceiptHandler(receipts),
			Media:      handler.NewMediaHandler(media),
			Activities: handler.NewActivityHandler(activities),
		},
		Guards: Guards{Verifier: verifier, Users: users, Cache: userCache},
	})

	return &api{engine: engine, store: st, clock: clock, metrics: metrics}
}

// signup registers uid with role and returns a token without role claims,
// so guards rely on hydration.
func (a *api) signup(t *testing.T, uid, role string) string {
	t.Helper()
	token := testutil.Token(t, uid)
	w := testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPost,
		Path:   "/users",
		Token:  token,
		Body:   map[string]any{"role": role, "name": uid, "email": uid + "@example.org"},
	})
	testutil.AssertSuccess(t, w, http.StatusCreated)
	return token
}

func (a *api) createPost(t *testing.T, token string, public bool) string {
	t.Helper()
	w := testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPost,
		Path:   "/posts/post",
		Token:  token,
		Body:   map[string]any{"content": "Morning alms round", "isPublic": public},
	})
	resp := testutil.AssertSuccess(t, w, http.StatusCreated)
	a.clock.Advance(time.Minute)
	return resp["post"].(map[string]any)["postId"].(string)
}

func (a *api) sponsor(t *testing.T, token, monasticID string) string {
	t.Helper()
	w := testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPost,
		Path:   "/contracts",
		Token:  token,
		Body:   map[string]any{"monasticId": monasticID, "amount": 25, "recurring": true},
	})
	resp := testutil.AssertSuccess(t, w, http.StatusCreated)
	return resp["contract"].(map[string]any)["contractId"].(string)
}

func ids(t *testing.T, resp map[string]any, key, field string) []string {
	t.Helper()
	items, ok := resp[key].([]any)
	require.True(t, ok, "%s is not a list: %v", key, resp[key])
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.(map[string]any)[field].(string))
	}
	return out
}

func TestAPI_System(t *testing.T) {
	a := newAPI(t, nil)

	w := testutil.Do(t, a.engine, testutil.Request{Path: "/"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Welcome to Offering Bowl!", testutil.Body(t, w)["message"])

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/health"})
	resp := testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, "ok", resp["health"].(map[string]any)["status"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/nowhere"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":404,"message":"Route not found."}`, w.Body.String())

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/metrics"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "offering_bowl_http_requests_total")
}

func TestAPI_Preflight(t *testing.T) {
	a := newAPI(t, nil)

	w := testutil.Do(t, a.engine, testutil.Request{
		Method:  http.MethodOptions,
		Path:    "/posts/post",
		Headers: map[string]string{"Origin": "https://app.test"},
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPI_Users(t *testing.T) {
	a := newAPI(t, nil)
	aang := a.signup(t, "aang", "monastic")
	zuko := testutil.Token(t, "zuko")

	w := testutil.Do(t, a.engine, testutil.Request{Path: "/users/aang", Token: aang})
	resp := testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, "monastic", resp["user"].(map[string]any)["role"])

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/users/zuko", Token: zuko})
	testutil.AssertFailure(t, w, http.StatusNotFound, "User not found.")

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/users/aang", Token: zuko})
	testutil.AssertError(t, w, http.StatusForbidden, middleware.MsgNotPermitted)

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/users/aang"})
	testutil.AssertError(t, w, http.StatusUnauthorized, middleware.MsgTokenMissing)

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/users/aang", Token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPut, Path: "/users/aang", Token: aang,
		Body: map[string]any{"name": "Avatar Aang"},
	})
	resp = testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, "User updated successfully.", resp["message"])
	assert.Equal(t, "Avatar Aang", resp["user"].(map[string]any)["name"])

	w = testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPost, Path: "/users", Token: zuko,
		Body: map[string]any{"role": "patron", "name": "Zuko", "email": "zuko@example.org", "title": "prince"},
	})
	resp = testutil.AssertError(t, w, http.StatusUnprocessableEntity, "")
	assert.True(t, strings.HasPrefix(resp["error"].(string), "Invalid user data"), resp["error"])

	w = testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPost, Path: "/users", Token: zuko,
		Body: map[string]any{"userId": "aang", "role": "patron", "name": "Zuko", "email": "zuko@example.org"},
	})
	testutil.AssertError(t, w, http.StatusForbidden, identityapp.MsgNotPermitted)
}

func TestAPI_Settings(t *testing.T) {
	a := newAPI(t, nil)
	body := map[string]any{"country": "NP", "anonymous": true}

	stranger := testutil.Token(t, "stranger")
	w := testutil.Do(t, a.engine, testutil.Request{Method: http.MethodPost, Path: "/settings", Token: stranger, Body: body})
	testutil.AssertError(t, w, http.StatusForbidden, middleware.MsgUserDataMissing)

	katara := a.signup(t, "katara", "patron")
	w = testutil.Do(t, a.engine, testutil.Request{Path: "/settings/katara", Token: katara})
	testutil.AssertFailure(t, w, http.StatusNotFound, "Settings not found.")

	w = testutil.Do(t, a.engine, testutil.Request{Method: http.MethodPost, Path: "/settings", Token: katara, Body: body})
	resp := testutil.AssertSuccess(t, w, http.StatusCreated)
	assert.Equal(t, "Settings created successfully.", resp["message"])
	settingsID := resp["settings"].(map[string]any)["settingsId"].(string)

	w = testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPut, Path: "/settings/" + settingsID, Token: katara,
		Body: map[string]any{"city": "Pokhara"},
	})
	resp = testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, "Pokhara", resp["settings"].(map[string]any)["city"])

	w = testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPut, Path: "/settings/" + settingsID, Token: katara,
		Body: `["not","an","object"]`,
	})
	testutil.AssertError(t, w, http.StatusUnprocessableEntity, "Invalid settings data: body must be a JSON object")
}

func TestAPI_Profiles(t *testing.T) {
	a := newAPI(t, nil)
	katara := a.signup(t, "katara", "patron")

	w := testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPost, Path: "/profiles", Token: katara,
		Body: map[string]any{"name": "Katara", "bio": "Waterbender"},
	})
	resp := testutil.AssertSuccess(t, w, http.StatusCreated)
	profile := resp["profile"].(map[string]any)
	assert.Equal(t, "patron", profile["kind"])
	profileID := profile["profileId"].(string)

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/profiles/" + profileID, Token: katara})
	testutil.AssertSuccess(t, w, http.StatusOK)

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/profiles/user/katara", Token: katara})
	resp = testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, profileID, resp["profile"].(map[string]any)["profileId"])

	w = testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPut, Path: "/profiles/user/katara", Token: katara,
		Body: map[string]any{"bio": "Master waterbender"},
	})
	resp = testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, "Master waterbender", resp["profile"].(map[string]any)["bio"])

	w = testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPut, Path: "/profiles/user/katara", Token: testutil.Token(t, "zuko"),
		Body: map[string]any{"bio": "hijacked"},
	})
	testutil.AssertError(t, w, http.StatusForbidden, middleware.MsgNotPermitted)
}

func TestAPI_PostVisibility(t *testing.T) {
	a := newAPI(t, nil)
	aang := a.signup(t, "aang", "monastic")
	katara := a.signup(t, "katara", "patron")
	zuko := a.signup(t, "zuko", "patron")

	public := a.createPost(t, aang, true)
	private := a.createPost(t, aang, false)
	a.sponsor(t, katara, "aang")
	postPuts := a.store.Puts(store.TablePosts)

	w := testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPost, Path: "/posts/post", Token: katara,
		Body: map[string]any{"content": "not mine to post", "isPublic": true},
	})
	testutil.AssertError(t, w, http.StatusForbidden, "User role patron is not permitted.")
	assert.Equal(t, postPuts, a.store.Puts(store.TablePosts))

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/posts/public/monastic/aang"})
	resp := testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, []string{public}, ids(t, resp, "posts", "postId"))
	assert.Nil(t, resp["cursor"])

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/posts/public/post/" + private})
	testutil.AssertError(t, w, http.StatusNotFound, contentapp.MsgPostNotFound)

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/posts/post/" + private, Token: katara})
	testutil.AssertSuccess(t, w, http.StatusOK)

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/posts/post/" + private, Token: zuko})
	testutil.AssertError(t, w, http.StatusForbidden, contentapp.MsgPatronsOnly)

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/posts/monastic/aang", Token: katara})
	resp = testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, []string{private, public}, ids(t, resp, "posts", "postId"))

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/posts/monastic/aang", Token: zuko})
	resp = testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, []string{public}, ids(t, resp, "posts", "postId"))

	w = testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPut, Path: "/posts/post/" + private, Token: aang,
		Body: map[string]any{"isPublic": true},
	})
	resp = testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, "Post updated successfully.", resp["message"])

	w = testutil.Do(t, a.engine, testutil.Request{Method: http.MethodDelete, Path: "/posts/post/" + public, Token: aang})
	resp = testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, "Post deleted successfully.", resp["message"])

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/posts/public/post/" + public})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_FeedPagination(t *testing.T) {
	a := newAPI(t, nil)
	aang := a.signup(t, "aang", "monastic")
	pathik := a.signup(t, "pathik", "monastic")
	katara := a.signup(t, "katara", "patron")
	a.sponsor(t, katara, "aang")
	a.sponsor(t, katara, "pathik")

	var want []string
	for i := 0; i < 5; i++ {
		token := aang
		if i%2 == 1 {
			token = pathik
		}
		want = append([]string{a.createPost(t, token, i%3 == 0)}, want...)
	}

	var got []string
	path := "/posts/feed/katara?limit=2"
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5, "feed did not terminate")
		w := testutil.Do(t, a.engine, testutil.Request{Path: path, Token: katara})
		resp := testutil.AssertSuccess(t, w, http.StatusOK)
		got = append(got, ids(t, resp, "posts", "postId")...)
		cursor, _ := resp["cursor"].(string)
		if cursor == "" {
			break
		}
		path = "/posts/feed/katara?limit=2&cursor=" + cursor
	}
	assert.Equal(t, want, got)

	w := testutil.Do(t, a.engine, testutil.Request{Path: "/posts/feed/katara", Token: aang})
	testutil.AssertError(t, w, http.StatusForbidden, "User role monastic is not permitted.")

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/posts/feed/katara?cursor=%25%25", Token: katara})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAPI_ContractsReceiptsAndMedia(t *testing.T) {
	a := newAPI(t, nil)
	aang := a.signup(t, "aang", "monastic")
	katara := a.signup(t, "katara", "patron")
	zuko := a.signup(t, "zuko", "patron")
	contractID := a.sponsor(t, katara, "aang")
	contractPuts := a.store.Puts(store.TableContracts)

	w := testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPost, Path: "/contracts", Token: aang,
		Body: map[string]any{"monasticId": "pathik", "amount": 5, "recurring": false},
	})
	testutil.AssertError(t, w, http.StatusForbidden, "User role monastic is not permitted.")
	assert.Equal(t, contractPuts, a.store.Puts(store.TableContracts))

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/contracts/" + contractID, Token: zuko})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/contracts/monastic/aang/patrons", Token: aang})
	resp := testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, []any{"katara"}, resp["patronIds"])

	w = testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPut, Path: "/contracts/" + contractID, Token: katara,
		Body: map[string]any{"status": "paused"},
	})
	resp = testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, "paused", resp["contract"].(map[string]any)["status"])

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/contracts/patron/katara?active=true", Token: katara})
	resp = testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Empty(t, resp["contracts"])

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/contracts/patron/katara", Token: katara})
	resp = testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, []string{contractID}, ids(t, resp, "contracts", "contractId"))

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/contracts/patron/katara", Token: zuko})
	testutil.AssertError(t, w, http.StatusForbidden, middleware.MsgNotPermitted)

	w = testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPost, Path: "/media", Token: aang,
		Body: map[string]any{"contentType": "application/pdf", "fileName": "receipt.pdf"},
	})
	resp = testutil.AssertSuccess(t, w, http.StatusCreated)
	mediaID := resp["media"].(map[string]any)["mediaId"].(string)
	assert.True(t, strings.HasPrefix(resp["uploadUrl"].(string), "https://cdn.test/media/aang/"), resp["uploadUrl"])
	assert.NotEmpty(t, resp["expiresAt"])

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/media/" + mediaID, Token: katara})
	testutil.AssertSuccess(t, w, http.StatusOK)

	w = testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPost, Path: "/receipts", Token: aang,
		Body: map[string]any{"contractId": contractID, "mediaId": mediaID},
	})
	resp = testutil.AssertSuccess(t, w, http.StatusCreated)
	receiptID := resp["receipt"].(map[string]any)["receiptId"].(string)

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/receipts/" + receiptID, Token: katara})
	testutil.AssertSuccess(t, w, http.StatusOK)

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/receipts/contract/" + contractID, Token: katara})
	resp = testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, []string{receiptID}, ids(t, resp, "receipts", "receiptId"))

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/receipts/contract/" + contractID, Token: zuko})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_Activities(t *testing.T) {
	a := newAPI(t, nil)
	aang := a.signup(t, "aang", "monastic")
	for i := 0; i < 3; i++ {
		a.createPost(t, aang, true)
	}

	w := testutil.Do(t, a.engine, testutil.Request{Path: "/activities/aang?limit=2", Token: aang})
	resp := testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Len(t, resp["activities"], 2)
	assert.NotEmpty(t, resp["cursor"])

	w = testutil.Do(t, a.engine, testutil.Request{Path: "/activities/aang", Token: testutil.Token(t, "zuko")})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_StoreFailureIsHidden(t *testing.T) {
	a := newAPI(t, nil)
	aang := a.signup(t, "aang", "monastic")
	a.store.FailOn("get", fmt.Errorf("connection reset"))

	w := testutil.Do(t, a.engine, testutil.Request{Path: "/media/anything", Token: aang})
	resp := testutil.AssertError(t, w, http.StatusInternalServerError, "Internal server error")
	assert.NotContains(t, w.Body.String(), "connection reset")
	assert.Nil(t, resp["details"])
}

func TestAPI_RateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Close)
	a := newAPI(t, limiter)

	for i := 0; i < 2; i++ {
		w := testutil.Do(t, a.engine, testutil.Request{Path: "/health"})
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := testutil.Do(t, a.engine, testutil.Request{Path: "/health"})
	testutil.AssertError(t, w, http.StatusTooManyRequests, middleware.MsgRateLimited)
}
