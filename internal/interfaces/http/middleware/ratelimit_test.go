package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/offeringbowl/backend/internal/infrastructure/telemetry"
	"github.com/offeringbowl/backend/tests/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(2, 5*time.Minute)
	defer limiter.Close()
	metrics := telemetry.NewMetrics()

	router := gin.New()
	router.Use(RateLimit(limiter, metrics))
	router.GET("/test", ok)

	for i := 0; i < 2; i++ {
		w := testutil.Do(t, router, testutil.Request{Path: "/test"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := testutil.Do(t, router, testutil.Request{Path: "/test"})
	testutil.AssertFailure(t, w, http.StatusTooManyRequests, MsgRateLimited)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.RateLimited))
}

func TestRateLimit_NilMetrics(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Close()

	router := gin.New()
	router.Use(RateLimit(limiter, nil))
	router.GET("/test", ok)

	testutil.Do(t, router, testutil.Request{Path: "/test"})
	w := testutil.Do(t, router, testutil.Request{Path: "/test"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
