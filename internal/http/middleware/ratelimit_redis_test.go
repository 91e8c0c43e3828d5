package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
)

func newLimitedRouter(limit int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(limit, window))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func hit(r *gin.Engine) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRedisRateLimitBlocksOverLimit(t *testing.T) {
	srv := miniredis.RunT(t)
	InitRedisRateLimiter(srv.Addr(), "", 0)
	t.Cleanup(func() { redisClient = nil })

	r := newLimitedRouter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if code := hit(r); code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i+1, code)
		}
	}
	if code := hit(r); code != http.StatusTooManyRequests {
		t.Errorf("over-limit request = %d, want 429", code)
	}
}

func TestRedisRateLimitWindowExpiry(t *testing.T) {
	srv := miniredis.RunT(t)
	InitRedisRateLimiter(srv.Addr(), "", 0)
	t.Cleanup(func() { redisClient = nil })

	r := newLimitedRouter(1, time.Second)
	if code := hit(r); code != http.StatusOK {
		t.Fatalf("first request = %d", code)
	}
	if code := hit(r); code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", code)
	}

	srv.FastForward(2 * time.Second)
	if code := hit(r); code != http.StatusOK {
		t.Errorf("request after window = %d, want 200", code)
	}
}

func TestRedisRateLimitFailsOpen(t *testing.T) {
	srv := miniredis.RunT(t)
	InitRedisRateLimiter(srv.Addr(), "", 0)
	t.Cleanup(func() { redisClient = nil })

	srv.Close()

	r := newLimitedRouter(1, time.Minute)
	for i := 0; i < 3; i++ {
		if code := hit(r); code != http.StatusOK {
			t.Errorf("request %d with redis down = %d, want 200", i+1, code)
		}
	}
}

func TestInitRedisRateLimiterUnreachable(t *testing.T) {
	InitRedisRateLimiter("127.0.0.1:1", "", 0)
	if redisClient != nil {
		t.Error("client should stay nil when the ping fails")
	}
}

func TestSimpleRateLimitFallback(t *testing.T) {
	redisClient = nil

	r := newLimitedRouter(2, time.Minute)
	for i := 0; i < 2; i++ {
		if code := hit(r); code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i+1, code)
		}
	}
	if code := hit(r); code != http.StatusTooManyRequests {
		t.Errorf("over-limit request = %d, want 429", code)
	}
}
