package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"cleanbook/backend/config"
	"cleanbook/backend/pkg/jwt"
	"cleanbook/backend/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-0123456789",
		Issuer:         "cleanbook",
		AccessTokenTTL: time.Minute,
	})
}

// ── JWTAuth / RoleAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := newTestJWT()
	token, err := mgr.GenerateAccessToken("staff-001", "staff")
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.GET("/me", JWTAuth(mgr, nil), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id")+"|"+c.GetString("role"))
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"缺少认证头", "", http.StatusUnauthorized},
		{"格式错误", "Token " + token, http.StatusUnauthorized},
		{"签名无效", "Bearer " + token + "x", http.StatusUnauthorized},
		{"有效 Token", "Bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)

		if w.Code != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.status, w.Code)
		}
		if tc.status == http.StatusOK && w.Body.String() != "staff-001|staff" {
			t.Errorf("%s: claims not injected, got %q", tc.name, w.Body.String())
		}
	}
}

func TestRoleAuth(t *testing.T) {
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		c.Set("role", c.Query("role"))
	}, RoleAuth("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for role, status := range map[string]int{"admin": http.StatusOK, "staff": http.StatusForbidden, "customer": http.StatusForbidden} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/admin?role="+role, nil))
		if w.Code != status {
			t.Errorf("role %s: expected %d, got %d", role, status, w.Code)
		}
	}
}

func TestRoleAuth_NoRole(t *testing.T) {
	r := gin.New()
	r.GET("/admin", RoleAuth("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ── RateLimit ──

func TestRateLimit_NilRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RateLimit(nil, 1, time.Minute, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Redis 不可用时应放行，第 %d 次得到 %d", i+1, w.Code)
		}
	}
}

// ── RequestID ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", "upstream-1")
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "upstream-1" || w.Body.String() != "upstream-1" {
		t.Errorf("上游 Request-ID 应被沿用，got %q", w.Header().Get("X-Request-ID"))
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", requestIDMaxLen+1))
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("超长 Request-ID 应被替换为 UUID，got %q", got)
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.POST("/upload", BodyLimit(8), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/upload", strings.NewReader(strings.Repeat("x", 32))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/upload", strings.NewReader("ok")))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ── CORS ──

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://admin.cleanbook.example/"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/ping", nil)
	req.Header.Set("Origin", "https://admin.cleanbook.example")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("预检请求应返回 204，got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://admin.cleanbook.example" {
		t.Error("白名单 Origin 应被允许")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("非白名单 Origin 不应回写允许头")
	}
}

// ── Metrics ──

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	m := metrics.New("test")
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/schedules/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/schedules/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/schedules/:id", "200")); got != 3 {
		t.Errorf("expected 3 requests on route template, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("expected 1 unmatched request, got %v", got)
	}
}
