package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cydxin/notify-sdk/service"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func newRouter(t *testing.T) (*gin.Engine, *service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	policy := service.NewStaticAdminPolicy(1)
	auth := service.NewAuthService(rdb, policy)

	r := gin.New()
	g := r.Group("/", GinAuthMiddleware(auth, nil))
	g.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, "%d", c.GetUint64(ContextUserIDKey))
	})
	g.GET("/admin", RequireAdmin(policy, nil), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r, auth
}

func serve(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGinAuthMiddleware(t *testing.T) {
	r, auth := newRouter(t)
	token, err := auth.Tokens().Issue(context.Background(), 42, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if w := serve(r, "/me", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d", w.Code)
	}
	if w := serve(r, "/me", "bogus"); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown token: got %d", w.Code)
	}
	if w := serve(r, "/me", token); w.Code != http.StatusOK || w.Body.String() != "42" {
		t.Fatalf("bearer: got %d %q", w.Code, w.Body.String())
	}
	if w := serve(r, "/me?token="+token, ""); w.Code != http.StatusOK {
		t.Fatalf("query fallback: got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	r, auth := newRouter(t)
	ctx := context.Background()
	resident, _ := auth.Tokens().Issue(ctx, 42, time.Hour)
	admin, _ := auth.Tokens().Issue(ctx, 1, time.Hour)

	if w := serve(r, "/admin", resident); w.Code != http.StatusForbidden {
		t.Fatalf("resident: got %d", w.Code)
	}
	if w := serve(r, "/admin", admin); w.Code != http.StatusOK {
		t.Fatalf("admin: got %d", w.Code)
	}
}

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestTimeout(time.Minute))
	r.GET("/", func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	if w := serve(r, "/", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected deadline on request context, got %d", w.Code)
	}
}
