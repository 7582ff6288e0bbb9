package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cydxin/notify-sdk/response"
	"github.com/cydxin/notify-sdk/service"
	"github.com/gin-gonic/gin"
)

const (
	// ContextUserIDKey gin context 里保存 user id 的 key
	ContextUserIDKey = "user_id"
	ContextTokenKey  = "token"
)

// AuthOptions 可选配置。
type AuthOptions struct {
	// HeaderKey 默认 Authorization
	HeaderKey string
	// QueryKey 默认 token
	QueryKey string
	// UserIDKey 默认 user_id
	UserIDKey string
	// TokenKey 默认 token
	TokenKey string
}

func (o *AuthOptions) withDefaults() AuthOptions {
	var out AuthOptions
	if o != nil {
		out = *o
	}
	if out.HeaderKey == "" {
		out.HeaderKey = "Authorization"
	}
	if out.QueryKey == "" {
		out.QueryKey = "token"
	}
	if out.UserIDKey == "" {
		out.UserIDKey = ContextUserIDKey
	}
	if out.TokenKey == "" {
		out.TokenKey = ContextTokenKey
	}
	return out
}

func abort(c *gin.Context, status, code int, msg string) {
	c.Header("Content-Type", "application/json")
	c.AbortWithStatusJSON(status, response.Error(code, msg))
}

/*
	GinAuthMiddleware Gin 鉴权中间件：

- 优先从 Authorization: Bearer <token> 读取
- 如果没有，再从 query 参数读取（默认 token=xxx）
- 校验 token -> userID（Redis）成功后，写入 gin.Context

使用：router.Use(middleware.GinAuthMiddleware(authService, nil))
*/
func GinAuthMiddleware(auth *service.AuthService, opt *AuthOptions) gin.HandlerFunc {
	cfg := opt.withDefaults()

	return func(c *gin.Context) {
		if auth == nil {
			abort(c, http.StatusInternalServerError, response.CodeInternalError, "auth service is nil")
			return
		}

		// 1) header bearer
		token := ""
		if ah := strings.TrimSpace(c.GetHeader(cfg.HeaderKey)); ah != "" {
			parts := strings.SplitN(ah, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				token = strings.TrimSpace(parts[1])
			}
		}

		// 2) query fallback
		if token == "" {
			token = strings.TrimSpace(c.Query(cfg.QueryKey))
		}

		if token == "" {
			abort(c, http.StatusUnauthorized, response.CodeTokenInvalid, "missing token")
			return
		}

		uid, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrTokenNotFound) || errors.Is(err, service.ErrMissingToken) {
				abort(c, http.StatusUnauthorized, response.CodeTokenInvalid, "token invalid or expired")
				return
			}
			abort(c, http.StatusInternalServerError, response.CodeInternalError, err.Error())
			return
		}

		c.Set(cfg.UserIDKey, uid)
		c.Set(cfg.TokenKey, token)
		c.Next()
	}
}

// RequireAdmin 只放行管理员。必须挂在 GinAuthMiddleware 之后。
func RequireAdmin(policy service.AuthorizationPolicy, opt *AuthOptions) gin.HandlerFunc {
	cfg := opt.withDefaults()

	return func(c *gin.Context) {
		uid := c.GetUint64(cfg.UserIDKey)
		if uid == 0 {
			abort(c, http.StatusUnauthorized, response.CodeTokenInvalid, "user_id not found")
			return
		}
		if policy == nil || !policy.IsAdmin(c.Request.Context(), uid) {
			abort(c, http.StatusForbidden, response.CodePermissionDeny, "admin only")
			return
		}
		c.Next()
	}
}

// RequestTimeout 给请求上下文加超时，d<=0 时不做处理
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
