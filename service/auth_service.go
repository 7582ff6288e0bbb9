package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"
)

// ErrMissingToken 请求没有带 token
var ErrMissingToken = errors.New("missing token")

// AuthService 当前调用者身份 + 是否管理员。
// 认证本身在外部完成，这里只解析 token 并回答授权策略。
type AuthService struct {
	tokens *TokenService
	policy AuthorizationPolicy
}

func NewAuthService(rdb *redis.Client, policy AuthorizationPolicy) *AuthService {
	if policy == nil {
		policy = denyAll{}
	}
	return &AuthService{tokens: NewTokenService(rdb), policy: policy}
}

// Tokens 底层 token 存储
func (a *AuthService) Tokens() *TokenService { return a.tokens }

// ExtractToken 优先 Authorization: Bearer，其次 query: token
func (a *AuthService) ExtractToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	if ah := strings.TrimSpace(r.Header.Get("Authorization")); ah != "" {
		parts := strings.SplitN(ah, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if r.URL == nil {
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// Authenticate token -> user_id
func (a *AuthService) Authenticate(ctx context.Context, token string) (uint64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrMissingToken
	}
	return a.tokens.Resolve(ctx, token)
}

// CurrentUser 从请求解析当前住户
func (a *AuthService) CurrentUser(r *http.Request) (uint64, error) {
	return a.Authenticate(r.Context(), a.ExtractToken(r))
}

// IsAdmin 委托给授权策略
func (a *AuthService) IsAdmin(ctx context.Context, userID uint64) bool {
	return a.policy.IsAdmin(ctx, userID)
}
