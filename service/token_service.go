package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultTokenTTL 身份服务签发的 token 默认有效期
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrTokenNotFound token 不存在或已过期
var ErrTokenNotFound = errors.New("token not found or expired")

// TokenService 身份边界：token -> 住户 user_id。
// token 由外部认证服务签发写入 redis，这里只负责查询；Issue 只给开发命令行用。
// Redis Key：
// - pn:token:{token} -> userID (String, TTL)
// - pn:user_tokens:{userID} -> Set(token...)，用于全端注销
type TokenService struct {
	rdb *redis.Client
}

func NewTokenService(rdb *redis.Client) *TokenService {
	return &TokenService{rdb: rdb}
}

func (s *TokenService) ensure() error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	return nil
}

func tokenKey(token string) string { return "pn:token:" + token }

func userTokensKey(userID uint64) string { return fmt.Sprintf("pn:user_tokens:%d", userID) }

// Issue 生成并保存一个 token
func (s *TokenService) Issue(ctx context.Context, userID uint64, ttl time.Duration) (string, error) {
	if err := s.ensure(); err != nil {
		return "", err
	}
	if userID == 0 {
		return "", errors.New("user_id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, tokenKey(token), strconv.FormatUint(userID, 10), ttl)
	pipe.SAdd(ctx, userTokensKey(userID), token)
	pipe.Expire(ctx, userTokensKey(userID), ttl+24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve token -> userID
func (s *TokenService) Resolve(ctx context.Context, token string) (uint64, error) {
	if err := s.ensure(); err != nil {
		return 0, err
	}
	val, err := s.rdb.Get(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrTokenNotFound
		}
		return 0, err
	}
	return strconv.ParseUint(val, 10, 64)
}

// Revoke 注销单个 token
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	if err := s.ensure(); err != nil {
		return err
	}
	uid, err := s.Resolve(ctx, token)
	if err != nil && !errors.Is(err, ErrTokenNotFound) {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, tokenKey(token))
	if uid != 0 {
		pipe.SRem(ctx, userTokensKey(uid), token)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// RevokeAll 注销住户的全部 token（例如住户搬离）
func (s *TokenService) RevokeAll(ctx context.Context, userID uint64) error {
	if err := s.ensure(); err != nil {
		return err
	}
	tokens, err := s.rdb.SMembers(ctx, userTokensKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	pipe := s.rdb.TxPipeline()
	for _, t := range tokens {
		pipe.Del(ctx, tokenKey(t))
	}
	pipe.Del(ctx, userTokensKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}
