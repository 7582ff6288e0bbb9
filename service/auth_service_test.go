package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestAuthService_ExtractToken_BearerFirst(t *testing.T) {
	a := NewAuthService(nil, nil)

	req := &http.Request{Header: make(http.Header), URL: &url.URL{RawQuery: "token=q"}}
	req.Header.Set("Authorization", "Bearer headerToken")

	if got := a.ExtractToken(req); got != "headerToken" {
		t.Fatalf("expected headerToken, got %q", got)
	}
}

func TestAuthService_ExtractToken_QueryFallback(t *testing.T) {
	a := NewAuthService(nil, nil)

	u, _ := url.Parse("http://example.com/api/v1/inbox/list?token=queryToken")
	req := &http.Request{Header: make(http.Header), URL: u}

	if got := a.ExtractToken(req); got != "queryToken" {
		t.Fatalf("expected queryToken, got %q", got)
	}
}

func TestAuthService_AuthenticateAndRevoke(t *testing.T) {
	rdb, mr := newTestRedis(t)
	ctx := context.Background()
	a := NewAuthService(rdb, NewStaticAdminPolicy(1))

	token, err := a.Tokens().Issue(ctx, 42, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !mr.Exists("pn:token:" + token) {
		t.Fatalf("token key not stored")
	}

	uid, err := a.Authenticate(ctx, token)
	if err != nil || uid != 42 {
		t.Fatalf("Authenticate = %d, %v", uid, err)
	}
	if a.IsAdmin(ctx, 42) {
		t.Fatal("42 is not an admin")
	}
	if !a.IsAdmin(ctx, 1) {
		t.Fatal("1 should be an admin")
	}

	if _, err := a.Authenticate(ctx, "  "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}

	if err := a.Tokens().Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := a.Authenticate(ctx, token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound after revoke, got %v", err)
	}
}

func TestTokenService_RevokeAllAndExpiry(t *testing.T) {
	rdb, mr := newTestRedis(t)
	ctx := context.Background()
	ts := NewTokenService(rdb)

	t1, _ := ts.Issue(ctx, 7, time.Minute)
	t2, _ := ts.Issue(ctx, 7, time.Hour)

	mr.FastForward(2 * time.Minute)
	if _, err := ts.Resolve(ctx, t1); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("t1 should be expired, got %v", err)
	}
	if uid, err := ts.Resolve(ctx, t2); err != nil || uid != 7 {
		t.Fatalf("t2 Resolve = %d, %v", uid, err)
	}

	if err := ts.RevokeAll(ctx, 7); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	if _, err := ts.Resolve(ctx, t2); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("t2 should be revoked, got %v", err)
	}
	if mr.Exists("pn:user_tokens:7") {
		t.Fatal("user token set should be removed")
	}
}

func TestTokenService_NilRedis(t *testing.T) {
	ts := NewTokenService(nil)
	if _, err := ts.Resolve(context.Background(), "x"); err == nil {
		t.Fatal("expected error with nil redis")
	}
}
