package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// 授权动作
const (
	ActionCompose = "compose"
	ObjectMessage = "message"
	RoleAdmin     = "role:admin"
)

// AuthorizationPolicy 管理员判定。身份由外部认证服务提供，这里只回答 "是不是管理员"。
type AuthorizationPolicy interface {
	IsAdmin(ctx context.Context, userID uint64) bool
}

// StaticAdminPolicy 固定的管理员 id 集合（来自配置）
type StaticAdminPolicy struct {
	mu  sync.RWMutex
	ids map[uint64]struct{}
}

func NewStaticAdminPolicy(ids ...uint64) *StaticAdminPolicy {
	p := &StaticAdminPolicy{ids: make(map[uint64]struct{}, len(ids))}
	for _, id := range ids {
		p.Grant(id)
	}
	return p
}

func (p *StaticAdminPolicy) IsAdmin(_ context.Context, userID uint64) bool {
	if p == nil || userID == 0 {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.ids[userID]
	return ok
}

// Grant 运行时追加管理员
func (p *StaticAdminPolicy) Grant(userID uint64) {
	if userID == 0 {
		return
	}
	p.mu.Lock()
	p.ids[userID] = struct{}{}
	p.mu.Unlock()
}

// casbinRBACModel user:<id> -> role:admin -> (message, compose)
const casbinRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// CasbinPolicy 基于 casbin RBAC 的管理员判定
type CasbinPolicy struct {
	enforcer *casbin.Enforcer
	logger   *slog.Logger
}

// NewCasbinPolicy 内置模型 + 内存策略，adminIDs 直接授予 role:admin
func NewCasbinPolicy(logger *slog.Logger, adminIDs ...uint64) (*CasbinPolicy, error) {
	m, err := model.NewModelFromString(casbinRBACModel)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	if _, err := e.AddPolicy(RoleAdmin, ObjectMessage, ActionCompose); err != nil {
		return nil, err
	}
	p := &CasbinPolicy{enforcer: e, logger: logger}
	for _, id := range adminIDs {
		if err := p.GrantAdmin(id); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// NewCasbinPolicyFromFiles 从模型文件和策略文件加载（csv 策略）
func NewCasbinPolicyFromFiles(logger *slog.Logger, modelPath, policyPath string) (*CasbinPolicy, error) {
	e, err := casbin.NewEnforcer(modelPath, policyPath)
	if err != nil {
		return nil, fmt.Errorf("load casbin policy: %w", err)
	}
	return &CasbinPolicy{enforcer: e, logger: logger}, nil
}

func casbinSubject(userID uint64) string {
	return fmt.Sprintf("user:%d", userID)
}

// GrantAdmin 给用户加 role:admin
func (p *CasbinPolicy) GrantAdmin(userID uint64) error {
	if userID == 0 {
		return nil
	}
	_, err := p.enforcer.AddRoleForUser(casbinSubject(userID), RoleAdmin)
	return err
}

// RevokeAdmin 去掉 role:admin
func (p *CasbinPolicy) RevokeAdmin(userID uint64) error {
	_, err := p.enforcer.DeleteRoleForUser(casbinSubject(userID), RoleAdmin)
	return err
}

func (p *CasbinPolicy) IsAdmin(_ context.Context, userID uint64) bool {
	if p == nil || userID == 0 {
		return false
	}
	ok, err := p.enforcer.Enforce(casbinSubject(userID), ObjectMessage, ActionCompose)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("casbin enforce failed", "user_id", userID, "error", err)
		}
		return false
	}
	return ok
}

// denyAll 没有配置策略时的兜底：谁都不是管理员
type denyAll struct{}

func (denyAll) IsAdmin(context.Context, uint64) bool { return false }

func (s *Service) policy() AuthorizationPolicy {
	if s.Policy == nil {
		return denyAll{}
	}
	return s.Policy
}
