package notify_sdk

import (
	"io"
	"log/slog"
	"sync"

	"github.com/cydxin/notify-sdk/middleware"
	"github.com/cydxin/notify-sdk/service"
	"github.com/gin-gonic/gin"
)

type NotifyEngine struct {
	config *Config
	logger *slog.Logger

	RecipientService *service.RecipientService
	MsgService       *service.MessageService
	Dispatcher       *service.Dispatcher
	InboxService     *service.InboxService
	BroadcastService *service.BroadcastService
	AuthService      *service.AuthService // 鉴权服务
	Policy           service.AuthorizationPolicy
}

var (
	Instance *NotifyEngine
	once     sync.Once
)

// NewEngine 创建全局实例（单例），之后的调用直接返回第一次创建的实例。
// 使用选项模式传入配置，Option回调
func NewEngine(opts ...Option) *NotifyEngine {
	once.Do(func() {
		Instance = New(opts...)
	})
	return Instance
}

// New 创建独立实例，测试或多租户场景用
func New(opts ...Option) *NotifyEngine {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Service.Debug {
		logger = logger.With("debug", true)
	}

	policy := c.Policy
	if policy == nil {
		policy = service.NewStaticAdminPolicy(c.AdminIDs...)
	}

	var mailer service.Mailer
	if c.Mailer != nil {
		mailer = service.NewBreakerMailer(c.Mailer, c.MailBreaker, logger)
	}

	ordering := service.BroadcastOrdering{EmergencyOverridesReadState: c.EmergencyOverridesReadState}

	// 初始化基础 Service
	baseService := &service.Service{
		DB:                c.DB,
		RDB:               c.RDB,
		Logger:            logger,
		Mailer:            mailer,
		Policy:            policy,
		Publisher:         c.Publisher,
		MailFrom:          c.MailFrom,
		SenderLabel:       c.SenderLabel,
		BroadcastOrdering: &ordering,
	}

	e := &NotifyEngine{
		config:           c,
		logger:           logger,
		RecipientService: service.NewRecipientService(baseService),
		MsgService:       service.NewMessageService(baseService),
		Dispatcher:       service.NewDispatcher(baseService),
		InboxService:     service.NewInboxService(baseService),
		BroadcastService: service.NewBroadcastService(baseService),
		AuthService:      service.NewAuthService(c.RDB, policy),
		Policy:           policy,
	}

	// 迁移表
	if c.DB != nil && !c.SkipAutoMigrate {
		if err := e.AutoMigrate(); err != nil {
			logger.Error("AutoMigrate failed", "error", err)
		}
	}
	return e
}

// NewComposer 为某个管理员创建一份撰写草稿
func (c *NotifyEngine) NewComposer(authorID uint64) *service.Composer {
	return service.NewComposer(c.MsgService, authorID)
}

// Close 释放事件发布器等外部资源
func (c *NotifyEngine) Close() error {
	if c.config.Publisher != nil {
		return c.config.Publisher.Close()
	}
	return nil
}

/*
*	提供的HTTP接口在 RegisterRoutes 里，也可以直接自己写controller然后调用service
 */

// GinAuthMiddleware 返回配置好的 Gin 鉴权中间件
// 使用 NotifyEngine 内部的 AuthService 和 Redis 配置
//
// 使用示例:
//
//	engine := notify_sdk.NewEngine(...)
//	r := gin.Default()
//	r.Use(engine.GinAuthMiddleware(nil)) // 使用默认配置
//	// 或自定义配置
//	r.Use(engine.GinAuthMiddleware(&middleware.AuthOptions{
//	    HeaderKey: "X-Token",
//	    QueryKey: "access_token",
//	}))
func (c *NotifyEngine) GinAuthMiddleware(opt *middleware.AuthOptions) gin.HandlerFunc {
	return middleware.GinAuthMiddleware(c.AuthService, opt)
}

// RequireAdmin 只放行管理员，需放在 GinAuthMiddleware 之后
func (c *NotifyEngine) RequireAdmin() gin.HandlerFunc {
	return middleware.RequireAdmin(c.Policy, nil)
}
