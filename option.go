package notify_sdk

import (
	"log/slog"
	"time"

	"github.com/cydxin/notify-sdk/service"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type ServiceConfig struct {
	Debug bool
	// RequestTimeout 每个 HTTP 请求的上下文超时，0 表示不限
	RequestTimeout time.Duration
}

type Config struct {
	DB      *gorm.DB
	RDB     *redis.Client
	Logger  *slog.Logger
	Service ServiceConfig

	// Mailer 邮件传输层；为空时邮件通道直接失败（ErrMailerNotConfigured）
	Mailer service.Mailer
	// MailBreaker 邮件熔断参数；Mailer 非空时总会包一层熔断
	MailBreaker service.BreakerConfig
	MailFrom    string
	SenderLabel string

	// Policy 管理员判定；为空时使用 AdminIDs 构造的静态策略
	Policy   service.AuthorizationPolicy
	AdminIDs []uint64

	Publisher service.EventPublisher

	// EmergencyOverridesReadState 紧急公告是否无视已读状态置顶，默认 true
	EmergencyOverridesReadState bool

	// SkipAutoMigrate 为 true 时 New 不建表
	SkipAutoMigrate bool
}

type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		MailBreaker:                 service.DefaultBreakerConfig,
		SenderLabel:                 service.DefaultSenderLabel,
		EmergencyOverridesReadState: true,
	}
}

func WithDB(db *gorm.DB) Option {
	return func(c *Config) {
		c.DB = db
	}
}

func WithRDB(RDB *redis.Client) Option {
	return func(c *Config) {
		c.RDB = RDB
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func WithServiceDebug(debug bool) Option {
	return func(c *Config) {
		c.Service.Debug = debug
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Service.RequestTimeout = d
	}
}

// WithMailer 设置邮件传输层（GmailMailer / LogMailer / 自定义）
func WithMailer(m service.Mailer) Option {
	return func(c *Config) {
		c.Mailer = m
	}
}

func WithMailBreaker(cfg service.BreakerConfig) Option {
	return func(c *Config) {
		c.MailBreaker = cfg
	}
}

func WithMailFrom(from string) Option {
	return func(c *Config) {
		c.MailFrom = from
	}
}

func WithSenderLabel(label string) Option {
	return func(c *Config) {
		c.SenderLabel = label
	}
}

// WithAuthorizationPolicy 自定义管理员判定（例如 service.CasbinPolicy）
func WithAuthorizationPolicy(p service.AuthorizationPolicy) Option {
	return func(c *Config) {
		c.Policy = p
	}
}

// WithAdminIDs 未设置 Policy 时的静态管理员列表
func WithAdminIDs(ids ...uint64) Option {
	return func(c *Config) {
		c.AdminIDs = append(c.AdminIDs, ids...)
	}
}

func WithEventPublisher(p service.EventPublisher) Option {
	return func(c *Config) {
		c.Publisher = p
	}
}

func WithEmergencyOverridesReadState(v bool) Option {
	return func(c *Config) {
		c.EmergencyOverridesReadState = v
	}
}

func WithSkipAutoMigrate(skip bool) Option {
	return func(c *Config) {
		c.SkipAutoMigrate = skip
	}
}
