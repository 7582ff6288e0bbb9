package service

import (
	"io"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// DefaultSenderLabel 站内信/邮件里展示的默认发件人
const DefaultSenderLabel = "Management"

// Service 基础服务，包含数据库、外部依赖和配置。
// 各业务 service 通过嵌入 *Service 共享这些依赖，由 engine 统一注入。
type Service struct {
	DB  *gorm.DB
	RDB *redis.Client

	// Logger 结构化日志；为空时丢弃
	Logger *slog.Logger

	// Mailer 邮件通道的传输层（Gmail / 日志 / 熔断包装）
	Mailer Mailer

	// Policy 判断调用者是否是管理员
	Policy AuthorizationPolicy

	// Publisher 投递完成后的事件（尽力而为）
	Publisher EventPublisher

	// MailFrom 发件地址
	MailFrom string
	// SenderLabel 发件人展示名
	SenderLabel string

	// BroadcastOrdering 业主公告的排序策略；为空时用 DefaultBroadcastOrdering
	BroadcastOrdering *BroadcastOrdering

	// Clock 可注入时钟，测试用
	Clock func() time.Time
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (s *Service) log() *slog.Logger {
	if s == nil || s.Logger == nil {
		return discardLogger
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s != nil && s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Service) senderLabel() string {
	if s.SenderLabel == "" {
		return DefaultSenderLabel
	}
	return s.SenderLabel
}

func (s *Service) publisher() EventPublisher {
	if s.Publisher == nil {
		return NoopPublisher{}
	}
	return s.Publisher
}

func (s *Service) broadcastOrdering() BroadcastOrdering {
	if s.BroadcastOrdering == nil {
		return DefaultBroadcastOrdering
	}
	return *s.BroadcastOrdering
}
