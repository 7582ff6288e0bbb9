package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/models"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange 投递事件的 topic exchange
const DefaultExchange = "notify.events"

// EventPublisher 投递事件的出口。发布失败只记日志，不影响投递结果。
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// RabbitMQPublisher 发布到 RabbitMQ topic exchange
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
	mu       sync.Mutex
}

func NewRabbitMQPublisher(url, exchange string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	logger.Info("rabbitmq publisher connected", "exchange", exchange)
	return &RabbitMQPublisher{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
	if err != nil {
		p.logger.Error("publish event failed", "routing_key", routingKey, "error", err)
		return err
	}
	p.logger.Debug("event published", "routing_key", routingKey, "size", len(payload))
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("close channel", "error", err)
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher 不发布，开发/测试用
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }

// publishDispatched 尽力发布 message.dispatched
func (s *Service) publishDispatched(ctx context.Context, res *DispatchResult, msg *models.Message) {
	evt := message.DispatchedEvent{
		EventID:       uuid.NewString(),
		Version:       message.DispatchedEventVersion,
		MessageID:     res.MessageID,
		MessageUID:    msg.UID,
		AuthorID:      msg.AuthorID,
		Priority:      msg.Priority,
		RecipientMode: msg.RecipientMode,
		Resolved:      msg.ResolvedCount,
		OccurredAt:    s.now(),
	}
	for _, o := range []ChannelOutcome{res.SiteInbox, res.Email} {
		if o.Channel == "" {
			continue
		}
		lo := message.LegOutcome{Channel: o.Channel, Status: o.Status, Accepted: o.Accepted}
		if o.Err != nil {
			lo.Error = o.Err.Error()
		}
		evt.Legs = append(evt.Legs, lo)
	}
	b, err := json.Marshal(evt)
	if err != nil {
		s.log().Warn("marshal dispatched event", "message_id", res.MessageID, "error", err)
		return
	}
	if err := s.publisher().Publish(ctx, cons.EventMessageDispatched, b); err != nil {
		s.log().Warn("publish dispatched event", "message_id", res.MessageID, "error", err)
	}
}
