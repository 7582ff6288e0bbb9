package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/models"
)

// authorClock 每个管理员一条单调时钟：同一作者的消息时间不会倒退。
// 精度截到毫秒，和 MySQL datetime(3) 一致，落库后仍然单调。
type authorClock struct {
	mu   sync.Mutex
	last map[uint64]time.Time
	now  func() time.Time
}

func newAuthorClock(now func() time.Time) *authorClock {
	return &authorClock{last: make(map[uint64]time.Time), now: now}
}

func (c *authorClock) Next(authorID uint64) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().Truncate(time.Millisecond)
	if prev, ok := c.last[authorID]; ok && !t.After(prev) {
		t = prev.Add(time.Millisecond)
	}
	c.last[authorID] = t
	return t
}

// MessageService 管理员撰写并发送：鉴权 -> 校验 -> 圈人 -> 审计行 -> 派发
type MessageService struct {
	*Service
	recipients *RecipientService
	dispatcher *Dispatcher
	clock      *authorClock
}

func NewMessageService(s *Service) *MessageService {
	return &MessageService{
		Service:    s,
		recipients: NewRecipientService(s),
		dispatcher: NewDispatcher(s),
		clock:      newAuthorClock(s.now),
	}
}

// authorize 只问策略，不碰存储
func (s *MessageService) authorize(ctx context.Context, authorID uint64) error {
	if !s.policy().IsAdmin(ctx, authorID) {
		return &AuthorizationError{UserID: authorID, Action: ActionCompose}
	}
	return nil
}

// normalize 补默认值并做不需要存储的校验
func (s *MessageService) normalize(req *message.ComposeReq) error {
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		return newValidationError("subject", "subject is required")
	}
	if strings.TrimSpace(req.Body) == "" {
		return newValidationError("body", "body is required")
	}
	if req.Priority == "" {
		req.Priority = cons.PriorityMedium
	}
	if !cons.ValidPriority(req.Priority) {
		return newValidationError("priority", "priority must be low, medium, high or urgent")
	}
	if !req.SiteInbox && !req.Email {
		return newValidationError("channels", "select at least one channel")
	}
	switch req.InboxVariant {
	case "":
		req.InboxVariant = cons.InboxVariantSiteInbox
	case cons.InboxVariantSiteInbox, cons.InboxVariantBroadcast:
	default:
		return newValidationError("inbox_variant", "inbox_variant must be site_inbox or broadcast")
	}
	req.SenderLabel = strings.TrimSpace(req.SenderLabel)
	if req.SenderLabel == "" {
		req.SenderLabel = s.senderLabel()
	}
	return nil
}

func selectorOf(req *message.ComposeReq) RecipientSelector {
	return RecipientSelector{Building: req.Building, UserIDs: req.UserIDs}
}

// resolve 圈人，错误原样返回
func (s *MessageService) resolve(ctx context.Context, req *message.ComposeReq) ([]models.Recipient, error) {
	return s.recipients.ResolveRecipients(ctx, req.RecipientMode, selectorOf(req))
}

// send 写审计行，然后派发。审计行写失败时直接返回错误，不会有任何投递。
func (s *MessageService) send(ctx context.Context, authorID uint64, req *message.ComposeReq, recipients []models.Recipient) (*DispatchResult, error) {
	msg := &models.Message{
		AuthorID:         authorID,
		Subject:          req.Subject,
		Body:             req.Body,
		Priority:         req.Priority,
		ChannelSiteInbox: req.SiteInbox,
		ChannelEmail:     req.Email,
		InboxVariant:     req.InboxVariant,
		RecipientMode:    req.RecipientMode,
		SenderLabel:      req.SenderLabel,
		ResolvedCount:    len(recipients),
		SiteInboxStatus:  cons.DeliveryPending,
		EmailStatus:      cons.DeliveryPending,
		CreatedAt:        s.clock.Next(authorID),
	}
	switch req.RecipientMode {
	case cons.RecipientModeBuilding:
		b := strings.ToUpper(strings.TrimSpace(req.Building))
		msg.BuildingCode = &b
	case cons.RecipientModeIndividual:
		if err := msg.SetRecipientIDs(dedupeIDs(req.UserIDs)); err != nil {
			return nil, err
		}
	}
	if err := msg.CheckInvariants(); err != nil {
		return nil, newValidationError("message", err.Error())
	}
	if err := models.NewMessageDAO(s.DB.WithContext(ctx)).Create(msg); err != nil {
		return nil, fmt.Errorf("record message: %w", err)
	}

	res := s.dispatcher.Dispatch(ctx, msg, recipients)
	s.log().Info("message dispatched",
		"message_id", msg.ID, "author_id", authorID, "mode", msg.RecipientMode,
		"resolved", len(recipients), "accepted", res.AcceptedCount(),
		"site_inbox", res.SiteInbox.Status, "email", res.Email.Status)
	return res, res.Err()
}

// ComposeAndSend 一次完整的撰写发送。
// 部分失败时同时返回结果和 *DispatchError，调用方可以只重试失败的通道。
func (s *MessageService) ComposeAndSend(ctx context.Context, authorID uint64, req message.ComposeReq) (*DispatchResult, error) {
	if err := s.authorize(ctx, authorID); err != nil {
		return nil, err
	}
	if err := s.normalize(&req); err != nil {
		return nil, err
	}
	recipients, err := s.resolve(ctx, &req)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, authorID, &req, recipients)
}

// Preview 撰写页的收件人预览，同样只对管理员开放
func (s *MessageService) Preview(ctx context.Context, authorID uint64, req message.PreviewReq) (*RecipientPreview, error) {
	if err := s.authorize(ctx, authorID); err != nil {
		return nil, err
	}
	return s.recipients.Preview(ctx, req.RecipientMode, RecipientSelector{Building: req.Building, UserIDs: req.UserIDs})
}

// ListSent 审计列表：最近发送的消息（含投递状态）
func (s *MessageService) ListSent(ctx context.Context, callerID uint64, limit, offset int) ([]models.Message, error) {
	if err := s.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return models.NewMessageDAO(s.DB.WithContext(ctx)).ListRecent(limit, offset)
}
