package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InboxService 住户站内信：列表、打开即已读、标记已读、归档，以及系统自动通知
type InboxService struct {
	*Service
}

func NewInboxService(s *Service) *InboxService {
	return &InboxService{Service: s}
}

func (s *InboxService) dao(ctx context.Context) *repository.InboxDAO {
	return repository.NewInboxDAO(s.DB.WithContext(ctx))
}

// List 收件箱（不含归档），按 未读>优先级>时间 排序。每次都是新查询，没有游标。
func (s *InboxService) List(ctx context.Context, userID uint64, filter string) ([]models.InboxEntry, error) {
	if userID == 0 {
		return nil, newValidationError("user_id", "user_id is required")
	}
	switch filter {
	case "":
		filter = cons.InboxFilterAll
	case cons.InboxFilterAll, cons.InboxFilterUnread, cons.InboxFilterRead:
	default:
		return nil, newValidationError("filter", "filter must be all, unread or read")
	}
	entries, err := s.dao(ctx).ListByRecipient(userID, filter, false)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, CompareInboxEntries)
	return entries, nil
}

// ListArchived 归档箱
func (s *InboxService) ListArchived(ctx context.Context, userID uint64) ([]models.InboxEntry, error) {
	entries, err := s.dao(ctx).ListByRecipient(userID, cons.InboxFilterAll, true)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, CompareInboxEntries)
	return entries, nil
}

// owned 取一条并校验归属
func (s *InboxService) owned(ctx context.Context, userID, id uint64, action string) (*models.InboxEntry, error) {
	e, err := s.dao(ctx).FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("inbox entry %d: %w", id, ErrEntryNotFound)
		}
		return nil, err
	}
	if e.RecipientUserID != userID {
		return nil, &AuthorizationError{UserID: userID, Action: action}
	}
	return e, nil
}

// Open 打开即已读
func (s *InboxService) Open(ctx context.Context, userID, id uint64) (*models.InboxEntry, error) {
	return s.MarkRead(ctx, userID, id)
}

// MarkRead 幂等：已读的再标记直接返回当前状态，read_at 保持第一次的时间
func (s *InboxService) MarkRead(ctx context.Context, userID, id uint64) (*models.InboxEntry, error) {
	e, err := s.owned(ctx, userID, id, "read")
	if err != nil {
		return nil, err
	}
	if e.IsRead {
		return e, nil
	}
	if _, err := s.dao(ctx).MarkRead(userID, id, s.now()); err != nil {
		return nil, err
	}
	// 并发下可能别的请求先写了 read_at，以库里为准
	return s.dao(ctx).FindByID(id)
}

// MarkAllRead 全部已读，返回本次变为已读的条数
func (s *InboxService) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	return s.dao(ctx).MarkAllRead(userID, s.now())
}

// Archive 软删除，只有本人可以归档
func (s *InboxService) Archive(ctx context.Context, userID, id uint64) (*models.InboxEntry, error) {
	e, err := s.owned(ctx, userID, id, "archive")
	if err != nil {
		return nil, err
	}
	if e.IsArchived {
		return e, nil
	}
	if _, err := s.dao(ctx).Archive(userID, id, s.now()); err != nil {
		return nil, err
	}
	return s.dao(ctx).FindByID(id)
}

// UnreadCount 收件箱未读数
func (s *InboxService) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	return s.dao(ctx).CountUnread(userID)
}

// SendSystemNotice 系统自动通知（不经过撰写流程，没有 message_id）
func (s *InboxService) SendSystemNotice(ctx context.Context, n message.SystemNotice) (*models.InboxEntry, error) {
	if n.UserID == 0 {
		return nil, newValidationError("user_id", "user_id is required")
	}
	n.Subject = strings.TrimSpace(n.Subject)
	if n.Subject == "" {
		return nil, newValidationError("subject", "subject is required")
	}
	if strings.TrimSpace(n.Content) == "" {
		return nil, newValidationError("content", "content is required")
	}
	if n.Priority == "" {
		n.Priority = cons.PriorityMedium
	}
	if !cons.ValidPriority(n.Priority) {
		return nil, newValidationError("priority", "invalid priority")
	}
	if n.MessageType == "" {
		n.MessageType = cons.MessageTypeGeneral
	}
	if !cons.ValidMessageType(n.MessageType) {
		return nil, newValidationError("message_type", "invalid message_type")
	}
	if n.SenderLabel == "" {
		n.SenderLabel = s.senderLabel()
	}

	var meta datatypes.JSON
	if len(n.Metadata) > 0 {
		b, err := json.Marshal(n.Metadata)
		if err != nil {
			return nil, err
		}
		meta = b
	}

	e := &models.InboxEntry{
		RecipientUserID: n.UserID,
		SenderLabel:     n.SenderLabel,
		MessageType:     n.MessageType,
		Subject:         n.Subject,
		Content:         n.Content,
		Priority:        n.Priority,
		Metadata:        meta,
		CreatedAt:       s.now(),
	}
	if err := s.dao(ctx).Create(e); err != nil {
		return nil, err
	}
	s.log().Info("system notice sent", "user_id", n.UserID, "type", n.MessageType, "entry_id", e.ID)
	return e, nil
}

// NotifyPhotoRejected 照片审核未通过，原因放进 metadata
func (s *InboxService) NotifyPhotoRejected(ctx context.Context, userID uint64, photoTitle, reason string) (*models.InboxEntry, error) {
	content := fmt.Sprintf("Your photo %q was not approved.", photoTitle)
	if reason = strings.TrimSpace(reason); reason != "" {
		content += "\nReason: " + reason
	}
	return s.SendSystemNotice(ctx, message.SystemNotice{
		UserID:      userID,
		MessageType: cons.MessageTypePhotoRejection,
		Subject:     "Photo not approved",
		Content:     content,
		Priority:    cons.PriorityMedium,
		Metadata:    map[string]any{"photo_title": photoTitle, "reason": reason},
	})
}

// NotifyPhotoApproved 照片审核通过
func (s *InboxService) NotifyPhotoApproved(ctx context.Context, userID uint64, photoTitle string) (*models.InboxEntry, error) {
	return s.SendSystemNotice(ctx, message.SystemNotice{
		UserID:      userID,
		MessageType: cons.MessageTypePhotoApproval,
		Subject:     "Photo approved",
		Content:     fmt.Sprintf("Your photo %q is now visible in the gallery.", photoTitle),
		Priority:    cons.PriorityLow,
		Metadata:    map[string]any{"photo_title": photoTitle},
	})
}
