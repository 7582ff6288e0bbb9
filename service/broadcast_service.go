package service

import (
	"context"
	"slices"

	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/repository"
	"gorm.io/gorm"
)

// BroadcastService 业主公告的读取端
type BroadcastService struct {
	*Service
}

func NewBroadcastService(s *Service) *BroadcastService {
	return &BroadcastService{Service: s}
}

// ListBroadcasts 返回用户可见的公告（排序见 BroadcastOrdering），
// Read 字段是打开前的状态；返回前把未读的全部标记为已读。
func (s *BroadcastService) ListBroadcasts(ctx context.Context, userID uint64) ([]models.BroadcastEntry, error) {
	if userID == 0 {
		return nil, newValidationError("user_id", "user_id is required")
	}
	dao := repository.NewBroadcastDAO(s.DB.WithContext(ctx))
	entries, err := dao.ListVisible(userID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, s.broadcastOrdering().Compare)

	var targeted, wide []uint64
	for _, e := range entries {
		if e.Read {
			continue
		}
		if e.Broadcast {
			wide = append(wide, e.ID)
		} else {
			targeted = append(targeted, e.ID)
		}
	}
	if len(targeted) == 0 && len(wide) == 0 {
		return entries, nil
	}

	now := s.now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txDAO := dao.WithDB(tx)
		if _, err := txDAO.MarkTargetedRead(userID, targeted); err != nil {
			return err
		}
		return txDAO.Ack(userID, wide, now)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UnreadCount 未读公告数
func (s *BroadcastService) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	return repository.NewBroadcastDAO(s.DB.WithContext(ctx)).CountUnread(userID)
}
