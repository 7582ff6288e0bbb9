package models

import (
	"time"
)

// BroadcastEntry 业主公告（比站内信轻量的公告通道）
// - broadcast=true：对所有住户可见，recipient_id 为空；每个住户的已读记在 BroadcastAck
// - broadcast=false：定向投递给 recipient_id，已读直接记在 read 上
type BroadcastEntry struct {
	ID          uint64    `gorm:"primarykey"`
	MessageID   *uint64   `gorm:"index"`
	RecipientID *uint64   `gorm:"index"`
	Broadcast   bool      `gorm:"default:false;index"`
	Type        string    `gorm:"size:16;not null;default:info"` // emergency / notice / info
	Title       string    `gorm:"size:255;not null"`
	Body        string    `gorm:"type:text;not null"`
	SentAt      time.Time `gorm:"index"`
	Read        bool      `gorm:"default:false"`
}

func (BroadcastEntry) TableName() string { return prefix + "broadcast_entry" }

// VisibleTo broadcast 行所有人可见，否则只有 recipient 本人可见
func (b *BroadcastEntry) VisibleTo(userID uint64) bool {
	if b.Broadcast {
		return true
	}
	return b.RecipientID != nil && *b.RecipientID == userID
}

// BroadcastAck 全员公告的个人已读回执，(entry_id, user_id) 唯一，用于幂等
type BroadcastAck struct {
	ID      uint64    `gorm:"primarykey"`
	EntryID uint64    `gorm:"not null;uniqueIndex:idx_ack_entry_user"`
	UserID  uint64    `gorm:"not null;uniqueIndex:idx_ack_entry_user;index"`
	ReadAt  time.Time `gorm:"not null"`
}

func (BroadcastAck) TableName() string { return prefix + "broadcast_ack" }
