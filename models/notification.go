package models

import (
	"encoding/json"
	"time"

	"github.com/cydxin/notify-sdk/cons"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InboxEntry 站内信投递表（每个收件人一条）
// 内容字段创建后不再修改；只允许改 已读/归档 两组字段。归档是软删除，没有物理删除。
type InboxEntry struct {
	ID              uint64  `gorm:"primarykey"`
	RecipientUserID uint64  `gorm:"index:idx_inbox_user_created,priority:1;not null"`
	MessageID       *uint64 `gorm:"index"` // 系统自动通知没有 message
	SenderLabel     string  `gorm:"size:100"`
	MessageType     string  `gorm:"size:32;not null;default:notification"`
	Subject         string  `gorm:"size:255;not null"`
	Content         string  `gorm:"type:text;not null"`
	Priority        string  `gorm:"size:16;not null;default:medium"`
	PriorityRank    int     `gorm:"default:0;index"`

	IsRead     bool `gorm:"default:false;index"`
	ReadAt     *time.Time
	IsArchived bool `gorm:"default:false;index"`
	ArchivedAt *time.Time

	Metadata  datatypes.JSON `gorm:"type:json"` // 例如照片被拒的原因
	CreatedAt time.Time      `gorm:"index:idx_inbox_user_created,priority:2"`
}

func (InboxEntry) TableName() string { return prefix + "inbox_entry" }

// BeforeCreate 根据 priority 算出排序权重
func (e *InboxEntry) BeforeCreate(tx *gorm.DB) error {
	e.PriorityRank = cons.PriorityRank(e.Priority)
	return nil
}

// MetadataMap 解出 metadata，空时返回 nil
func (e *InboxEntry) MetadataMap() map[string]any {
	if len(e.Metadata) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(e.Metadata, &m); err != nil {
		return nil
	}
	return m
}
