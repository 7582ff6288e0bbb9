package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	prefix = "pn_"
)

// Recipient 住户（收件人）快照。身份由外部认证服务提供，这里只存投递需要的字段。
type Recipient struct {
	UserID                    uint64 `gorm:"primarykey;autoIncrement:false"`
	UnitNumber                string `gorm:"size:16;index;not null"` // 房号：楼栋字母 + 单元，如 B2G
	DisplayName               string `gorm:"size:100"`
	Email                     string `gorm:"size:100;index"`
	// 不设 default：false 必须原样落库
	EmailNotificationsEnabled bool   `gorm:"not null"`
	DirectoryOptIn            bool   `gorm:"default:false;index"` // 是否出现在住户通讯录
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

func (Recipient) TableName() string {
	return prefix + "recipient"
}

// Building 由房号推导出的楼栋
func (r *Recipient) Building() string {
	return BuildingOf(r.UnitNumber)
}

// ErrInvalidEmail 邮箱不是单个合法地址
var ErrInvalidEmail = errors.New("invalid email address")

// NormalizeEmail 解析邮箱，只返回裸地址（"Ada <a@x.org>" -> "a@x.org"）。
// 空串原样返回；带换行或解析失败的一律拒绝，这些内容会被拼进邮件头。
func NormalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if strings.ContainsAny(raw, "\r\n") {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	return addr.Address, nil
}

// EmailAddress 可投递的邮箱；没填或格式不对返回空串
func (r *Recipient) EmailAddress() string {
	addr, err := NormalizeEmail(r.Email)
	if err != nil {
		return ""
	}
	return addr
}

// EmailEligible 是否可以收邮件：邮箱合法且没有关闭邮件通知
func (r *Recipient) EmailEligible() bool {
	return r.EmailNotificationsEnabled && r.EmailAddress() != ""
}

// BuildingOf 房号首字母大写即楼栋（"b2g" -> "B"）。纯函数，圈人和展示都用它。
func BuildingOf(unit string) string {
	unit = strings.TrimSpace(unit)
	for _, c := range unit {
		return string(unicode.ToUpper(c))
	}
	return ""
}

// Message 管理员撰写的一条消息（审计行，只追加）
type Message struct {
	ID       uint64 `gorm:"primarykey"`
	UID      string `gorm:"size:36;uniqueIndex;not null"` // 对外消息 ID
	AuthorID uint64 `gorm:"index;not null"`
	Subject  string `gorm:"size:255;not null"`
	Body     string `gorm:"type:text;not null"`
	Priority string `gorm:"size:16;not null;default:medium"`

	ChannelSiteInbox bool   `gorm:"default:false"`
	ChannelEmail     bool   `gorm:"default:false"`
	InboxVariant     string `gorm:"size:16;default:site_inbox"` // site_inbox / broadcast

	RecipientMode        string         `gorm:"size:16;not null"`
	BuildingCode         *string        `gorm:"size:1"`                         // mode=building 时才有
	ExplicitRecipientIDs datatypes.JSON `gorm:"column:explicit_recipient_ids;type:json"` // mode=individual 时才有
	SenderLabel          string         `gorm:"size:100"`

	// 投递记录（fan-out 结束后回写）
	ResolvedCount   int    `gorm:"default:0"`
	InboxAccepted   int    `gorm:"default:0"`
	EmailAccepted   int    `gorm:"default:0"`
	SiteInboxStatus string `gorm:"size:16;default:pending"`
	EmailStatus     string `gorm:"size:16;default:pending"`
	LastError       string `gorm:"size:500"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (Message) TableName() string {
	return prefix + "message"
}

// BeforeCreate 自动生成 UID
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.UID == "" {
		m.UID = uuid.New().String()
	}
	return nil
}

// RecipientIDs 解析 explicit_recipient_ids
func (m *Message) RecipientIDs() ([]uint64, error) {
	if len(m.ExplicitRecipientIDs) == 0 {
		return nil, nil
	}
	var ids []uint64
	if err := json.Unmarshal(m.ExplicitRecipientIDs, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetRecipientIDs 写入 explicit_recipient_ids
func (m *Message) SetRecipientIDs(ids []uint64) error {
	if len(ids) == 0 {
		m.ExplicitRecipientIDs = nil
		return nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	m.ExplicitRecipientIDs = b
	return nil
}

var (
	ErrNoChannel       = errors.New("at least one channel is required")
	ErrInvalidPriority = errors.New("invalid priority")
)

// CheckInvariants 校验 mode 与 building/explicit ids 的一致性，以及至少一个通道。
func (m *Message) CheckInvariants() error {
	if !m.ChannelSiteInbox && !m.ChannelEmail {
		return ErrNoChannel
	}
	if !cons.ValidPriority(m.Priority) {
		return ErrInvalidPriority
	}
	hasBuilding := m.BuildingCode != nil && *m.BuildingCode != ""
	hasIDs := len(m.ExplicitRecipientIDs) > 0
	switch m.RecipientMode {
	case cons.RecipientModeAll:
		if hasBuilding || hasIDs {
			return fmt.Errorf("mode %s carries a selector", m.RecipientMode)
		}
	case cons.RecipientModeBuilding:
		if !hasBuilding || hasIDs {
			return fmt.Errorf("mode %s requires building_code only", m.RecipientMode)
		}
	case cons.RecipientModeIndividual:
		if hasBuilding || !hasIDs {
			return fmt.Errorf("mode %s requires explicit_recipient_ids only", m.RecipientMode)
		}
	default:
		return fmt.Errorf("unknown recipient mode %q", m.RecipientMode)
	}
	return nil
}
