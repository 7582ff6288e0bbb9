package service

import (
	"cmp"
	"context"
	"time"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/repository"
	"gorm.io/gorm"
)

// NotificationChannel 站内投递通道。
// 站内信和业主公告共用一套圈人/派发流程，只在落库形态和排序上不同。
type NotificationChannel interface {
	Kind() string
	// Deliver 在 tx 中为 recipients 写入投递行，返回写入的行数
	Deliver(ctx context.Context, tx *gorm.DB, msg *models.Message, recipients []models.Recipient, at time.Time) (int, error)
}

// SiteInboxChannel 每个收件人一条 InboxEntry
type SiteInboxChannel struct{}

func (SiteInboxChannel) Kind() string { return cons.ChannelSiteInbox }

func (SiteInboxChannel) Deliver(ctx context.Context, tx *gorm.DB, msg *models.Message, recipients []models.Recipient, at time.Time) (int, error) {
	msgID := msg.ID
	msgType := cons.InboxTypeForPriority(msg.Priority)
	entries := make([]models.InboxEntry, 0, len(recipients))
	for _, r := range recipients {
		entries = append(entries, models.InboxEntry{
			RecipientUserID: r.UserID,
			MessageID:       &msgID,
			SenderLabel:     msg.SenderLabel,
			MessageType:     msgType,
			Subject:         msg.Subject,
			Content:         msg.Body,
			Priority:        msg.Priority,
			IsRead:          false,
			CreatedAt:       at,
		})
	}
	if err := repository.NewInboxDAO(tx.WithContext(ctx)).CreateBatch(entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// BroadcastChannel 业主公告：全体住户写一条 broadcast 行，其余模式逐人写定向行
type BroadcastChannel struct{}

func (BroadcastChannel) Kind() string { return cons.ChannelBroadcast }

func (BroadcastChannel) Deliver(ctx context.Context, tx *gorm.DB, msg *models.Message, recipients []models.Recipient, at time.Time) (int, error) {
	msgID := msg.ID
	base := models.BroadcastEntry{
		MessageID: &msgID,
		Type:      cons.BroadcastTypeForPriority(msg.Priority),
		Title:     msg.Subject,
		Body:      msg.Body,
		SentAt:    at,
	}
	var rows []models.BroadcastEntry
	if msg.RecipientMode == cons.RecipientModeAll {
		row := base
		row.Broadcast = true
		rows = append(rows, row)
	} else {
		rows = make([]models.BroadcastEntry, 0, len(recipients))
		for _, r := range recipients {
			row := base
			uid := r.UserID
			row.RecipientID = &uid
			rows = append(rows, row)
		}
	}
	if err := repository.NewBroadcastDAO(tx.WithContext(ctx)).CreateBatch(rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// channelFor 按 inbox_variant 选择通道
func channelFor(variant string) NotificationChannel {
	if variant == cons.InboxVariantBroadcast {
		return BroadcastChannel{}
	}
	return SiteInboxChannel{}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CompareInboxEntries 站内信排序：未读在前，优先级高在前，新的在前，id 大的在前
func CompareInboxEntries(a, b models.InboxEntry) int {
	if c := cmp.Compare(boolRank(a.IsRead), boolRank(b.IsRead)); c != 0 {
		return c
	}
	if c := cmp.Compare(cons.PriorityRank(b.Priority), cons.PriorityRank(a.Priority)); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// BroadcastOrdering 业主公告排序策略。
// EmergencyOverridesReadState=true 时紧急公告无论已读与否都置顶。
type BroadcastOrdering struct {
	EmergencyOverridesReadState bool
}

// DefaultBroadcastOrdering 默认紧急公告置顶
var DefaultBroadcastOrdering = BroadcastOrdering{EmergencyOverridesReadState: true}

func (o BroadcastOrdering) Compare(a, b models.BroadcastEntry) int {
	emA := boolRank(a.Type != cons.BroadcastTypeEmergency)
	emB := boolRank(b.Type != cons.BroadcastTypeEmergency)
	rdA, rdB := boolRank(a.Read), boolRank(b.Read)

	first := [2]int{emA, emB}
	second := [2]int{rdA, rdB}
	if !o.EmergencyOverridesReadState {
		first, second = second, first
	}
	if c := cmp.Compare(first[0], first[1]); c != 0 {
		return c
	}
	if c := cmp.Compare(second[0], second[1]); c != 0 {
		return c
	}
	if c := b.SentAt.Compare(a.SentAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}
