package message

import "time"

// 事件版本，消费方按此做兼容
const DispatchedEventVersion = 1

// LegOutcome 单个通道的投递结果
type LegOutcome struct {
	Channel  string `json:"channel"`
	Status   string `json:"status"` // sent/failed/skipped
	Accepted int    `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// DispatchedEvent message.dispatched 事件体
type DispatchedEvent struct {
	EventID       string       `json:"event_id"`
	Version       int          `json:"version"`
	MessageID     uint64       `json:"message_id"`
	MessageUID    string       `json:"message_uid"`
	AuthorID      uint64       `json:"author_id"`
	Priority      string       `json:"priority"`
	RecipientMode string       `json:"recipient_mode"`
	Resolved      int          `json:"resolved"`
	Legs          []LegOutcome `json:"legs"`
	OccurredAt    time.Time    `json:"occurred_at"`
}
