package cons

// 消息优先级（priority）
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// PriorityRank 优先级的排序权重，越大越靠前；未知优先级为 0。
func PriorityRank(p string) int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ValidPriority 是否为合法优先级
func ValidPriority(p string) bool { return PriorityRank(p) > 0 }

// 收件人选择模式（recipient_mode）
const (
	RecipientModeAll        = "all"        // 全体住户（仅通讯录公开的）
	RecipientModeBuilding   = "building"   // 某一栋楼
	RecipientModeIndividual = "individual" // 手动勾选
)

// 站内投递方式（inbox_variant）：站内信 or 业主公告
const (
	InboxVariantSiteInbox = "site_inbox"
	InboxVariantBroadcast = "broadcast"
)

// 投递通道，DispatchResult / 事件里用
const (
	ChannelSiteInbox = "site_inbox"
	ChannelBroadcast = "broadcast"
	ChannelEmail     = "email"
)

// 站内信类型（message_type）
const (
	MessageTypeNotification   = "notification"
	MessageTypePhotoRejection = "photo_rejection"
	MessageTypePhotoApproval  = "photo_approval"
	MessageTypeAlert          = "alert"
	MessageTypeGeneral        = "general"
)

// ValidMessageType 是否为已知的站内信类型
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeNotification, MessageTypePhotoRejection, MessageTypePhotoApproval,
		MessageTypeAlert, MessageTypeGeneral:
		return true
	}
	return false
}

// 业主公告类型（type）
const (
	BroadcastTypeEmergency = "emergency"
	BroadcastTypeNotice    = "notice"
	BroadcastTypeInfo      = "info"
)

// BroadcastTypeForPriority 优先级映射到公告类型：urgent 视为紧急公告。
func BroadcastTypeForPriority(p string) string {
	switch p {
	case PriorityUrgent:
		return BroadcastTypeEmergency
	case PriorityHigh, PriorityMedium:
		return BroadcastTypeNotice
	}
	return BroadcastTypeInfo
}

// InboxTypeForPriority 管理员群发的站内信类型
func InboxTypeForPriority(p string) string {
	if p == PriorityUrgent {
		return MessageTypeAlert
	}
	return MessageTypeNotification
}

// 站内信列表过滤
const (
	InboxFilterAll    = "all"
	InboxFilterUnread = "unread"
	InboxFilterRead   = "read"
)

// 投递状态（写回 message 审计行）
const (
	DeliveryPending = "pending"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
	DeliverySkipped = "skipped"
)

// 楼栋：本小区只有 A-D 四栋
var Buildings = []string{"A", "B", "C", "D"}

// 事件路由键
const (
	EventMessageDispatched = "message.dispatched"
)
