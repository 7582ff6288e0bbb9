package message

// ComposeReq 管理员撰写一条消息（HTTP 与 service 共用）
type ComposeReq struct {
	Subject       string   `json:"subject"`                  // 标题
	Body          string   `json:"body"`                     // 正文，换行在邮件里转成 <br>
	Priority      string   `json:"priority"`                 // low/medium/high/urgent，空则 medium
	SiteInbox     bool     `json:"site_inbox"`               // 站内投递
	Email         bool     `json:"email"`                    // 邮件投递
	InboxVariant  string   `json:"inbox_variant,omitempty"`  // site_inbox(默认)/broadcast
	RecipientMode string   `json:"recipient_mode"`           // all/building/individual
	Building      string   `json:"building,omitempty"`       // mode=building 时必填，A-D
	UserIDs       []uint64 `json:"user_ids,omitempty"`       // mode=individual 时必填
	SenderLabel   string   `json:"sender_label,omitempty"`   // 发件人展示名，空则用默认
}

// PreviewReq 撰写页收件人预览
type PreviewReq struct {
	RecipientMode string   `json:"recipient_mode"`
	Building      string   `json:"building,omitempty"`
	UserIDs       []uint64 `json:"user_ids,omitempty"`
}

// SystemNotice 系统自动通知（照片审核等），不走撰写流程
type SystemNotice struct {
	UserID      uint64         `json:"user_id"`
	MessageType string         `json:"message_type"`
	Subject     string         `json:"subject"`
	Content     string         `json:"content"`
	Priority    string         `json:"priority,omitempty"`
	SenderLabel string         `json:"sender_label,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
