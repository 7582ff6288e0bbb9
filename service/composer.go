package service

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/message"
)

// ComposerState 撰写状态机：Idle -> Validating -> {Dispatching -> Sent | Failed} -> Idle
type ComposerState int

const (
	ComposerIdle ComposerState = iota
	ComposerValidating
	ComposerDispatching
	ComposerSent
	ComposerFailed
)

func (s ComposerState) String() string {
	switch s {
	case ComposerIdle:
		return "idle"
	case ComposerValidating:
		return "validating"
	case ComposerDispatching:
		return "dispatching"
	case ComposerSent:
		return "sent"
	case ComposerFailed:
		return "failed"
	}
	return "unknown"
}

// Composer 管理员撰写页的状态。一个 Composer 对应一个作者的一份草稿，可并发调用。
type Composer struct {
	svc      *MessageService
	authorID uint64

	mu      sync.Mutex
	state   ComposerState
	draft   message.ComposeReq
	result  *DispatchResult
	lastErr error
	// transitions 记录每次状态变化，便于调用方展示进度
	transitions []ComposerState
}

func defaultDraft() message.ComposeReq {
	return message.ComposeReq{
		Priority:      cons.PriorityMedium,
		SiteInbox:     true,
		InboxVariant:  cons.InboxVariantSiteInbox,
		RecipientMode: cons.RecipientModeAll,
	}
}

func NewComposer(svc *MessageService, authorID uint64) *Composer {
	return &Composer{svc: svc, authorID: authorID, state: ComposerIdle, draft: defaultDraft()}
}

func (c *Composer) State() ComposerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Draft 当前草稿的拷贝
func (c *Composer) Draft() message.ComposeReq {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.draft
	d.UserIDs = slices.Clone(c.draft.UserIDs)
	return d
}

// LastResult 最近一次派发的结果和错误
func (c *Composer) LastResult() (*DispatchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.lastErr
}

// Transitions 最近一次 Submit 经过的状态
func (c *Composer) Transitions() []ComposerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.transitions)
}

// Edit 修改草稿
func (c *Composer) Edit(fn func(d *message.ComposeReq)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.draft)
}

func (c *Composer) SetContent(subject, body string) {
	c.Edit(func(d *message.ComposeReq) { d.Subject, d.Body = subject, body })
}

func (c *Composer) SetPriority(p string) {
	c.Edit(func(d *message.ComposeReq) { d.Priority = p })
}

func (c *Composer) SetChannels(siteInbox, email bool) {
	c.Edit(func(d *message.ComposeReq) { d.SiteInbox, d.Email = siteInbox, email })
}

func (c *Composer) SelectAll() {
	c.Edit(func(d *message.ComposeReq) {
		d.RecipientMode, d.Building, d.UserIDs = cons.RecipientModeAll, "", nil
	})
}

func (c *Composer) SelectBuilding(building string) {
	c.Edit(func(d *message.ComposeReq) {
		d.RecipientMode, d.Building, d.UserIDs = cons.RecipientModeBuilding, building, nil
	})
}

func (c *Composer) SelectIndividuals(ids ...uint64) {
	c.Edit(func(d *message.ComposeReq) {
		d.RecipientMode, d.Building, d.UserIDs = cons.RecipientModeIndividual, "", slices.Clone(ids)
	})
}

// Reset 草稿回到默认值（标题、正文、收件人、优先级、通道）
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = defaultDraft()
}

func (c *Composer) to(s ComposerState) {
	c.state = s
	c.transitions = append(c.transitions, s)
}

// Submit 驱动一次完整的状态流转。
//   - 标题或正文为空：ValidationError，状态仍是 Idle，不碰存储；
//   - 非管理员：AuthorizationError，状态仍是 Idle；
//   - 圈人失败（含楼栋为空）：Validating -> Failed，错误原样返回；
//   - 派发有通道失败：Dispatching -> Failed，同时返回结果；
//   - 成功：Sent，草稿自动 Reset。
func (c *Composer) Submit(ctx context.Context) (*DispatchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transitions = c.transitions[:0]
	if c.state == ComposerSent || c.state == ComposerFailed {
		c.to(ComposerIdle)
	}
	c.result, c.lastErr = nil, nil

	req := c.draft
	req.UserIDs = slices.Clone(c.draft.UserIDs)
	if strings.TrimSpace(req.Subject) == "" {
		return nil, c.guardFailed(newValidationError("subject", "subject is required"))
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, c.guardFailed(newValidationError("body", "body is required"))
	}
	if err := c.svc.authorize(ctx, c.authorID); err != nil {
		return nil, c.guardFailed(err)
	}

	c.to(ComposerValidating)
	if err := c.svc.normalize(&req); err != nil {
		return nil, c.fail(nil, err)
	}
	recipients, err := c.svc.resolve(ctx, &req)
	if err != nil {
		return nil, c.fail(nil, err)
	}

	c.to(ComposerDispatching)
	res, err := c.svc.send(ctx, c.authorID, &req, recipients)
	if err != nil {
		return res, c.fail(res, err)
	}

	c.result = res
	c.to(ComposerSent)
	c.draft = defaultDraft()
	return res, nil
}

func (c *Composer) guardFailed(err error) error {
	c.state = ComposerIdle
	c.lastErr = err
	return err
}

func (c *Composer) fail(res *DispatchResult, err error) error {
	c.result = res
	c.lastErr = err
	c.to(ComposerFailed)
	return err
}
