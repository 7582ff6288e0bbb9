package service

import (
	"context"
	"errors"
	"strings"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ChannelOutcome 单个通道的投递结果。没有请求的通道 Channel 为空、Status=skipped。
type ChannelOutcome struct {
	Channel  string `json:"channel,omitempty"`
	Status   string `json:"status"`
	Accepted int    `json:"accepted"`
	Err      error  `json:"-"`
}

// Requested 该通道是否被请求
func (o ChannelOutcome) Requested() bool { return o.Channel != "" }

func (o ChannelOutcome) errString() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// RecipientError 某个收件人在某个通道上没有投递成功
type RecipientError struct {
	UserID  uint64 `json:"user_id"`
	Channel string `json:"channel"`
	Reason  string `json:"reason"`
}

// DispatchResult 一次派发的完整结果
type DispatchResult struct {
	MessageID uint64           `json:"message_id"`
	SiteInbox ChannelOutcome   `json:"site_inbox"`
	Email     ChannelOutcome   `json:"email"`
	Failed    []RecipientError `json:"failed,omitempty"`
	// EmailExcluded 没有邮箱或关闭了邮件通知的收件人，不算失败
	EmailExcluded []uint64 `json:"email_excluded,omitempty"`
}

// AcceptedCount 各通道接受的总数
func (r *DispatchResult) AcceptedCount() int {
	return r.SiteInbox.Accepted + r.Email.Accepted
}

// Err 任一通道失败时返回 *DispatchError，逐个列出失败的通道
func (r *DispatchResult) Err() error {
	var legs []LegFailure
	for _, o := range []ChannelOutcome{r.SiteInbox, r.Email} {
		if o.Requested() && o.Status == cons.DeliveryFailed {
			legs = append(legs, LegFailure{Channel: o.Channel, Err: o.Err})
		}
	}
	if len(legs) == 0 {
		return nil
	}
	return &DispatchError{MessageID: r.MessageID, Legs: legs}
}

// Dispatcher 把一条已落库的 Message 扇出到站内和邮件两个通道。
// 两个通道并行、互不回滚；站内通道是一个事务内的批量写入。
type Dispatcher struct {
	*Service
}

func NewDispatcher(s *Service) *Dispatcher {
	return &Dispatcher{Service: s}
}

// Dispatch msg 必须已经写入（有 ID）。所有投递行共用 msg.CreatedAt。
func (d *Dispatcher) Dispatch(ctx context.Context, msg *models.Message, recipients []models.Recipient) *DispatchResult {
	res := &DispatchResult{
		MessageID: msg.ID,
		SiteInbox: ChannelOutcome{Status: cons.DeliverySkipped},
		Email:     ChannelOutcome{Status: cons.DeliverySkipped},
	}

	// 不用 errgroup.WithContext：一个通道失败不能取消另一个。
	// 组只负责等两条腿结束，通道错误记在 ChannelOutcome 里，不经 Wait 返回。
	var g errgroup.Group
	if msg.ChannelSiteInbox {
		g.Go(func() error {
			res.SiteInbox = d.deliverSiteInbox(ctx, msg, recipients)
			return nil
		})
	}
	var excluded []uint64
	if msg.ChannelEmail {
		g.Go(func() error {
			res.Email, excluded = d.deliverEmail(ctx, msg, recipients)
			return nil
		})
	}
	_ = g.Wait()
	res.EmailExcluded = excluded

	for _, o := range []ChannelOutcome{res.SiteInbox, res.Email} {
		if o.Status != cons.DeliveryFailed || errors.Is(o.Err, ErrNoEligibleRecipients) {
			continue
		}
		for _, r := range recipients {
			if o.Channel == cons.ChannelEmail && !r.EmailEligible() {
				continue
			}
			res.Failed = append(res.Failed, RecipientError{UserID: r.UserID, Channel: o.Channel, Reason: o.errString()})
		}
	}

	d.recordOutcome(ctx, msg, res)
	d.publishDispatched(ctx, res, msg)
	return res
}

func (d *Dispatcher) deliverSiteInbox(ctx context.Context, msg *models.Message, recipients []models.Recipient) ChannelOutcome {
	ch := channelFor(msg.InboxVariant)
	out := ChannelOutcome{Channel: ch.Kind()}

	var n int
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = ch.Deliver(ctx, tx, msg, recipients, msg.CreatedAt)
		return err
	})
	if err != nil {
		d.log().Error("site inbox leg failed", "message_id", msg.ID, "channel", ch.Kind(), "error", err)
		out.Status = cons.DeliveryFailed
		out.Err = err
		return out
	}
	out.Status = cons.DeliverySent
	out.Accepted = n
	return out
}

func (d *Dispatcher) deliverEmail(ctx context.Context, msg *models.Message, recipients []models.Recipient) (ChannelOutcome, []uint64) {
	out := ChannelOutcome{Channel: cons.ChannelEmail}

	var (
		to       []string
		excluded []uint64
		seen     = make(map[string]struct{}, len(recipients))
	)
	for i := range recipients {
		r := &recipients[i]
		// 历史数据里可能有不合法的邮箱，按不可投递处理
		if !r.EmailEligible() {
			excluded = append(excluded, r.UserID)
			continue
		}
		addr := r.EmailAddress()
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		to = append(to, addr)
	}

	if len(to) == 0 {
		out.Status = cons.DeliveryFailed
		out.Err = ErrNoEligibleRecipients
		return out, excluded
	}
	if d.Mailer == nil {
		out.Status = cons.DeliveryFailed
		out.Err = ErrMailerNotConfigured
		return out, excluded
	}

	html, err := ComposeEmailHTML(EmailContent{
		Subject:     msg.Subject,
		Body:        msg.Body,
		SenderLabel: msg.SenderLabel,
		Priority:    msg.Priority,
		SentAt:      msg.CreatedAt,
	})
	if err != nil {
		out.Status = cons.DeliveryFailed
		out.Err = err
		return out, excluded
	}

	err = d.Mailer.SendMail(ctx, &OutboundMail{
		From:     d.MailFrom,
		FromName: msg.SenderLabel,
		To:       to,
		Subject:  msg.Subject,
		HTML:     html,
	})
	if err != nil {
		d.log().Error("email leg failed", "message_id", msg.ID, "recipients", len(to), "error", err)
		out.Status = cons.DeliveryFailed
		out.Err = err
		return out, excluded
	}
	out.Status = cons.DeliverySent
	out.Accepted = len(to)
	return out, excluded
}

// recordOutcome 回写审计行的投递记录；失败只记日志，审计行本身已经存在
func (d *Dispatcher) recordOutcome(ctx context.Context, msg *models.Message, res *DispatchResult) {
	var errs []string
	for _, o := range []ChannelOutcome{res.SiteInbox, res.Email} {
		if o.Err != nil {
			errs = append(errs, o.Channel+": "+o.Err.Error())
		}
	}
	lastErr := strings.Join(errs, "; ")
	if r := []rune(lastErr); len(r) > 500 {
		lastErr = string(r[:500])
	}

	updates := map[string]any{
		"site_inbox_status": res.SiteInbox.Status,
		"email_status":      res.Email.Status,
		"inbox_accepted":    res.SiteInbox.Accepted,
		"email_accepted":    res.Email.Accepted,
		"last_error":        lastErr,
	}
	if err := models.NewMessageDAO(d.DB.WithContext(context.WithoutCancel(ctx))).UpdateDispatchOutcome(msg.ID, updates); err != nil {
		d.log().Error("record dispatch outcome", "message_id", msg.ID, "error", err)
		return
	}
	msg.SiteInboxStatus = res.SiteInbox.Status
	msg.EmailStatus = res.Email.Status
	msg.InboxAccepted = res.SiteInbox.Accepted
	msg.EmailAccepted = res.Email.Accepted
	msg.LastError = lastErr
}
