package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// OutboundMail 一次邮件通道调用：同一封 HTML 发给全部收件人
type OutboundMail struct {
	From     string
	FromName string
	To       []string
	Subject  string
	HTML     string
}

// Mailer 邮件传输层
type Mailer interface {
	SendMail(ctx context.Context, mail *OutboundMail) error
}

// EmailContent 邮件模板数据
type EmailContent struct {
	Subject     string
	Body        string
	SenderLabel string
	Priority    string
	SentAt      time.Time
}

var emailTemplate = template.Must(template.New("notice").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #2f4f6f; color: white; padding: 16px 20px; border-radius: 8px 8px 0 0; }
        .urgent { background: #b22222; }
        .content { background: #f9f9f9; padding: 20px; border-radius: 0 0 8px 8px; }
        .footer { text-align: center; margin-top: 20px; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header{{if .Urgent}} urgent{{end}}">
            <h2>{{.Subject}}</h2>
        </div>
        <div class="content">
            <p>{{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
        </div>
        <div class="footer">
            <p>{{.SenderLabel}} &middot; {{.SentAt}}</p>
        </div>
    </div>
</body>
</html>
`))

// ComposeEmailHTML 渲染邮件正文：正文换行转成 <br>，其余内容由 html/template 转义
func ComposeEmailHTML(c EmailContent) (string, error) {
	body := strings.ReplaceAll(c.Body, "\r\n", "\n")
	data := struct {
		Subject     string
		Lines       []string
		SenderLabel string
		SentAt      string
		Urgent      bool
	}{
		Subject:     c.Subject,
		Lines:       strings.Split(body, "\n"),
		SenderLabel: c.SenderLabel,
		SentAt:      c.SentAt.Format("2006-01-02 15:04"),
		Urgent:      c.Priority == cons.PriorityUrgent,
	}
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GmailConfig Gmail API 凭据。优先 OAuth2 refresh token，其次凭据文件。
type GmailConfig struct {
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	CredentialsFile string
	SenderEmail     string
}

// GmailMailer 通过 Gmail API 发信，全部收件人放在 Bcc，互相不可见
type GmailMailer struct {
	srv    *gmail.Service
	sender string
}

func NewGmailMailer(ctx context.Context, cfg GmailConfig) (*GmailMailer, error) {
	var opt option.ClientOption
	switch {
	case cfg.ClientID != "" && cfg.ClientSecret != "" && cfg.RefreshToken != "":
		oauthConfig := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailSendScope},
		}
		ts := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
		opt = option.WithTokenSource(ts)
	case cfg.CredentialsFile != "":
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	default:
		return nil, errors.New("gmail credentials not configured")
	}
	srv, err := gmail.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailMailer{srv: srv, sender: cfg.SenderEmail}, nil
}

func (m *GmailMailer) SendMail(ctx context.Context, mail *OutboundMail) error {
	out := *mail
	if out.From == "" {
		out.From = m.sender
	}
	raw := BuildRawMessage(&out)
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString([]byte(raw))}
	if _, err := m.srv.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}

// BuildRawMessage 生成 RFC 822 报文。收件人全部进 Bcc，主题按 RFC 2047 编码。
func BuildRawMessage(mail *OutboundMail) string {
	from := mail.From
	if mail.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", mail.FromName), mail.From)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	b.WriteString("To: undisclosed-recipients:;\r\n")
	fmt.Fprintf(&b, "Bcc: %s\r\n", strings.Join(mail.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", mail.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(mail.HTML)
	return b.String()
}

// LogMailer 开发环境用：只打日志不发信
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendMail(_ context.Context, mail *OutboundMail) error {
	l := m.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("mail (log only)", "from", mail.From, "recipients", len(mail.To), "subject", mail.Subject)
	return nil
}

// BreakerConfig 熔断参数
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig 连续 5 次失败熔断 30 秒
var DefaultBreakerConfig = BreakerConfig{
	MaxRequests:      1,
	Interval:         time.Minute,
	Timeout:          30 * time.Second,
	FailureThreshold: 5,
}

// BreakerMailer 给任意 Mailer 加熔断：熔断打开时直接失败，不重试
type BreakerMailer struct {
	next    Mailer
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerMailer(next Mailer, cfg BreakerConfig, logger *slog.Logger) *BreakerMailer {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig.FailureThreshold
	}
	settings := gobreaker.Settings{
		Name:        "mail",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("mail circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			}
		},
	}
	return &BreakerMailer{next: next, breaker: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (m *BreakerMailer) SendMail(ctx context.Context, mail *OutboundMail) error {
	_, err := m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.next.SendMail(ctx, mail)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("mail transport unavailable: %w", err)
	}
	return err
}

// State 当前熔断状态
func (m *BreakerMailer) State() gobreaker.State {
	return m.breaker.State()
}
