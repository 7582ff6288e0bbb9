package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func TestComposeEmailHTML_EscapesAndBreaksLines(t *testing.T) {
	html, err := ComposeEmailHTML(EmailContent{
		Subject:     "Pool <closed>",
		Body:        "Line one\r\nLine <b>two</b>",
		SenderLabel: "Management Office",
		Priority:    cons.PriorityUrgent,
		SentAt:      time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Contains(t, html, "Pool &lt;closed&gt;")
	assert.Contains(t, html, "Line one<br>Line &lt;b&gt;two&lt;/b&gt;")
	assert.NotContains(t, html, "<b>two</b>")
	assert.Contains(t, html, `class="header urgent"`)
	assert.Contains(t, html, "2026-05-04 09:30")

	plain, err := ComposeEmailHTML(EmailContent{Subject: "s", Body: "b", Priority: cons.PriorityLow})
	require.NoError(t, err)
	assert.NotContains(t, plain, "header urgent")
}

func TestBuildRawMessage_RecipientsInBcc(t *testing.T) {
	raw := BuildRawMessage(&OutboundMail{
		From:     "office@example.org",
		FromName: "物业管理处",
		To:       []string{"a@x.org", "b@x.org"},
		Subject:  "停水通知",
		HTML:     "<p>hi</p>",
	})

	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	assert.Equal(t, "<p>hi</p>", body)
	assert.Contains(t, head, "To: undisclosed-recipients:;\r\n")
	assert.Contains(t, head, "Bcc: a@x.org, b@x.org\r\n")
	assert.Contains(t, head, "Subject: =?UTF-8?q?")
	assert.Contains(t, head, "<office@example.org>")
	assert.NotContains(t, head, "To: a@x.org")
}

func TestBreakerMailer_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &fakeMailer{err: errTransport}
	m := NewBreakerMailer(inner, BreakerConfig{MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 2}, nil)
	ctx := context.Background()
	mail := &OutboundMail{To: []string{"a@x.org"}}

	for i := 0; i < 2; i++ {
		err := m.SendMail(ctx, mail)
		assert.True(t, errors.Is(err, errTransport))
	}
	assert.Equal(t, gobreaker.StateOpen, m.State())

	err := m.SendMail(ctx, mail)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Len(t, inner.Calls(), 2, "open breaker does not call the transport")
}

func TestBreakerMailer_PassesThroughSuccess(t *testing.T) {
	inner := &fakeMailer{}
	m := NewBreakerMailer(inner, DefaultBreakerConfig, nil)
	require.NoError(t, m.SendMail(context.Background(), &OutboundMail{To: []string{"a@x.org"}}))
	assert.Equal(t, gobreaker.StateClosed, m.State())
	assert.Len(t, inner.Calls(), 1)
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, LogMailer{}.SendMail(context.Background(), &OutboundMail{Subject: "s"}))
}

func TestGmailMailer_DefaultsSenderWithoutMutatingInput(t *testing.T) {
	var raw string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m gmail.Message
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b, err := base64.URLEncoding.DecodeString(m.Raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		raw = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m1"}`))
	}))
	defer ts.Close()

	srv, err := gmail.NewService(context.Background(), option.WithEndpoint(ts.URL+"/"), option.WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	m := &GmailMailer{srv: srv, sender: "office@example.org"}

	mail := &OutboundMail{To: []string{"a@x.org"}, Subject: "Hi", HTML: "<p>x</p>"}
	require.NoError(t, m.SendMail(context.Background(), mail))

	assert.Contains(t, raw, "From: office@example.org\r\n")
	assert.Contains(t, raw, "Bcc: a@x.org\r\n")
	assert.Empty(t, mail.From, "caller's mail is left untouched")
}
