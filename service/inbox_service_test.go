package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEntry(t *testing.T, env *testEnv, e models.InboxEntry) models.InboxEntry {
	t.Helper()
	if e.Subject == "" {
		e.Subject = "s"
	}
	if e.Content == "" {
		e.Content = "c"
	}
	require.NoError(t, env.db.Create(&e).Error)
	return e
}

func TestInboxService_ListOrdering(t *testing.T) {
	env := newTestEnv(t)
	is := NewInboxService(env.svc)
	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2, t3 := t1.Add(time.Hour), t1.Add(2*time.Hour)

	readUrgent := seedEntry(t, env, models.InboxEntry{RecipientUserID: 5, Subject: "read urgent", Priority: cons.PriorityUrgent, CreatedAt: t2})
	now := time.Now()
	require.NoError(t, env.db.Model(&models.InboxEntry{}).Where("id = ?", readUrgent.ID).
		Updates(map[string]any{"is_read": true, "read_at": now}).Error)
	seedEntry(t, env, models.InboxEntry{RecipientUserID: 5, Subject: "unread low", Priority: cons.PriorityLow, CreatedAt: t1})
	seedEntry(t, env, models.InboxEntry{RecipientUserID: 5, Subject: "unread urgent", Priority: cons.PriorityUrgent, CreatedAt: t3})
	seedEntry(t, env, models.InboxEntry{RecipientUserID: 6, Subject: "someone else", Priority: cons.PriorityUrgent, CreatedAt: t3})

	list, err := is.List(context.Background(), 5, "")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "unread urgent", list[0].Subject)
	assert.Equal(t, "unread low", list[1].Subject)
	assert.Equal(t, "read urgent", list[2].Subject)

	unread, err := is.List(context.Background(), 5, cons.InboxFilterUnread)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	read, err := is.List(context.Background(), 5, cons.InboxFilterRead)
	require.NoError(t, err)
	assert.Len(t, read, 1)

	_, err = is.List(context.Background(), 5, "starred")
	assert.True(t, IsValidation(err))
}

func TestInboxService_MarkReadIdempotent(t *testing.T) {
	env := newTestEnv(t)
	is := NewInboxService(env.svc)
	ctx := context.Background()
	e := seedEntry(t, env, models.InboxEntry{RecipientUserID: 5, Priority: cons.PriorityMedium})

	first, err := is.MarkRead(ctx, 5, e.ID)
	require.NoError(t, err)
	require.True(t, first.IsRead)
	require.NotNil(t, first.ReadAt)

	env.clock.Advance(time.Hour)
	second, err := is.MarkRead(ctx, 5, e.ID)
	require.NoError(t, err, "marking twice is never an error")
	require.NotNil(t, second.ReadAt)
	assert.True(t, first.ReadAt.Equal(*second.ReadAt), "read_at keeps the first timestamp")
}

func TestInboxService_OpenIsReadOnOpen(t *testing.T) {
	env := newTestEnv(t)
	is := NewInboxService(env.svc)
	ctx := context.Background()
	e := seedEntry(t, env, models.InboxEntry{RecipientUserID: 5, Priority: cons.PriorityMedium})

	n, err := is.UnreadCount(ctx, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	opened, err := is.Open(ctx, 5, e.ID)
	require.NoError(t, err)
	assert.True(t, opened.IsRead)
	require.NotNil(t, opened.ReadAt)
	assert.True(t, opened.ReadAt.Equal(env.clock.Now()))

	n, _ = is.UnreadCount(ctx, 5)
	assert.Zero(t, n)

	_, err = is.Open(ctx, 6, e.ID)
	assert.True(t, IsAuthorization(err))

	_, err = is.Open(ctx, 5, 9999)
	assert.True(t, errors.Is(err, ErrEntryNotFound))
}

func TestInboxService_ArchiveOwnership(t *testing.T) {
	env := newTestEnv(t)
	is := NewInboxService(env.svc)
	ctx := context.Background()
	e := seedEntry(t, env, models.InboxEntry{RecipientUserID: 5, Priority: cons.PriorityMedium})

	_, err := is.Archive(ctx, 6, e.ID)
	var ae *AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, uint64(6), ae.UserID)

	archived, err := is.Archive(ctx, 5, e.ID)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)
	assert.NotNil(t, archived.ArchivedAt)

	// 软删除：行还在，只是不出现在收件箱
	list, err := is.List(ctx, 5, cons.InboxFilterAll)
	require.NoError(t, err)
	assert.Empty(t, list)
	arch, err := is.ListArchived(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, arch, 1)

	again, err := is.Archive(ctx, 5, e.ID)
	require.NoError(t, err)
	assert.True(t, archived.ArchivedAt.Equal(*again.ArchivedAt))
}

func TestInboxService_MarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	is := NewInboxService(env.svc)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		seedEntry(t, env, models.InboxEntry{RecipientUserID: 5, Priority: cons.PriorityLow})
	}
	n, err := is.MarkAllRead(ctx, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	unread, _ := is.UnreadCount(ctx, 5)
	assert.Zero(t, unread)
}

func TestInboxService_SystemNotices(t *testing.T) {
	env := newTestEnv(t)
	is := NewInboxService(env.svc)
	ctx := context.Background()

	rej, err := is.NotifyPhotoRejected(ctx, 5, "Lobby at dusk", "blurry")
	require.NoError(t, err)
	assert.Equal(t, cons.MessageTypePhotoRejection, rej.MessageType)
	assert.Nil(t, rej.MessageID)
	assert.Contains(t, rej.Content, "blurry")
	assert.Equal(t, "blurry", rej.MetadataMap()["reason"])
	assert.Equal(t, "Management Office", rej.SenderLabel)

	ok, err := is.NotifyPhotoApproved(ctx, 5, "Lobby at dusk")
	require.NoError(t, err)
	assert.Equal(t, cons.MessageTypePhotoApproval, ok.MessageType)

	list, err := is.List(ctx, 5, cons.InboxFilterAll)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// medium 在 low 前
	assert.Equal(t, rej.ID, list[0].ID)

	_, err = is.NotifyPhotoRejected(ctx, 0, "x", "")
	assert.True(t, IsValidation(err))
}

func TestInboxService_SystemNoticeRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	is := NewInboxService(env.svc)
	ctx := context.Background()

	_, err := is.SendSystemNotice(ctx, message.SystemNotice{
		UserID: 5, Subject: "Hello", Content: "x", MessageType: "promotion",
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "message_type", ve.Field)

	var n int64
	require.NoError(t, env.db.Model(&models.InboxEntry{}).Count(&n).Error)
	assert.Zero(t, n)

	e, err := is.SendSystemNotice(ctx, message.SystemNotice{UserID: 5, Subject: "Hello", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, cons.MessageTypeGeneral, e.MessageType)
}
