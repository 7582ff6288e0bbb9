package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipientService_ModeAllOnlyOptedIn(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t,
		resident(10, "A1A", "a@x.org", true),
		resident(11, "B2G", "b@x.org", false),
		resident(12, "C3C", "", true),
	)
	rs := NewRecipientService(env.svc)

	ids, err := rs.Resolve(context.Background(), cons.RecipientModeAll, RecipientSelector{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{10, 12}, ids)

	rows, err := rs.ResolveRecipients(context.Background(), cons.RecipientModeAll, RecipientSelector{})
	require.NoError(t, err)
	for _, r := range rows {
		assert.True(t, r.DirectoryOptIn, "mode=all must not include opted-out resident %d", r.UserID)
	}
}

func TestRecipientService_BuildingMatchesDerivedBuilding(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t,
		resident(1, "B2G", "", false),
		resident(2, "A1A", "", true),
		resident(3, "b4c", "", true),
		resident(4, " B9", "", false),
	)
	rs := NewRecipientService(env.svc)
	ctx := context.Background()

	ids, err := rs.Resolve(ctx, cons.RecipientModeBuilding, RecipientSelector{Building: "b"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 3, 4}, ids)

	// 结果里每个人的楼栋都等于选择器，库里其余人都不等于
	var all []models.Recipient
	require.NoError(t, env.db.Find(&all).Error)
	in := map[uint64]bool{}
	for _, id := range ids {
		in[id] = true
	}
	for _, r := range all {
		assert.Equal(t, models.BuildingOf(r.UnitNumber) == "B", in[r.UserID], "resident %d", r.UserID)
	}
}

func TestRecipientService_BuildingValidation(t *testing.T) {
	env := newTestEnv(t)
	rs := NewRecipientService(env.svc)
	ctx := context.Background()

	_, err := rs.Resolve(ctx, cons.RecipientModeBuilding, RecipientSelector{Building: "  "})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "building required", ve.Msg)

	_, err = rs.Resolve(ctx, cons.RecipientModeBuilding, RecipientSelector{Building: "E"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "invalid building", ve.Msg)

	_, err = rs.Resolve(ctx, cons.RecipientModeBuilding, RecipientSelector{Building: "D"})
	var re *ResolutionError
	require.ErrorAs(t, err, &re, "valid but empty building is a resolution error")
}

func TestRecipientService_IndividualDedupAndUnknown(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, resident(1, "A1", "", true), resident(2, "B1", "", false))
	rs := NewRecipientService(env.svc)
	ctx := context.Background()

	ids, err := rs.Resolve(ctx, cons.RecipientModeIndividual, RecipientSelector{UserIDs: []uint64{1, 1, 2, 0, 99}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids)

	_, err = rs.Resolve(ctx, cons.RecipientModeIndividual, RecipientSelector{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "no recipients selected", ve.Msg)

	_, err = rs.Resolve(ctx, cons.RecipientModeIndividual, RecipientSelector{UserIDs: []uint64{98, 99}})
	assert.True(t, IsResolution(err), "unknown ids only: %v", err)

	_, err = rs.Resolve(ctx, "everyone", RecipientSelector{})
	assert.True(t, IsValidation(err))
}

func TestRecipientService_BuildingValidationHappensBeforeStoreIO(t *testing.T) {
	gormDB, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()

	rs := NewRecipientService(&Service{DB: gormDB})
	_, err := rs.Resolve(context.Background(), cons.RecipientModeBuilding, RecipientSelector{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet(), "no SQL should be issued")
}

func TestRecipientService_PreviewAndPreferences(t *testing.T) {
	env := newTestEnv(t)
	noMail := resident(3, "A3", "c@x.org", true)
	noMail.EmailNotificationsEnabled = false
	env.seed(t, resident(1, "A1", "a@x.org", true), resident(2, "A2", "", true), noMail)
	rs := NewRecipientService(env.svc)
	ctx := context.Background()

	p, err := rs.Preview(ctx, cons.RecipientModeBuilding, RecipientSelector{Building: "a"})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 1, p.EmailEligible)
	assert.Equal(t, "A", p.Building)

	empty, err := rs.Preview(ctx, cons.RecipientModeBuilding, RecipientSelector{Building: "C"})
	require.NoError(t, err)
	assert.Zero(t, empty.Total)

	r, err := rs.UpdatePreferences(ctx, 3, true, false)
	require.NoError(t, err)
	assert.True(t, r.EmailNotificationsEnabled)
	assert.False(t, r.DirectoryOptIn)

	// 值不变也不算 not found
	_, err = rs.UpdatePreferences(ctx, 3, true, false)
	require.NoError(t, err)

	_, err = rs.UpdatePreferences(ctx, 404, true, true)
	assert.True(t, errors.Is(err, ErrRecipientNotFound))

	dir, err := rs.ListDirectory(ctx)
	require.NoError(t, err)
	assert.Len(t, dir, 2)
}

func TestRecipientService_Upsert(t *testing.T) {
	env := newTestEnv(t)
	rs := NewRecipientService(env.svc)
	ctx := context.Background()

	r := resident(5, " D1 ", "d@x.org", true)
	require.NoError(t, rs.UpsertRecipient(ctx, &r))

	r2 := resident(5, "D2", "new@x.org", false)
	require.NoError(t, rs.UpsertRecipient(ctx, &r2))

	var got models.Recipient
	require.NoError(t, env.db.First(&got, "user_id = ?", 5).Error)
	assert.Equal(t, "D2", got.UnitNumber)
	assert.Equal(t, "new@x.org", got.Email)
	assert.False(t, got.DirectoryOptIn)

	assert.True(t, IsValidation(rs.UpsertRecipient(ctx, &models.Recipient{UserID: 6})))
}

func TestRecipientService_UpsertValidatesEmail(t *testing.T) {
	env := newTestEnv(t)
	rs := NewRecipientService(env.svc)
	ctx := context.Background()

	bad := resident(6, "C1", "evil@x.org\r\nSubject: spoofed", true)
	err := rs.UpsertRecipient(ctx, &bad)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)

	var n int64
	require.NoError(t, env.db.Model(&models.Recipient{}).Where("user_id = ?", 6).Count(&n).Error)
	assert.Zero(t, n, "rejected snapshot is not stored")

	named := resident(7, "C2", " Ada <ada@x.org> ", true)
	require.NoError(t, rs.UpsertRecipient(ctx, &named))
	var got models.Recipient
	require.NoError(t, env.db.First(&got, "user_id = ?", 7).Error)
	assert.Equal(t, "ada@x.org", got.Email)

	noMail := resident(8, "C3", "", true)
	require.NoError(t, rs.UpsertRecipient(ctx, &noMail), "empty email is allowed")
}
