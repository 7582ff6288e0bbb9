package models

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cydxin/notify-sdk/cons"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open failed: %v", err)
	}
	return db, mock
}

// TestMessageBeforeCreate 测试 Message.BeforeCreate 自动生成 UID
func TestMessageBeforeCreate(t *testing.T) {
	db, mock := newMockGorm(t)

	t.Run("AutoGenerateUUID", func(t *testing.T) {
		msg := &Message{AuthorID: 1, Subject: "Pool Closed", Body: "Maintenance today", Priority: cons.PriorityHigh, RecipientMode: cons.RecipientModeAll, ChannelSiteInbox: true}

		mock.ExpectExec("INSERT INTO `pn_message`").
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := db.Create(msg).Error; err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if _, err := uuid.Parse(msg.UID); err != nil {
			t.Errorf("UID should be a valid UUID, got: %q, error: %v", msg.UID, err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	t.Run("PreserveExistingUID", func(t *testing.T) {
		custom := uuid.New().String()
		msg := &Message{UID: custom, AuthorID: 1, Subject: "s", Body: "b", Priority: cons.PriorityLow, RecipientMode: cons.RecipientModeAll, ChannelEmail: true}

		mock.ExpectExec("INSERT INTO `pn_message`").
			WillReturnResult(sqlmock.NewResult(2, 1))

		if err := db.Create(msg).Error; err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if msg.UID != custom {
			t.Errorf("UID should be preserved, expected: %s, got: %s", custom, msg.UID)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})
}

func TestInboxEntryBeforeCreate_PriorityRank(t *testing.T) {
	db, mock := newMockGorm(t)

	entries := []InboxEntry{
		{RecipientUserID: 1, Subject: "s", Content: "c", Priority: cons.PriorityUrgent},
		{RecipientUserID: 2, Subject: "s", Content: "c", Priority: cons.PriorityLow},
	}
	mock.ExpectExec("INSERT INTO `pn_inbox_entry`").
		WillReturnResult(sqlmock.NewResult(1, 2))

	if err := db.Create(&entries).Error; err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if entries[0].PriorityRank != 4 || entries[1].PriorityRank != 1 {
		t.Fatalf("unexpected ranks: %d %d", entries[0].PriorityRank, entries[1].PriorityRank)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

// TestTableNames 测试表名前缀
func TestTableNames(t *testing.T) {
	cases := map[string]string{
		Recipient{}.TableName():      "pn_recipient",
		Message{}.TableName():        "pn_message",
		InboxEntry{}.TableName():     "pn_inbox_entry",
		BroadcastEntry{}.TableName(): "pn_broadcast_entry",
		BroadcastAck{}.TableName():   "pn_broadcast_ack",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("TableName() = %s, want %s", got, want)
		}
	}
}

func TestBuildingOf(t *testing.T) {
	cases := []struct {
		unit, want string
	}{
		{"B2G", "B"},
		{"b4c", "B"},
		{"  a1a", "A"},
		{"D", "D"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := BuildingOf(c.unit); got != c.want {
			t.Errorf("BuildingOf(%q) = %q, want %q", c.unit, got, c.want)
		}
	}
}

func TestRecipient_EmailEligible(t *testing.T) {
	if (&Recipient{Email: "", EmailNotificationsEnabled: true}).EmailEligible() {
		t.Error("empty email must not be eligible")
	}
	if (&Recipient{Email: "a@x.com", EmailNotificationsEnabled: false}).EmailEligible() {
		t.Error("disabled notifications must not be eligible")
	}
	if !(&Recipient{Email: "a@x.com", EmailNotificationsEnabled: true}).EmailEligible() {
		t.Error("expected eligible")
	}
	if (&Recipient{Email: "evil@x.org\r\nSubject: spoofed", EmailNotificationsEnabled: true}).EmailEligible() {
		t.Error("address carrying a header line must not be eligible")
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"  a@x.org ", "a@x.org", false},
		{"Ada <ada@x.org>", "ada@x.org", false},
		{"evil@x.org\r\nSubject: spoofed", "", true},
		{"evil@x.org\nBcc: all@x.org", "", true},
		{"a@x.org, b@x.org", "", true},
		{"not-an-address", "", true},
	}
	for _, c := range cases {
		got, err := NormalizeEmail(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("NormalizeEmail(%q) err = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("NormalizeEmail(%q) err = %v, want ErrInvalidEmail", c.in, err)
		}
		if got != c.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMessage_CheckInvariants(t *testing.T) {
	b := "B"
	empty := ""

	ok := &Message{Priority: cons.PriorityMedium, ChannelSiteInbox: true, RecipientMode: cons.RecipientModeBuilding, BuildingCode: &b}
	if err := ok.CheckInvariants(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noChannel := &Message{Priority: cons.PriorityMedium, RecipientMode: cons.RecipientModeAll}
	if err := noChannel.CheckInvariants(); err != ErrNoChannel {
		t.Fatalf("expected ErrNoChannel, got %v", err)
	}

	badPriority := &Message{Priority: "critical", ChannelEmail: true, RecipientMode: cons.RecipientModeAll}
	if err := badPriority.CheckInvariants(); err != ErrInvalidPriority {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}

	buildingWithoutCode := &Message{Priority: cons.PriorityLow, ChannelEmail: true, RecipientMode: cons.RecipientModeBuilding, BuildingCode: &empty}
	if err := buildingWithoutCode.CheckInvariants(); err == nil {
		t.Fatal("expected error for empty building code")
	}

	individual := &Message{Priority: cons.PriorityLow, ChannelEmail: true, RecipientMode: cons.RecipientModeIndividual}
	if err := individual.CheckInvariants(); err == nil {
		t.Fatal("expected error for missing explicit ids")
	}
	if err := individual.SetRecipientIDs([]uint64{3, 4}); err != nil {
		t.Fatalf("SetRecipientIDs: %v", err)
	}
	if err := individual.CheckInvariants(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	ids, err := individual.RecipientIDs()
	if err != nil || len(ids) != 2 || ids[0] != 3 || ids[1] != 4 {
		t.Fatalf("RecipientIDs = %v, %v", ids, err)
	}

	allWithSelector := &Message{Priority: cons.PriorityLow, ChannelEmail: true, RecipientMode: cons.RecipientModeAll, BuildingCode: &b}
	if err := allWithSelector.CheckInvariants(); err == nil {
		t.Fatal("expected error for mode=all with building")
	}
}
