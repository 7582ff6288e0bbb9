package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cydxin/notify-sdk/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// newMockDB go-sqlmock + mysql dialector；用于断言 "没有任何 SQL 发出"
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqldb, SkipInitializeWithVersion: true}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		_ = sqldb.Close()
		t.Fatalf("gorm.Open: %v", err)
	}
	return db, mock, sqldb
}

// newMemDB 内存 sqlite，已建表。只开一个连接：每个连接都是独立的空库，
// 并行的两个投递通道不能各拿到一个新库。
func newMemDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.Recipient{},
		&models.Message{},
		&models.InboxEntry{},
		&models.BroadcastEntry{},
		&models.BroadcastAck{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fakeMailer 记录每次调用，可注入错误
type fakeMailer struct {
	mu    sync.Mutex
	calls []OutboundMail
	err   error
}

func (m *fakeMailer) SendMail(_ context.Context, mail *OutboundMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, *mail)
	return m.err
}

func (m *fakeMailer) Calls() []OutboundMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]OutboundMail(nil), m.calls...)
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	bodies [][]byte
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.bodies = append(p.bodies, payload)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var errTransport = errors.New("smtp rejected")

// fixedClock 可手动推进的时钟
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

const testAdminID uint64 = 1

type testEnv struct {
	svc       *Service
	db        *gorm.DB
	mailer    *fakeMailer
	publisher *recordingPublisher
	clock     *fixedClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB(t)
	env := &testEnv{
		db:        db,
		mailer:    &fakeMailer{},
		publisher: &recordingPublisher{},
		clock:     &fixedClock{t: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)},
	}
	env.svc = &Service{
		DB:          db,
		Mailer:      env.mailer,
		Policy:      NewStaticAdminPolicy(testAdminID),
		Publisher:   env.publisher,
		MailFrom:    "office@example.org",
		SenderLabel: "Management Office",
		Clock:       env.clock.Now,
	}
	return env
}

// seed 写入住户快照
func (e *testEnv) seed(t *testing.T, rs ...models.Recipient) {
	t.Helper()
	for i := range rs {
		if err := e.db.Create(&rs[i]).Error; err != nil {
			t.Fatalf("seed recipient %d: %v", rs[i].UserID, err)
		}
	}
}

func resident(id uint64, unit, email string, optIn bool) models.Recipient {
	return models.Recipient{
		UserID:                    id,
		UnitNumber:                unit,
		DisplayName:               unit,
		Email:                     email,
		EmailNotificationsEnabled: true,
		DirectoryOptIn:            optIn,
	}
}
