package repository

import (
	"time"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/models"
	"gorm.io/gorm"
)

// DefaultBatchSize 批量写入时每批的行数
const DefaultBatchSize = 200

// InboxDAO 封装 InboxEntry 相关的数据库操作
//
// 约定：
// - 只做“数据访问”（CRUD/查询封装），不做业务编排（权限、排序等）。
// - 事务边界应由 service 控制；如需在事务中执行，请使用 WithDB(tx)。
// - 内容字段写入后不再更新，这里只提供 已读/归档 两类更新。
type InboxDAO struct {
	db *gorm.DB
}

func NewInboxDAO(db *gorm.DB) *InboxDAO {
	return &InboxDAO{db: db}
}

// WithDB 用于在事务（tx）中复用 DAO
func (dao *InboxDAO) WithDB(db *gorm.DB) *InboxDAO {
	if db == nil {
		return dao
	}
	return &InboxDAO{db: db}
}

// CreateBatch 批量写入站内信，一条 INSERT 写一批
func (dao *InboxDAO) CreateBatch(entries []models.InboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return dao.db.CreateInBatches(&entries, DefaultBatchSize).Error
}

// Create 写入单条（系统通知用）
func (dao *InboxDAO) Create(entry *models.InboxEntry) error {
	return dao.db.Create(entry).Error
}

// ListByRecipient 收件人的站内信。
// filter: all / unread / read；archived=true 时只看归档箱。
// 这里只给一个稳定的默认顺序，展示顺序由 service 的比较器决定。
func (dao *InboxDAO) ListByRecipient(userID uint64, filter string, archived bool) ([]models.InboxEntry, error) {
	q := dao.db.Model(&models.InboxEntry{}).
		Where("recipient_user_id = ? AND is_archived = ?", userID, archived)
	switch filter {
	case cons.InboxFilterUnread:
		q = q.Where("is_read = ?", false)
	case cons.InboxFilterRead:
		q = q.Where("is_read = ?", true)
	}
	var entries []models.InboxEntry
	err := q.Order("created_at DESC").Order("id DESC").Find(&entries).Error
	return entries, err
}

// FindByID 按 id 取一条，不校验归属
func (dao *InboxDAO) FindByID(id uint64) (*models.InboxEntry, error) {
	var e models.InboxEntry
	if err := dao.db.Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// MarkRead 条件更新：只有未读时才写 read_at，重复调用不会覆盖第一次的时间。
// 返回是否真的发生了状态变化。
func (dao *InboxDAO) MarkRead(userID, id uint64, now time.Time) (bool, error) {
	res := dao.db.Model(&models.InboxEntry{}).
		Where("id = ? AND recipient_user_id = ? AND is_read = ?", id, userID, false).
		Updates(map[string]any{"is_read": true, "read_at": now})
	return res.RowsAffected > 0, res.Error
}

// MarkAllRead 收件箱（不含归档）全部标记已读，返回影响行数
func (dao *InboxDAO) MarkAllRead(userID uint64, now time.Time) (int64, error) {
	res := dao.db.Model(&models.InboxEntry{}).
		Where("recipient_user_id = ? AND is_read = ? AND is_archived = ?", userID, false, false).
		Updates(map[string]any{"is_read": true, "read_at": now})
	return res.RowsAffected, res.Error
}

// Archive 软删除：只改 is_archived / archived_at
func (dao *InboxDAO) Archive(userID, id uint64, now time.Time) (bool, error) {
	res := dao.db.Model(&models.InboxEntry{}).
		Where("id = ? AND recipient_user_id = ? AND is_archived = ?", id, userID, false).
		Updates(map[string]any{"is_archived": true, "archived_at": now})
	return res.RowsAffected > 0, res.Error
}

// CountUnread 未读数（不含归档）
func (dao *InboxDAO) CountUnread(userID uint64) (int64, error) {
	var n int64
	err := dao.db.Model(&models.InboxEntry{}).
		Where("recipient_user_id = ? AND is_read = ? AND is_archived = ?", userID, false, false).
		Count(&n).Error
	return n, err
}

// CountByMessage 某条消息落了多少站内信（审计/测试用）
func (dao *InboxDAO) CountByMessage(messageID uint64) (int64, error) {
	var n int64
	err := dao.db.Model(&models.InboxEntry{}).Where("message_id = ?", messageID).Count(&n).Error
	return n, err
}
