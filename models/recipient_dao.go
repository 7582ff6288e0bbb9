package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipientDAO 封装 Recipient 相关的数据库操作
// 圈人查询一次把 email / 通知开关一起取回，避免逐个收件人再查一次。
type RecipientDAO struct {
	db *gorm.DB
}

func NewRecipientDAO(db *gorm.DB) *RecipientDAO {
	return &RecipientDAO{db: db}
}

// Upsert 按 user_id 写入或覆盖住户快照
func (dao *RecipientDAO) Upsert(r *Recipient) error {
	return dao.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"unit_number", "display_name", "email", "email_notifications_enabled", "directory_opt_in", "updated_at"}),
	}).Create(r).Error
}

func (dao *RecipientDAO) FindByID(userID uint64) (*Recipient, error) {
	var r Recipient
	if err := dao.db.Where("user_id = ?", userID).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// FindByIDs 批量取收件人，顺序按 user_id
func (dao *RecipientDAO) FindByIDs(ids []uint64) ([]Recipient, error) {
	if len(ids) == 0 {
		return []Recipient{}, nil
	}
	var rows []Recipient
	err := dao.db.Where("user_id IN ?", ids).Order("user_id ASC").Find(&rows).Error
	return rows, err
}

// ListDirectory 通讯录公开的全部住户
func (dao *RecipientDAO) ListDirectory() ([]Recipient, error) {
	var rows []Recipient
	err := dao.db.Where("directory_opt_in = ?", true).Order("user_id ASC").Find(&rows).Error
	return rows, err
}

// ListByBuilding 房号首字母（忽略大小写）等于 building 的住户
func (dao *RecipientDAO) ListByBuilding(building string) ([]Recipient, error) {
	building = strings.ToUpper(strings.TrimSpace(building))
	if building == "" {
		return []Recipient{}, nil
	}
	var rows []Recipient
	err := dao.db.Where("UPPER(SUBSTR(TRIM(unit_number), 1, 1)) = ?", building).
		Order("user_id ASC").
		Find(&rows).Error
	return rows, err
}

// UpdatePreferences 住户自己改邮件通知 / 通讯录公开开关
func (dao *RecipientDAO) UpdatePreferences(userID uint64, emailEnabled, directoryOptIn bool) error {
	// MySQL 值没变时 RowsAffected 为 0，所以先查存在性
	if _, err := dao.FindByID(userID); err != nil {
		return err
	}
	return dao.db.Model(&Recipient{}).Where("user_id = ?", userID).
		Updates(map[string]any{
			"email_notifications_enabled": emailEnabled,
			"directory_opt_in":            directoryOptIn,
		}).Error
}

func (dao *RecipientDAO) IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
