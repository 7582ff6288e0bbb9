package models

import (
	"gorm.io/gorm"
)

// MessageDAO 封装 Message（审计行）相关的数据库操作
type MessageDAO struct {
	db *gorm.DB
}

// NewMessageDAO 创建 MessageDAO 实例
func NewMessageDAO(db *gorm.DB) *MessageDAO {
	return &MessageDAO{db: db}
}

// WithDB 用于在事务（tx）中复用 DAO
func (dao *MessageDAO) WithDB(db *gorm.DB) *MessageDAO {
	if db == nil {
		return dao
	}
	return &MessageDAO{db: db}
}

// Create 创建消息
func (dao *MessageDAO) Create(msg *Message) error {
	return dao.db.Create(msg).Error
}

// FindByID 根据ID查找消息
func (dao *MessageDAO) FindByID(id uint64) (*Message, error) {
	var msg Message
	err := dao.db.Where("id = ?", id).First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListRecent 管理端：最近发送的消息
func (dao *MessageDAO) ListRecent(limit, offset int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	var messages []Message
	err := dao.db.Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

// ListByAuthor 某个管理员发过的消息
func (dao *MessageDAO) ListByAuthor(authorID uint64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	var messages []Message
	err := dao.db.Where("author_id = ?", authorID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// UpdateDispatchOutcome 回写投递结果（只动投递记录字段，内容不变）
func (dao *MessageDAO) UpdateDispatchOutcome(id uint64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dao.db.Model(&Message{}).Where("id = ?", id).Updates(updates).Error
}
