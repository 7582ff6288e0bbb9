package repository

import (
	"time"

	"github.com/cydxin/notify-sdk/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BroadcastDAO 业主公告的数据访问。
//
// 两种行：
// - broadcast=true：全员可见，个人已读记在 pn_broadcast_ack；
// - broadcast=false：定向给 recipient_id，已读直接写 read 列。
//
// 注意 read 在 MySQL 里是保留字，条件一律用 map 形式让 gorm 负责加引号。
type BroadcastDAO struct {
	db *gorm.DB
}

func NewBroadcastDAO(db *gorm.DB) *BroadcastDAO {
	return &BroadcastDAO{db: db}
}

func (dao *BroadcastDAO) WithDB(db *gorm.DB) *BroadcastDAO {
	if db == nil {
		return dao
	}
	return &BroadcastDAO{db: db}
}

// CreateBatch 批量写入公告行
func (dao *BroadcastDAO) CreateBatch(entries []models.BroadcastEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return dao.db.CreateInBatches(&entries, DefaultBatchSize).Error
}

// ListVisible 用户可见的全部公告：全员公告 + 定向给他的。
// 返回前把 ack 合并进全员公告的 Read 字段（只改内存，不落库）。
func (dao *BroadcastDAO) ListVisible(userID uint64) ([]models.BroadcastEntry, error) {
	var entries []models.BroadcastEntry
	err := dao.db.Model(&models.BroadcastEntry{}).
		Where(map[string]any{"broadcast": true}).
		Or(map[string]any{"recipient_id": userID}).
		Order("sent_at DESC").Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	var broadcastIDs []uint64
	for _, e := range entries {
		if e.Broadcast {
			broadcastIDs = append(broadcastIDs, e.ID)
		}
	}
	if len(broadcastIDs) == 0 {
		return entries, nil
	}

	var acked []uint64
	if err := dao.db.Model(&models.BroadcastAck{}).
		Where("user_id = ? AND entry_id IN ?", userID, broadcastIDs).
		Pluck("entry_id", &acked).Error; err != nil {
		return nil, err
	}
	ackSet := make(map[uint64]struct{}, len(acked))
	for _, id := range acked {
		ackSet[id] = struct{}{}
	}
	for i := range entries {
		if !entries[i].Broadcast {
			continue
		}
		_, ok := ackSet[entries[i].ID]
		entries[i].Read = ok
	}
	return entries, nil
}

// MarkTargetedRead 定向公告标记已读，只动属于 userID 且未读的行
func (dao *BroadcastDAO) MarkTargetedRead(userID uint64, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dao.db.Model(&models.BroadcastEntry{}).
		Where(map[string]any{"recipient_id": userID, "broadcast": false, "read": false}).
		Where("id IN ?", ids).
		Updates(map[string]any{"read": true})
	return res.RowsAffected, res.Error
}

// Ack 全员公告的个人已读回执，重复 ack 直接忽略
func (dao *BroadcastDAO) Ack(userID uint64, entryIDs []uint64, now time.Time) error {
	if len(entryIDs) == 0 {
		return nil
	}
	acks := make([]models.BroadcastAck, 0, len(entryIDs))
	for _, id := range entryIDs {
		acks = append(acks, models.BroadcastAck{EntryID: id, UserID: userID, ReadAt: now})
	}
	return dao.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&acks).Error
}

// CountUnread 未读公告数 = 未读定向公告 + 没有 ack 的全员公告
func (dao *BroadcastDAO) CountUnread(userID uint64) (int64, error) {
	var targeted int64
	if err := dao.db.Model(&models.BroadcastEntry{}).
		Where(map[string]any{"recipient_id": userID, "broadcast": false, "read": false}).
		Count(&targeted).Error; err != nil {
		return 0, err
	}

	acked := dao.db.Model(&models.BroadcastAck{}).Select("entry_id").Where("user_id = ?", userID)
	var wide int64
	if err := dao.db.Model(&models.BroadcastEntry{}).
		Where(map[string]any{"broadcast": true}).
		Where("id NOT IN (?)", acked).
		Count(&wide).Error; err != nil {
		return 0, err
	}
	return targeted + wide, nil
}

// CountByMessage 某条消息写了多少公告行
func (dao *BroadcastDAO) CountByMessage(messageID uint64) (int64, error) {
	var n int64
	err := dao.db.Model(&models.BroadcastEntry{}).Where("message_id = ?", messageID).Count(&n).Error
	return n, err
}
