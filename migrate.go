package notify_sdk

import (
	"fmt"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/models"
	"gorm.io/gorm"
)

// AllModels 需要建表的全部模型
func AllModels() []any {
	return []any{
		&models.Recipient{},
		&models.Message{},
		&models.InboxEntry{},
		&models.BroadcastEntry{},
		&models.BroadcastAck{},
	}
}

func (c *NotifyEngine) AutoMigrate() error {
	db := c.config.DB
	c.logger.Info("AutoMigrate...")
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return err
	}
	n, err := BackfillPriorityRank(db)
	if err != nil {
		return err
	}
	if n > 0 {
		c.logger.Info("priority_rank backfilled", "rows", n)
	}
	return nil
}

// BackfillPriorityRank 给老数据补 priority_rank（列是后加的，默认 0）。
// 按优先级逐个 UPDATE，重复执行无副作用。
func BackfillPriorityRank(db *gorm.DB) (int64, error) {
	if !db.Migrator().HasColumn(&models.InboxEntry{}, "priority_rank") {
		return 0, nil
	}
	var total int64
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, p := range []string{cons.PriorityLow, cons.PriorityMedium, cons.PriorityHigh, cons.PriorityUrgent} {
			res := tx.Model(&models.InboxEntry{}).
				Where("priority = ? AND priority_rank <> ?", p, cons.PriorityRank(p)).
				Update("priority_rank", cons.PriorityRank(p))
			if res.Error != nil {
				return fmt.Errorf("backfill priority_rank for %s: %w", p, res.Error)
			}
			total += res.RowsAffected
		}
		return nil
	})
	return total, err
}
