package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cleanbook/backend/internal/model"
)

// TxFunc 在事务内执行的业务逻辑，txRepo 的所有读写共享同一事务
type TxFunc func(ctx context.Context, txRepo *Repository) error

// TxManager 事务管理接口
type TxManager interface {
	// WithStaffLock 开启事务并对每个保洁员的锁行 SELECT ... FOR UPDATE，
	// 同一保洁员的“查冲突 + 写入”由此串行化
	WithStaffLock(ctx context.Context, staffIDs []string, fn TxFunc) error
	// WithTx 普通读写事务（批量写入全部成功或全部回滚）
	WithTx(ctx context.Context, fn TxFunc) error
	// ReadSnapshot 只读 REPEATABLE READ 事务，多次查询看到同一快照
	ReadSnapshot(ctx context.Context, fn TxFunc) error
}

type gormTxManager struct {
	db *gorm.DB
}

// NewTxManager 创建基于 GORM 的 TxManager
func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) WithStaffLock(ctx context.Context, staffIDs []string, fn TxFunc) error {
	ids := uniqueSorted(staffIDs)

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 按 staff_id 升序加锁，避免两个事务交叉等待
		for _, id := range ids {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.StaffSchedulingLock{StaffID: id}).Error; err != nil {
				return fmt.Errorf("初始化保洁员锁失败: %w", err)
			}

			var lock model.StaffSchedulingLock
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("staff_id = ?", id).
				First(&lock).Error; err != nil {
				return fmt.Errorf("获取保洁员锁失败: %w", err)
			}
		}

		return fn(ctx, newRepository(tx, &gormTxManager{db: tx}))
	})
}

func (m *gormTxManager) WithTx(ctx context.Context, fn TxFunc) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, newRepository(tx, &gormTxManager{db: tx}))
	})
}

func (m *gormTxManager) ReadSnapshot(ctx context.Context, fn TxFunc) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, newRepository(tx, &gormTxManager{db: tx}))
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
