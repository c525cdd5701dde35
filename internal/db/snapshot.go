package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HabitSnapshot 以键值对形式存储习惯记录的完整快照。
// 整条记录序列化为一个 JSON 文本，挂在固定 Key 下，不做按字段拆分。
type HabitSnapshot struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (HabitSnapshot) TableName() string {
	return "habit_snapshots"
}

// SnapshotKeyHabitRecord 表示习惯记录快照的固定存储键。
const SnapshotKeyHabitRecord = "habit_record"

// SnapshotStore 提供快照的读取与写入能力。
// 同一个 Key 的写入采用 last-write-wins 覆盖语义。
type SnapshotStore struct {
	db *gorm.DB
}

// NewSnapshotStore 构造 SnapshotStore。
func NewSnapshotStore(gdb *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: gdb}
}

// Load 读取指定 Key 的快照内容；不存在时返回 found=false 而非错误。
func (s *SnapshotStore) Load(key string) (string, bool, error) {
	var snapshot HabitSnapshot
	if err := s.db.Where("key = ?", key).First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load snapshot: %w", err)
	}
	return snapshot.Value, true, nil
}

// Save 覆盖写入指定 Key 的快照内容，不存在时创建。
func (s *SnapshotStore) Save(key, value string) error {
	record := HabitSnapshot{Key: key, Value: value}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	return nil
}

// Delete 移除指定 Key 的快照；Key 不存在时同样视为成功。
func (s *SnapshotStore) Delete(key string) error {
	if err := s.db.Where("key = ?", key).Delete(&HabitSnapshot{}).Error; err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
