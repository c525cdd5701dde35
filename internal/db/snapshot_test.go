package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSnapshotTestDB(t *testing.T) (*SnapshotStore, func()) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&HabitSnapshot{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return NewSnapshotStore(gdb), func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestSnapshotStoreLoadMissing(t *testing.T) {
	store, cleanup := setupSnapshotTestDB(t)
	defer cleanup()

	value, found, err := store.Load(SnapshotKeyHabitRecord)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if found {
		t.Fatalf("expected missing snapshot, got value %q", value)
	}
}

func TestSnapshotStoreSaveAndOverwrite(t *testing.T) {
	store, cleanup := setupSnapshotTestDB(t)
	defer cleanup()

	if err := store.Save(SnapshotKeyHabitRecord, `{"habitName":"戒糖"}`); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	// 同一 Key 的第二次写入应覆盖而不是新增
	if err := store.Save(SnapshotKeyHabitRecord, `{"habitName":"少喝咖啡"}`); err != nil {
		t.Fatalf("Save overwrite returned error: %v", err)
	}

	value, found, err := store.Load(SnapshotKeyHabitRecord)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !found {
		t.Fatal("expected snapshot to exist")
	}
	if value != `{"habitName":"少喝咖啡"}` {
		t.Fatalf("unexpected snapshot value: %s", value)
	}

	var count int64
	store.db.Model(&HabitSnapshot{}).Where("key = ?", SnapshotKeyHabitRecord).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 snapshot row, got %d", count)
	}
}

func TestSnapshotStoreDelete(t *testing.T) {
	store, cleanup := setupSnapshotTestDB(t)
	defer cleanup()

	if err := store.Save("other_key", "{}"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if err := store.Delete("other_key"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, found, _ := store.Load("other_key"); found {
		t.Fatal("expected snapshot to be deleted")
	}

	// 删除不存在的 Key 不应报错
	if err := store.Delete("missing_key"); err != nil {
		t.Fatalf("Delete of missing key returned error: %v", err)
	}
}
