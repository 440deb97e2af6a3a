package service

import (
	"errors"
	"testing"

	"github.com/fitlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupImportTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestImportCreatesExerciseWithMuscles(t *testing.T) {
	cleanup := setupImportTestDB(t)
	defer cleanup()

	svc := NewImportService(db.DB)

	ex, created, err := svc.Import(1, ImportedExercise{
		Source:      "wger",
		SourceRef:   "345",
		Name:        "Barbell Bench Press",
		Category:    db.CategoryStrength,
		DefaultUnit: "kg",
		Muscles:     ImportedMuscles{Primary: []string{"chest"}, Secondary: []string{"triceps", "front_delts"}},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if !created {
		t.Fatal("expected a new exercise to be created")
	}
	if ex.Source != "wger" || ex.SourceRef != "345" {
		t.Fatalf("unexpected provenance: %s/%s", ex.Source, ex.SourceRef)
	}

	primary, secondary, err := NewExerciseService(db.DB).MusclesFor(ex.ID)
	if err != nil {
		t.Fatalf("MusclesFor returned error: %v", err)
	}
	if len(primary) != 1 || primary[0] != "chest" {
		t.Fatalf("unexpected primary muscles: %v", primary)
	}
	if len(secondary) != 2 {
		t.Fatalf("unexpected secondary muscles: %v", secondary)
	}

	// 肌群字典名从 slug 生成
	var muscle db.Muscle
	if err := db.DB.Where("slug = ?", "front_delts").First(&muscle).Error; err != nil {
		t.Fatalf("failed to load muscle: %v", err)
	}
	if muscle.Name != "Front Delts" {
		t.Fatalf("unexpected muscle name: %s", muscle.Name)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	cleanup := setupImportTestDB(t)
	defer cleanup()

	svc := NewImportService(db.DB)
	rec := ImportedExercise{Source: "wger", SourceRef: "345", Name: "Barbell Bench Press"}

	first, created, err := svc.Import(1, rec)
	if err != nil || !created {
		t.Fatalf("first import failed: created=%v err=%v", created, err)
	}

	// 同一 source_ref 重复导入返回已有记录
	second, created, err := svc.Import(1, rec)
	if err != nil {
		t.Fatalf("second import returned error: %v", err)
	}
	if created || second.ID != first.ID {
		t.Fatalf("expected dedupe by source ref, created=%v id=%d", created, second.ID)
	}

	// 缺 source_ref 时按名称去重
	third, created, err := svc.Import(1, ImportedExercise{Source: "wger", Name: "barbell BENCH press"})
	if err != nil {
		t.Fatalf("name dedupe import returned error: %v", err)
	}
	if created || third.ID != first.ID {
		t.Fatalf("expected dedupe by name, created=%v id=%d", created, third.ID)
	}

	// 其他用户各自独立
	_, created, err = svc.Import(2, rec)
	if err != nil {
		t.Fatalf("other user import returned error: %v", err)
	}
	if !created {
		t.Fatal("expected import to be scoped per user")
	}
}

func TestImportValidation(t *testing.T) {
	cleanup := setupImportTestDB(t)
	defer cleanup()

	svc := NewImportService(db.DB)

	if _, _, err := svc.Import(1, ImportedExercise{Source: "wger"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing name, got %v", err)
	}
	if _, _, err := svc.Import(1, ImportedExercise{Name: "Plank"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing source, got %v", err)
	}
	if _, _, err := svc.Import(1, ImportedExercise{Source: "wger", Name: "Plank", Category: "balance"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bad category, got %v", err)
	}
}
