package service

import (
	"errors"
	"testing"
	"time"

	"github.com/fitlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupExerciseTestDB(t *testing.T) func() {
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

func TestExerciseCreate(t *testing.T) {
	cleanup := setupExerciseTestDB(t)
	defer cleanup()

	svc := NewExerciseService(db.DB)

	ex, err := svc.Create(1, ExerciseInput{Name: "  Bench   Press  "})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if ex.Name != "Bench Press" {
		t.Fatalf("expected whitespace-normalized name, got %q", ex.Name)
	}
	if ex.Category != db.CategoryStrength {
		t.Fatalf("expected default category strength, got %s", ex.Category)
	}
	if ex.Source != "local" {
		t.Fatalf("expected source local, got %s", ex.Source)
	}

	// 大小写不敏感的重名
	if _, err := svc.Create(1, ExerciseInput{Name: "bench press"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate name, got %v", err)
	}

	// 其他用户可以用同名动作
	if _, err := svc.Create(2, ExerciseInput{Name: "Bench Press"}); err != nil {
		t.Fatalf("expected other user to reuse the name, got %v", err)
	}

	// 空名称与非法分类
	if _, err := svc.Create(1, ExerciseInput{Name: "   "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank name, got %v", err)
	}
	if _, err := svc.Create(1, ExerciseInput{Name: "Jump Rope", Category: "plyo"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bad category, got %v", err)
	}
}

func TestExerciseListFilters(t *testing.T) {
	cleanup := setupExerciseTestDB(t)
	defer cleanup()

	svc := NewExerciseService(db.DB)
	seed := []ExerciseInput{
		{Name: "Back Squat"},
		{Name: "Front Squat"},
		{Name: "Treadmill Run", Category: db.CategoryCardio},
	}
	for _, input := range seed {
		if _, err := svc.Create(1, input); err != nil {
			t.Fatalf("failed to seed exercise %s: %v", input.Name, err)
		}
	}
	if _, err := svc.Create(2, ExerciseInput{Name: "Deadlift"}); err != nil {
		t.Fatalf("failed to seed other user's exercise: %v", err)
	}

	all, err := svc.List(1, ExerciseFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 exercises, got %d", len(all))
	}

	squats, err := svc.List(1, ExerciseFilter{Query: "squat", OrderByName: true})
	if err != nil {
		t.Fatalf("List with query returned error: %v", err)
	}
	if len(squats) != 2 || squats[0].Name != "Back Squat" {
		t.Fatalf("unexpected squat results: %+v", squats)
	}

	cardio, err := svc.List(1, ExerciseFilter{Category: db.CategoryCardio})
	if err != nil {
		t.Fatalf("List with category returned error: %v", err)
	}
	if len(cardio) != 1 || cardio[0].Name != "Treadmill Run" {
		t.Fatalf("unexpected cardio results: %+v", cardio)
	}

	if _, err := svc.List(1, ExerciseFilter{Category: "bogus"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bad category filter, got %v", err)
	}
}

func TestExerciseUpdate(t *testing.T) {
	cleanup := setupExerciseTestDB(t)
	defer cleanup()

	svc := NewExerciseService(db.DB)
	bench, err := svc.Create(1, ExerciseInput{Name: "Bench Press"})
	if err != nil {
		t.Fatalf("failed to create exercise: %v", err)
	}
	if _, err := svc.Create(1, ExerciseInput{Name: "Overhead Press"}); err != nil {
		t.Fatalf("failed to create exercise: %v", err)
	}

	// 只改大小写不算重名
	newName := "BENCH PRESS"
	updated, err := svc.Update(1, bench.ID, ExerciseUpdate{Name: &newName})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Name != "BENCH PRESS" {
		t.Fatalf("expected case-only rename to apply, got %s", updated.Name)
	}

	// 改成已有名称要冲突
	conflict := "overhead press"
	if _, err := svc.Update(1, bench.ID, ExerciseUpdate{Name: &conflict}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// 其他用户访问不到
	if _, err := svc.Update(2, bench.ID, ExerciseUpdate{Name: &newName}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestExerciseDeleteBlockedWhenReferenced(t *testing.T) {
	cleanup := setupExerciseTestDB(t)
	defer cleanup()

	exSvc := NewExerciseService(db.DB)
	wkSvc := NewWorkoutService(db.DB)

	squat, err := exSvc.Create(1, ExerciseInput{Name: "Squat"})
	if err != nil {
		t.Fatalf("failed to create exercise: %v", err)
	}
	tpl, err := wkSvc.CreateTemplate(1, TemplateInput{Name: "Leg Day"})
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}
	if _, err := wkSvc.AppendItem(1, tpl.ID, WorkoutItemInput{ExerciseID: squat.ID}); err != nil {
		t.Fatalf("failed to append item: %v", err)
	}

	if err := exSvc.Delete(1, squat.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for referenced exercise, got %v", err)
	}

	// 解除引用后可以删除
	items, err := wkSvc.ListItems(1, tpl.ID)
	if err != nil {
		t.Fatalf("failed to list items: %v", err)
	}
	if err := wkSvc.DeleteItem(1, items[0].ID); err != nil {
		t.Fatalf("failed to delete item: %v", err)
	}
	if err := exSvc.Delete(1, squat.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := exSvc.Get(1, squat.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestExerciseUsage(t *testing.T) {
	cleanup := setupExerciseTestDB(t)
	defer cleanup()

	exSvc := NewExerciseService(db.DB)
	wkSvc := NewWorkoutService(db.DB)
	sessSvc := NewSessionService(db.DB)

	squat, err := exSvc.Create(1, ExerciseInput{Name: "Squat"})
	if err != nil {
		t.Fatalf("failed to create exercise: %v", err)
	}
	tpl, err := wkSvc.CreateTemplate(1, TemplateInput{Name: "Leg Day"})
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}
	if _, err := wkSvc.AppendItem(1, tpl.ID, WorkoutItemInput{ExerciseID: squat.ID}); err != nil {
		t.Fatalf("failed to append item: %v", err)
	}

	sess, err := sessSvc.Create(1, SessionInput{Date: time.Now(), Title: "Morning"})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if _, err := sessSvc.AddItem(1, sess.ID, squat.ID, ""); err != nil {
		t.Fatalf("failed to add session item: %v", err)
	}

	usage, err := exSvc.Usage(1, squat.ID)
	if err != nil {
		t.Fatalf("Usage returned error: %v", err)
	}
	if len(usage.Workouts) != 1 || usage.Workouts[0].Name != "Leg Day" {
		t.Fatalf("unexpected workout refs: %+v", usage.Workouts)
	}
	if len(usage.Sessions) != 1 || usage.Sessions[0].Title != "Morning" {
		t.Fatalf("unexpected session refs: %+v", usage.Sessions)
	}
}
