package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fitlog/internal/db"
	"gorm.io/gorm"
)

const (
	defaultExerciseLimit = 50
	maxExerciseLimit     = 200
)

// ExerciseService 负责动作库的增删改查与引用检查
type ExerciseService struct {
	db *gorm.DB
}

// NewExerciseService 构造 ExerciseService
func NewExerciseService(gdb *gorm.DB) *ExerciseService {
	return &ExerciseService{db: gdb}
}

// ExerciseInput 定义创建动作时的字段
type ExerciseInput struct {
	Name        string
	Category    string
	DefaultUnit string
	Equipment   string
}

// ExerciseUpdate 定义部分更新，nil 字段保持原值
type ExerciseUpdate struct {
	Name        *string
	Category    *string
	DefaultUnit *string
	Equipment   *string
}

// ExerciseFilter 描述列表过滤与分页条件。
// 默认按 id 倒序，保证并发插入时翻页稳定；OrderByName 为显式选择
type ExerciseFilter struct {
	Query       string
	Category    string
	Limit       int
	Offset      int
	OrderByName bool
}

// ExerciseUsage 汇总一个动作被哪些模板和训练记录引用
type ExerciseUsage struct {
	ExerciseID   uint
	ExerciseName string
	Workouts     []UsageRef
	Sessions     []UsageRef
}

// UsageRef 是引用方的简要信息
type UsageRef struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Date  string `json:"date,omitempty"`
	Title string `json:"title,omitempty"`
}

// Create 新建动作。名称空白归一化后按用户做大小写不敏感查重，
// 数据库层 (user_id, name COLLATE NOCASE) 唯一索引兜底并发写入
func (s *ExerciseService) Create(userID uint, input ExerciseInput) (*db.Exercise, error) {
	name := normalizeWhitespace(input.Name)
	if name == "" {
		return nil, invalidf("name is required")
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = db.CategoryStrength
	}
	if !db.ValidCategory(category) {
		return nil, invalidf("invalid category %q", category)
	}

	var created db.Exercise
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.checkDuplicateName(tx, userID, name, 0); err != nil {
			return err
		}

		created = db.Exercise{
			UserID:      userID,
			Name:        name,
			Category:    category,
			DefaultUnit: normalizeWhitespace(input.DefaultUnit),
			Equipment:   normalizeWhitespace(input.Equipment),
			Source:      "local",
		}
		if err := tx.Create(&created).Error; err != nil {
			return mapUniqueViolation(err, "create exercise")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// List 返回当前用户的动作，支持名称子串与分类过滤
func (s *ExerciseService) List(userID uint, filter ExerciseFilter) ([]db.Exercise, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultExerciseLimit
	}
	if limit > maxExerciseLimit {
		limit = maxExerciseLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.db.Model(&db.Exercise{}).Where("user_id = ?", userID)

	if q := strings.TrimSpace(filter.Query); q != "" {
		like := fmt.Sprintf("%%%s%%", strings.ToLower(q))
		query = query.Where("lower(name) LIKE ?", like)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		if !db.ValidCategory(category) {
			return nil, invalidf("invalid category %q", category)
		}
		query = query.Where("category = ?", category)
	}

	if filter.OrderByName {
		query = query.Order("lower(name) ASC").Order("id ASC")
	} else {
		query = query.Order("id DESC")
	}

	var exercises []db.Exercise
	if err := query.Limit(limit).Offset(offset).Find(&exercises).Error; err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return exercises, nil
}

// Get 按 ID 读取当前用户的动作
func (s *ExerciseService) Get(userID, exerciseID uint) (*db.Exercise, error) {
	return ownedExercise(s.db, userID, exerciseID)
}

// Update 部分更新动作。只有名称实际变化时才重新查重
func (s *ExerciseService) Update(userID, exerciseID uint, update ExerciseUpdate) (*db.Exercise, error) {
	var updated db.Exercise
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ex, err := ownedExercise(tx, userID, exerciseID)
		if err != nil {
			return err
		}

		if update.Name != nil {
			name := normalizeWhitespace(*update.Name)
			if name == "" {
				return invalidf("name cannot be empty")
			}
			if !strings.EqualFold(name, ex.Name) {
				if err := s.checkDuplicateName(tx, userID, name, ex.ID); err != nil {
					return err
				}
			}
			ex.Name = name
		}
		if update.Category != nil {
			category := strings.TrimSpace(*update.Category)
			if !db.ValidCategory(category) {
				return invalidf("invalid category %q", category)
			}
			ex.Category = category
		}
		if update.DefaultUnit != nil {
			ex.DefaultUnit = normalizeWhitespace(*update.DefaultUnit)
		}
		if update.Equipment != nil {
			ex.Equipment = normalizeWhitespace(*update.Equipment)
		}

		if err := tx.Save(ex).Error; err != nil {
			return mapUniqueViolation(err, "update exercise")
		}
		updated = *ex
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete 删除动作。被任一模板条目或训练条目引用时整体回滚并返回冲突；
// 肌群关联行无引用风险，与动作行在同一事务内一并删除
func (s *ExerciseService) Delete(userID, exerciseID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		ex, err := ownedExercise(tx, userID, exerciseID)
		if err != nil {
			return err
		}

		var workoutRefs int64
		if err := tx.Model(&db.WorkoutItem{}).Where("exercise_id = ?", ex.ID).Count(&workoutRefs).Error; err != nil {
			return fmt.Errorf("count workout references: %w", err)
		}
		var sessionRefs int64
		if err := tx.Model(&db.SessionItem{}).Where("exercise_id = ?", ex.ID).Count(&sessionRefs).Error; err != nil {
			return fmt.Errorf("count session references: %w", err)
		}
		if workoutRefs > 0 || sessionRefs > 0 {
			return conflictf("exercise is referenced by workouts/sessions")
		}

		if err := tx.Where("exercise_id = ?", ex.ID).Delete(&db.ExerciseMuscle{}).Error; err != nil {
			return fmt.Errorf("delete muscle links: %w", err)
		}
		if err := tx.Unscoped().Delete(&db.Exercise{}, ex.ID).Error; err != nil {
			return fmt.Errorf("delete exercise: %w", err)
		}
		return nil
	})
}

// Usage 返回引用该动作的模板（按名称）与训练记录（按日期倒序）
func (s *ExerciseService) Usage(userID, exerciseID uint) (*ExerciseUsage, error) {
	ex, err := ownedExercise(s.db, userID, exerciseID)
	if err != nil {
		return nil, err
	}

	var templates []db.WorkoutTemplate
	if err := s.db.Model(&db.WorkoutTemplate{}).
		Joins("JOIN workout_items ON workout_items.workout_template_id = workout_templates.id").
		Where("workout_templates.user_id = ?", userID).
		Where("workout_items.exercise_id = ?", exerciseID).
		Group("workout_templates.id").
		Order("workout_templates.name ASC").
		Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list referencing templates: %w", err)
	}

	var sessions []db.Session
	if err := s.db.Model(&db.Session{}).
		Joins("JOIN session_items ON session_items.session_id = sessions.id").
		Where("sessions.user_id = ?", userID).
		Where("session_items.exercise_id = ?", exerciseID).
		Group("sessions.id").
		Order("sessions.date DESC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list referencing sessions: %w", err)
	}

	usage := &ExerciseUsage{ExerciseID: ex.ID, ExerciseName: ex.Name}
	for _, tpl := range templates {
		usage.Workouts = append(usage.Workouts, UsageRef{ID: tpl.ID, Name: tpl.Name})
	}
	for _, sess := range sessions {
		usage.Sessions = append(usage.Sessions, UsageRef{ID: sess.ID, Title: sess.Title, Date: sess.Date.Format("2006-01-02")})
	}
	return usage, nil
}

// MusclesFor 返回动作挂接的主/协同肌群 slug 列表
func (s *ExerciseService) MusclesFor(exerciseID uint) (primary, secondary []string, err error) {
	type linkRow struct {
		Slug string
		Role string
	}
	var rows []linkRow
	if err := s.db.Model(&db.ExerciseMuscle{}).
		Select("muscles.slug AS slug, exercise_muscles.role AS role").
		Joins("JOIN muscles ON muscles.id = exercise_muscles.muscle_id").
		Where("exercise_muscles.exercise_id = ?", exerciseID).
		Order("muscles.slug ASC").
		Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("list muscle links: %w", err)
	}

	for _, row := range rows {
		if row.Role == db.MuscleRoleSecondary {
			secondary = append(secondary, row.Slug)
		} else {
			primary = append(primary, row.Slug)
		}
	}
	return primary, secondary, nil
}

func (s *ExerciseService) checkDuplicateName(tx *gorm.DB, userID uint, name string, excludeID uint) error {
	query := tx.Model(&db.Exercise{}).
		Where("user_id = ?", userID).
		Where("lower(name) = ?", strings.ToLower(name))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check duplicate name: %w", err)
	}
	if count > 0 {
		return conflictf("exercise with that name already exists")
	}
	return nil
}

// mapUniqueViolation 把存储层唯一约束冲突翻译成 ErrConflict，
// 作为先查后插竞态下的兜底
func mapUniqueViolation(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return conflictf("exercise with that name already exists")
	}
	return fmt.Errorf("%s: %w", action, err)
}
