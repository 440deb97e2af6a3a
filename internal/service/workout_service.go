package service

import (
	"fmt"
	"strings"

	"github.com/fitlog/internal/db"
	"gorm.io/gorm"
)

// WorkoutService 负责训练模板及其条目的管理。
// 模板内条目的 order_index 保持 1..N 连续，增删后立即重排
type WorkoutService struct {
	db *gorm.DB
}

// NewWorkoutService 构造 WorkoutService
func NewWorkoutService(gdb *gorm.DB) *WorkoutService {
	return &WorkoutService{db: gdb}
}

// TemplateInput 定义创建模板时的字段
type TemplateInput struct {
	Name  string
	Notes string
}

// WorkoutItemInput 定义追加条目时的计划字段
type WorkoutItemInput struct {
	ExerciseID          uint
	PlannedSets         *int
	PlannedReps         *int
	PlannedWeight       *float64
	PlannedRPE          *float64
	PlannedMinutes      *int
	PlannedDistance     *float64
	PlannedDistanceUnit string
	Notes               string
}

// WorkoutItemUpdate 定义条目的部分更新，nil 字段保持原值。
// OrderIndex 只有显式给出时才改变
type WorkoutItemUpdate struct {
	PlannedSets         *int
	PlannedReps         *int
	PlannedWeight       *float64
	PlannedRPE          *float64
	PlannedMinutes      *int
	PlannedDistance     *float64
	PlannedDistanceUnit *string
	Notes               *string
	OrderIndex          *int
}

// MuscleSummary 汇总模板覆盖的肌群，slug -> 引用次数
type MuscleSummary struct {
	TemplateID uint           `json:"template_id"`
	Primary    map[string]int `json:"primary"`
	Secondary  map[string]int `json:"secondary"`
}

// ListTemplates 返回当前用户的模板，支持名称子串过滤
func (s *WorkoutService) ListTemplates(userID uint, query string) ([]db.WorkoutTemplate, error) {
	stmt := s.db.Model(&db.WorkoutTemplate{}).Where("user_id = ?", userID)
	if q := strings.TrimSpace(query); q != "" {
		stmt = stmt.Where("lower(name) LIKE ?", fmt.Sprintf("%%%s%%", strings.ToLower(q)))
	}

	var templates []db.WorkoutTemplate
	if err := stmt.Order("created_at DESC").Order("id DESC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// CreateTemplate 新建训练模板
func (s *WorkoutService) CreateTemplate(userID uint, input TemplateInput) (*db.WorkoutTemplate, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalidf("name is required")
	}

	tpl := db.WorkoutTemplate{
		UserID: userID,
		Name:   name,
		Notes:  strings.TrimSpace(input.Notes),
	}
	if err := s.db.Create(&tpl).Error; err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return &tpl, nil
}

// GetTemplate 按 ID 读取当前用户的模板
func (s *WorkoutService) GetTemplate(userID, templateID uint) (*db.WorkoutTemplate, error) {
	return ownedTemplate(s.db, userID, templateID)
}

// DeleteTemplate 删除模板并级联删除其全部条目，同一事务内完成
func (s *WorkoutService) DeleteTemplate(userID, templateID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		tpl, err := ownedTemplate(tx, userID, templateID)
		if err != nil {
			return err
		}

		if err := tx.Unscoped().Where("workout_template_id = ?", tpl.ID).Delete(&db.WorkoutItem{}).Error; err != nil {
			return fmt.Errorf("delete template items: %w", err)
		}
		if err := tx.Unscoped().Delete(&db.WorkoutTemplate{}, tpl.ID).Error; err != nil {
			return fmt.Errorf("delete template: %w", err)
		}
		return nil
	})
}

// ListItems 返回模板条目，按 order_index 升序、id 升序
func (s *WorkoutService) ListItems(userID, templateID uint) ([]db.WorkoutItem, error) {
	if _, err := ownedTemplate(s.db, userID, templateID); err != nil {
		return nil, err
	}
	return templateItemsOrdered(s.db, templateID)
}

// AppendItem 在模板末尾追加条目：取 max(order_index)+1 插入后整体重排，
// 抵御历史数据里可能存在的空洞
func (s *WorkoutService) AppendItem(userID, templateID uint, input WorkoutItemInput) (*db.WorkoutItem, error) {
	var created db.WorkoutItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		tpl, err := ownedTemplate(tx, userID, templateID)
		if err != nil {
			return err
		}
		if _, err := ownedExercise(tx, userID, input.ExerciseID); err != nil {
			return err
		}

		var maxOrder int
		row := tx.Model(&db.WorkoutItem{}).
			Where("workout_template_id = ?", tpl.ID).
			Select("COALESCE(MAX(order_index), 0)").
			Row()
		if err := row.Scan(&maxOrder); err != nil {
			return fmt.Errorf("read max order: %w", err)
		}

		created = db.WorkoutItem{
			WorkoutTemplateID:   tpl.ID,
			ExerciseID:          input.ExerciseID,
			OrderIndex:          maxOrder + 1,
			PlannedSets:         input.PlannedSets,
			PlannedReps:         input.PlannedReps,
			PlannedWeight:       input.PlannedWeight,
			PlannedRPE:          input.PlannedRPE,
			PlannedMinutes:      input.PlannedMinutes,
			PlannedDistance:     input.PlannedDistance,
			PlannedDistanceUnit: strings.TrimSpace(input.PlannedDistanceUnit),
			Notes:               strings.TrimSpace(input.Notes),
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create template item: %w", err)
		}

		return resequenceTemplateItems(tx, tpl.ID, "order_index ASC, id ASC")
	})
	if err != nil {
		return nil, err
	}

	// 重排可能调整了新条目自身的序号，返回前重读
	if err := s.db.First(&created, created.ID).Error; err != nil {
		return nil, fmt.Errorf("reload template item: %w", err)
	}
	return &created, nil
}

// UpdateItem 更新条目计划字段；不显式传 OrderIndex 时序号不变
func (s *WorkoutService) UpdateItem(userID, itemID uint, update WorkoutItemUpdate) (*db.WorkoutItem, error) {
	var updated db.WorkoutItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, _, err := ownedTemplateItem(tx, userID, itemID)
		if err != nil {
			return err
		}

		if update.PlannedSets != nil {
			item.PlannedSets = update.PlannedSets
		}
		if update.PlannedReps != nil {
			item.PlannedReps = update.PlannedReps
		}
		if update.PlannedWeight != nil {
			item.PlannedWeight = update.PlannedWeight
		}
		if update.PlannedRPE != nil {
			item.PlannedRPE = update.PlannedRPE
		}
		if update.PlannedMinutes != nil {
			item.PlannedMinutes = update.PlannedMinutes
		}
		if update.PlannedDistance != nil {
			item.PlannedDistance = update.PlannedDistance
		}
		if update.PlannedDistanceUnit != nil {
			item.PlannedDistanceUnit = strings.TrimSpace(*update.PlannedDistanceUnit)
		}
		if update.Notes != nil {
			item.Notes = strings.TrimSpace(*update.Notes)
		}
		if update.OrderIndex != nil {
			if *update.OrderIndex < 1 {
				return invalidf("order_index must be positive")
			}
			item.OrderIndex = *update.OrderIndex
		}

		if err := tx.Save(item).Error; err != nil {
			return fmt.Errorf("update template item: %w", err)
		}
		updated = *item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteItem 删除条目并把剩余条目重排为 1..N，保持相对顺序
func (s *WorkoutService) DeleteItem(userID, itemID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		item, tpl, err := ownedTemplateItem(tx, userID, itemID)
		if err != nil {
			return err
		}

		if err := tx.Unscoped().Delete(&db.WorkoutItem{}, item.ID).Error; err != nil {
			return fmt.Errorf("delete template item: %w", err)
		}

		return resequenceTemplateItems(tx, tpl.ID, "order_index ASC, id ASC")
	})
}

// Resequence 按创建顺序（id 升序）重排模板条目，用作独立的修复操作
func (s *WorkoutService) Resequence(userID, templateID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		tpl, err := ownedTemplate(tx, userID, templateID)
		if err != nil {
			return err
		}
		return resequenceTemplateItems(tx, tpl.ID, "id ASC")
	})
}

// TemplateMuscles 统计模板内全部动作覆盖的主/协同肌群
func (s *WorkoutService) TemplateMuscles(userID, templateID uint) (*MuscleSummary, error) {
	tpl, err := ownedTemplate(s.db, userID, templateID)
	if err != nil {
		return nil, err
	}

	summary := &MuscleSummary{
		TemplateID: tpl.ID,
		Primary:    map[string]int{},
		Secondary:  map[string]int{},
	}

	type linkRow struct {
		Slug string
		Role string
	}
	var rows []linkRow
	if err := s.db.Model(&db.ExerciseMuscle{}).
		Select("muscles.slug AS slug, exercise_muscles.role AS role").
		Joins("JOIN muscles ON muscles.id = exercise_muscles.muscle_id").
		Joins("JOIN workout_items ON workout_items.exercise_id = exercise_muscles.exercise_id").
		Where("workout_items.workout_template_id = ?", tpl.ID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list template muscles: %w", err)
	}

	for _, row := range rows {
		if row.Role == db.MuscleRoleSecondary {
			summary.Secondary[row.Slug]++
		} else {
			summary.Primary[row.Slug]++
		}
	}
	return summary, nil
}

func templateItemsOrdered(tx *gorm.DB, templateID uint) ([]db.WorkoutItem, error) {
	var items []db.WorkoutItem
	if err := tx.Where("workout_template_id = ?", templateID).
		Order("order_index ASC").Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list template items: %w", err)
	}
	return items, nil
}

// resequenceTemplateItems 按给定顺序把条目重新编号为连续的 1..N
func resequenceTemplateItems(tx *gorm.DB, templateID uint, order string) error {
	var items []db.WorkoutItem
	if err := tx.Where("workout_template_id = ?", templateID).
		Order(order).
		Find(&items).Error; err != nil {
		return fmt.Errorf("load items for resequence: %w", err)
	}

	for idx, item := range items {
		want := idx + 1
		if item.OrderIndex == want {
			continue
		}
		if err := tx.Model(&db.WorkoutItem{}).
			Where("id = ?", item.ID).
			Update("order_index", want).Error; err != nil {
			return fmt.Errorf("resequence item: %w", err)
		}
	}
	return nil
}
