package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fitlog/internal/db"
	"gorm.io/gorm"
)

// ImportedExercise 是外部动作进入动作库时的归一化记录。
// 形状在入口处严格校验，未识别的分类直接拒绝
type ImportedExercise struct {
	Source      string          `json:"source"`
	SourceRef   string          `json:"source_ref"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	DefaultUnit string          `json:"default_unit"`
	Equipment   string          `json:"equipment"`
	Muscles     ImportedMuscles `json:"muscles"`
}

// ImportedMuscles 按角色列出肌群 slug
type ImportedMuscles struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
}

// ImportService 负责把归一化的外部动作写入当前用户的动作库。
// 去重优先用 (user, source, source_ref)，缺外部 ID 时退回名称匹配；
// 命中已有记录时直接返回，不报错也不重复插入
type ImportService struct {
	db *gorm.DB
}

// NewImportService 构造 ImportService
func NewImportService(gdb *gorm.DB) *ImportService {
	return &ImportService{db: gdb}
}

// Import 导入一条外部动作。返回的布尔值表示是否新建了记录
func (s *ImportService) Import(userID uint, rec ImportedExercise) (*db.Exercise, bool, error) {
	name := normalizeWhitespace(rec.Name)
	if name == "" {
		return nil, false, invalidf("name is required")
	}

	source := strings.ToLower(strings.TrimSpace(rec.Source))
	if source == "" {
		return nil, false, invalidf("source is required")
	}
	sourceRef := strings.TrimSpace(rec.SourceRef)

	category := strings.TrimSpace(rec.Category)
	if category == "" {
		category = db.CategoryStrength
	}
	if !db.ValidCategory(category) {
		return nil, false, invalidf("invalid category %q", category)
	}

	// 去重检查不需要事务，命中即返回已有记录
	if sourceRef != "" {
		var dup db.Exercise
		err := s.db.Where("user_id = ? AND source = ? AND source_ref = ?", userID, source, sourceRef).First(&dup).Error
		if err == nil {
			return &dup, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("check source ref: %w", err)
		}
	}

	var dup db.Exercise
	err := s.db.Where("user_id = ?", userID).Where("lower(name) = ?", strings.ToLower(name)).First(&dup).Error
	if err == nil {
		return &dup, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("check name: %w", err)
	}

	var created db.Exercise
	err = s.db.Transaction(func(tx *gorm.DB) error {
		muscles, err := ensureMuscles(tx, append(rec.Muscles.Primary, rec.Muscles.Secondary...))
		if err != nil {
			return err
		}

		created = db.Exercise{
			UserID:      userID,
			Name:        name,
			Category:    category,
			DefaultUnit: normalizeWhitespace(rec.DefaultUnit),
			Equipment:   normalizeWhitespace(rec.Equipment),
			Source:      source,
			SourceRef:   sourceRef,
		}
		if err := tx.Create(&created).Error; err != nil {
			return mapUniqueViolation(err, "create imported exercise")
		}

		if err := linkMuscles(tx, created.ID, rec.Muscles.Primary, muscles, db.MuscleRolePrimary); err != nil {
			return err
		}
		return linkMuscles(tx, created.ID, rec.Muscles.Secondary, muscles, db.MuscleRoleSecondary)
	})
	if err != nil {
		return nil, false, err
	}
	return &created, true, nil
}

// ensureMuscles 确保给定 slug 的肌群字典行都存在，返回 slug -> 记录的映射
func ensureMuscles(tx *gorm.DB, slugs []string) (map[string]db.Muscle, error) {
	out := make(map[string]db.Muscle, len(slugs))
	for _, raw := range slugs {
		slug := strings.ToLower(strings.TrimSpace(raw))
		if slug == "" {
			continue
		}
		if _, seen := out[slug]; seen {
			continue
		}

		var muscle db.Muscle
		err := tx.Where("slug = ?", slug).First(&muscle).Error
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			muscle = db.Muscle{Name: muscleNameFromSlug(slug), Slug: slug}
			if err := tx.Create(&muscle).Error; err != nil {
				return nil, fmt.Errorf("create muscle %s: %w", slug, err)
			}
		default:
			return nil, fmt.Errorf("load muscle %s: %w", slug, err)
		}
		out[slug] = muscle
	}
	return out, nil
}

func linkMuscles(tx *gorm.DB, exerciseID uint, slugs []string, muscles map[string]db.Muscle, role string) error {
	linked := make(map[uint]bool, len(slugs))
	for _, raw := range slugs {
		slug := strings.ToLower(strings.TrimSpace(raw))
		muscle, ok := muscles[slug]
		if !ok || linked[muscle.ID] {
			continue
		}
		link := db.ExerciseMuscle{ExerciseID: exerciseID, MuscleID: muscle.ID, Role: role}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("link muscle %s: %w", slug, err)
		}
		linked[muscle.ID] = true
	}
	return nil
}

// muscleNameFromSlug 把 "front_delts" 变成 "Front Delts"
func muscleNameFromSlug(slug string) string {
	words := strings.Split(slug, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
