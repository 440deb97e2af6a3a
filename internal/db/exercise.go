package db

import "gorm.io/gorm"

// 动作分类，对应力量/有氧/灵活性训练
const (
	CategoryStrength = "strength"
	CategoryCardio   = "cardio"
	CategoryMobility = "mobility"
)

// 肌群角色：主要发力或协同
const (
	MuscleRolePrimary   = "primary"
	MuscleRoleSecondary = "secondary"
)

// ValidCategory 校验分类枚举值
func ValidCategory(category string) bool {
	switch category {
	case CategoryStrength, CategoryCardio, CategoryMobility:
		return true
	}
	return false
}

// Exercise 定义了动作库模型，按用户隔离。
// Name 存储为空白归一化后的形式，(user_id, name) 唯一索引配合
// NOCASE 排序规则兜底大小写不敏感的重名检查
// Source 为 "local" 或外部提供方名称，SourceRef 保存外部 ID
type Exercise struct {
	gorm.Model
	UserID      uint   `gorm:"index;not null;uniqueIndex:idx_exercises_user_name"`
	Name        string `gorm:"type:TEXT COLLATE NOCASE;not null;uniqueIndex:idx_exercises_user_name"`
	Category    string `gorm:"not null;default:strength"`
	DefaultUnit string
	Equipment   string
	Source      string `gorm:"not null;default:local"`
	SourceRef   string
}

// Muscle 是全局肌群字典，不做用户隔离
type Muscle struct {
	gorm.Model
	Name string `gorm:"not null"`
	Slug string `gorm:"uniqueIndex;not null"`
}

// ExerciseMuscle 关联动作与肌群，复合主键避免重复挂接
type ExerciseMuscle struct {
	ExerciseID uint   `gorm:"primaryKey"`
	MuscleID   uint   `gorm:"primaryKey"`
	Role       string `gorm:"not null;default:primary"`
}

// TableName 保持关联表命名与其余表一致
func (ExerciseMuscle) TableName() string {
	return "exercise_muscles"
}
