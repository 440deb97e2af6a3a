package db

import "gorm.io/gorm"

// WorkoutTemplate 定义了可复用的训练计划模板，不绑定日期
type WorkoutTemplate struct {
	gorm.Model
	UserID uint   `gorm:"index;not null"`
	Name   string `gorm:"not null"`
	Notes  string
}

// WorkoutItem 是模板内的一条计划动作。
// OrderIndex 从 1 开始且在模板内保持连续，增删后立即重排
// 力量类填 PlannedSets/Reps/Weight/RPE，有氧类填 PlannedMinutes/Distance
type WorkoutItem struct {
	gorm.Model
	WorkoutTemplateID uint `gorm:"index;not null"`
	ExerciseID        uint `gorm:"index;not null"`
	OrderIndex        int  `gorm:"index;not null;default:0"`

	PlannedSets   *int
	PlannedReps   *int
	PlannedWeight *float64
	PlannedRPE    *float64

	PlannedMinutes      *int
	PlannedDistance     *float64
	PlannedDistanceUnit string

	Notes string
}
