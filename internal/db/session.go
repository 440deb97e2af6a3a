package db

import (
	"time"

	"gorm.io/gorm"
)

// 训练记录状态。本系统先练后记，默认 completed；
// draft 预留给未来的先排程后打卡入口
const (
	SessionStatusDraft     = "draft"
	SessionStatusCompleted = "completed"
)

// Session 定义了一次实际完成的训练记录，日期不能晚于当天。
// WorkoutTemplateID 仅记录来源模板，条目是创建时的值拷贝
type Session struct {
	gorm.Model
	UserID            uint      `gorm:"index;not null"`
	Date              time.Time `gorm:"index;not null"`
	Title             string
	Notes             string
	WorkoutTemplateID *uint
	Status            string `gorm:"not null;default:completed"`
}

// SessionItem 是训练记录内按顺序执行的一个动作。
// 与模板条目无引用关系，模板后续修改不影响历史记录
type SessionItem struct {
	gorm.Model
	SessionID  uint `gorm:"index;not null"`
	ExerciseID uint `gorm:"index;not null"`
	OrderIndex int  `gorm:"index;not null;default:0"`
	Notes      string
}

// SessionSet 记录力量动作的实际完成组，SetNumber 从 1 开始
type SessionSet struct {
	gorm.Model
	SessionItemID uint `gorm:"index;not null"`
	SetNumber     int  `gorm:"not null;default:1"`
	Reps          *int
	Weight        *float64
	RPE           *float64
}

// SessionCardio 记录有氧动作的实际数据，每个条目至多一行
// AvgPace 以 "mm:ss/km" 文本保存
type SessionCardio struct {
	gorm.Model
	SessionItemID uint `gorm:"uniqueIndex;not null"`
	Minutes       *int
	Distance      *float64
	DistanceUnit  string
	AvgHR         *int
	AvgPace       string
}
