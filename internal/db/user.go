package db

import "gorm.io/gorm"

// User 定义了用户模型，是所有权链的根。
// Email 统一存储为小写去空格的形式，数据库唯一索引兜底
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}
