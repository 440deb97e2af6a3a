package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fitlog/internal/db"
	"gorm.io/gorm"
)

// normalizeWhitespace 去除首尾空白并把内部连续空白压缩为单个空格。
// "Bench  Press" 与 " bench press " 归一化后只差大小写
func normalizeWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// dateOnly 截断到当天零点，训练日期只保留日期语义
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func today() time.Time {
	return dateOnly(time.Now().In(time.Local))
}

// notFoundOr 把 gorm 的记录缺失统一映射为 ErrNotFound，
// 其余错误原样包装后返回
func notFoundOr(err error, wrap string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return wrapf(wrap, err)
}

func wrapf(action string, err error) error {
	return fmt.Errorf("%s: %w", action, err)
}

// 以下是统一的所有权校验入口：按 (id, user_id) 限定查询，
// 行缺失与行属于他人返回同一个 ErrNotFound，避免泄露存在性。
// 子实体（条目、组数据）先沿父链上溯到根再作比较。

func ownedExercise(tx *gorm.DB, userID, exerciseID uint) (*db.Exercise, error) {
	var ex db.Exercise
	if err := tx.Where("id = ? AND user_id = ?", exerciseID, userID).First(&ex).Error; err != nil {
		return nil, notFoundOr(err, "load exercise")
	}
	return &ex, nil
}

func ownedTemplate(tx *gorm.DB, userID, templateID uint) (*db.WorkoutTemplate, error) {
	var tpl db.WorkoutTemplate
	if err := tx.Where("id = ? AND user_id = ?", templateID, userID).First(&tpl).Error; err != nil {
		return nil, notFoundOr(err, "load template")
	}
	return &tpl, nil
}

func ownedSession(tx *gorm.DB, userID, sessionID uint) (*db.Session, error) {
	var sess db.Session
	if err := tx.Where("id = ? AND user_id = ?", sessionID, userID).First(&sess).Error; err != nil {
		return nil, notFoundOr(err, "load session")
	}
	return &sess, nil
}

// ownedTemplateItem 沿 条目 -> 模板 -> 用户 的链路校验所有权
func ownedTemplateItem(tx *gorm.DB, userID, itemID uint) (*db.WorkoutItem, *db.WorkoutTemplate, error) {
	var item db.WorkoutItem
	if err := tx.First(&item, itemID).Error; err != nil {
		return nil, nil, notFoundOr(err, "load template item")
	}
	tpl, err := ownedTemplate(tx, userID, item.WorkoutTemplateID)
	if err != nil {
		return nil, nil, err
	}
	return &item, tpl, nil
}

// ownedSessionItem 沿 条目 -> 训练记录 -> 用户 的链路校验所有权
func ownedSessionItem(tx *gorm.DB, userID, sessionID, itemID uint) (*db.SessionItem, *db.Session, error) {
	var item db.SessionItem
	if err := tx.First(&item, itemID).Error; err != nil {
		return nil, nil, notFoundOr(err, "load session item")
	}
	if item.SessionID != sessionID {
		return nil, nil, ErrNotFound
	}
	sess, err := ownedSession(tx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return &item, sess, nil
}
