package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fitlog/internal/db"
	"gorm.io/gorm"
)

// SessionService 负责训练记录的创建、查询与维护。
// 从模板创建时按值拷贝条目快照，之后模板的任何修改都不回写历史记录
type SessionService struct {
	db *gorm.DB
}

// NewSessionService 构造 SessionService
func NewSessionService(gdb *gorm.DB) *SessionService {
	return &SessionService{db: gdb}
}

// SessionInput 定义创建训练记录的字段。
// WorkoutTemplateID 非空时把模板条目克隆为记录条目
type SessionInput struct {
	Date              time.Time
	Title             string
	Notes             string
	WorkoutTemplateID *uint
}

// SessionFilter 描述列表的日期过滤条件
type SessionFilter struct {
	On    *time.Time
	Start *time.Time
	End   *time.Time
}

// SessionItemView 是带动作名称与分类的条目视图
type SessionItemView struct {
	ID               uint   `json:"id"`
	SessionID        uint   `json:"session_id"`
	ExerciseID       uint   `json:"exercise_id"`
	OrderIndex       int    `json:"order_index"`
	Notes            string `json:"notes"`
	ExerciseName     string `json:"exercise_name"`
	ExerciseCategory string `json:"exercise_category"`
}

// SessionItemUpdate 定义条目的部分更新
type SessionItemUpdate struct {
	Notes      *string
	OrderIndex *int
}

// SessionSetInput 定义一组力量实际数据
type SessionSetInput struct {
	Reps   *int
	Weight *float64
	RPE    *float64
}

// SessionCardioInput 定义有氧实际数据
type SessionCardioInput struct {
	Minutes      *int
	Distance     *float64
	DistanceUnit string
	AvgHR        *int
	AvgPace      string
}

// Create 创建训练记录。日期不得晚于当天；指定模板时在同一事务内
// 按 order_index 升序克隆其条目，序号重新从 1 连续编号。
// 计划量（组数/次数/重量）不拷贝，实际数据另行记录；条目备注也不拷贝
func (s *SessionService) Create(userID uint, input SessionInput) (*db.Session, error) {
	date := dateOnly(input.Date)
	if date.After(today()) {
		return nil, invalidf("you can only log sessions for today or earlier")
	}

	var created db.Session
	err := s.db.Transaction(func(tx *gorm.DB) error {
		title := strings.TrimSpace(input.Title)

		var tpl *db.WorkoutTemplate
		if input.WorkoutTemplateID != nil {
			var err error
			tpl, err = ownedTemplate(tx, userID, *input.WorkoutTemplateID)
			if err != nil {
				return err
			}
			if title == "" {
				title = tpl.Name
			}
		}

		created = db.Session{
			UserID:            userID,
			Date:              date,
			Title:             title,
			Notes:             strings.TrimSpace(input.Notes),
			WorkoutTemplateID: input.WorkoutTemplateID,
			Status:            db.SessionStatusCompleted,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		if tpl == nil {
			return nil
		}

		items, err := templateItemsOrdered(tx, tpl.ID)
		if err != nil {
			return err
		}
		for idx, src := range items {
			clone := db.SessionItem{
				SessionID:  created.ID,
				ExerciseID: src.ExerciseID,
				OrderIndex: idx + 1,
			}
			if err := tx.Create(&clone).Error; err != nil {
				return fmt.Errorf("clone template item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// List 返回当前用户的训练记录，按日期倒序、id 倒序
func (s *SessionService) List(userID uint, filter SessionFilter) ([]db.Session, error) {
	query := s.db.Model(&db.Session{}).Where("user_id = ?", userID)
	if filter.On != nil {
		query = query.Where("date = ?", dateOnly(*filter.On))
	}
	if filter.Start != nil {
		query = query.Where("date >= ?", dateOnly(*filter.Start))
	}
	if filter.End != nil {
		query = query.Where("date <= ?", dateOnly(*filter.End))
	}

	var sessions []db.Session
	if err := query.Order("date DESC").Order("id DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Get 按 ID 读取当前用户的训练记录
func (s *SessionService) Get(userID, sessionID uint) (*db.Session, error) {
	return ownedSession(s.db, userID, sessionID)
}

// Delete 级联删除训练记录及其全部条目和实际数据，同一事务内完成
func (s *SessionService) Delete(userID, sessionID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		sess, err := ownedSession(tx, userID, sessionID)
		if err != nil {
			return err
		}

		var itemIDs []uint
		if err := tx.Model(&db.SessionItem{}).
			Where("session_id = ?", sess.ID).
			Pluck("id", &itemIDs).Error; err != nil {
			return fmt.Errorf("list item ids: %w", err)
		}

		if len(itemIDs) > 0 {
			if err := tx.Unscoped().Where("session_item_id IN ?", itemIDs).Delete(&db.SessionSet{}).Error; err != nil {
				return fmt.Errorf("delete session sets: %w", err)
			}
			if err := tx.Unscoped().Where("session_item_id IN ?", itemIDs).Delete(&db.SessionCardio{}).Error; err != nil {
				return fmt.Errorf("delete session cardio: %w", err)
			}
			if err := tx.Unscoped().Where("session_id = ?", sess.ID).Delete(&db.SessionItem{}).Error; err != nil {
				return fmt.Errorf("delete session items: %w", err)
			}
		}

		if err := tx.Unscoped().Delete(&db.Session{}, sess.ID).Error; err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// AddItem 向已有记录追加条目。记录日期再次校验不晚于当天，
// 动作必须属于当前用户
func (s *SessionService) AddItem(userID, sessionID, exerciseID uint, notes string) (*db.SessionItem, error) {
	var created db.SessionItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sess, err := ownedSession(tx, userID, sessionID)
		if err != nil {
			return err
		}
		if dateOnly(sess.Date).After(today()) {
			return invalidf("this session is future-dated and cannot be modified")
		}
		if _, err := ownedExercise(tx, userID, exerciseID); err != nil {
			return err
		}

		var maxOrder int
		row := tx.Model(&db.SessionItem{}).
			Where("session_id = ?", sess.ID).
			Select("COALESCE(MAX(order_index), 0)").
			Row()
		if err := row.Scan(&maxOrder); err != nil {
			return fmt.Errorf("read max order: %w", err)
		}

		created = db.SessionItem{
			SessionID:  sess.ID,
			ExerciseID: exerciseID,
			OrderIndex: maxOrder + 1,
			Notes:      strings.TrimSpace(notes),
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create session item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ListItems 返回记录条目，带动作名称与分类，按 order_index 升序
func (s *SessionService) ListItems(userID, sessionID uint) ([]SessionItemView, error) {
	if _, err := ownedSession(s.db, userID, sessionID); err != nil {
		return nil, err
	}

	var views []SessionItemView
	if err := s.db.Model(&db.SessionItem{}).
		Select("session_items.id AS id, session_items.session_id AS session_id, session_items.exercise_id AS exercise_id, session_items.order_index AS order_index, session_items.notes AS notes, exercises.name AS exercise_name, exercises.category AS exercise_category").
		Joins("LEFT JOIN exercises ON exercises.id = session_items.exercise_id").
		Where("session_items.session_id = ?", sessionID).
		Order("session_items.order_index ASC").Order("session_items.id ASC").
		Find(&views).Error; err != nil {
		return nil, fmt.Errorf("list session items: %w", err)
	}
	return views, nil
}

// UpdateItem 更新条目备注或序号；记录为未来日期时拒绝修改
func (s *SessionService) UpdateItem(userID, sessionID, itemID uint, update SessionItemUpdate) (*db.SessionItem, error) {
	var updated db.SessionItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, sess, err := ownedSessionItem(tx, userID, sessionID, itemID)
		if err != nil {
			return err
		}
		if dateOnly(sess.Date).After(today()) {
			return invalidf("this session is future-dated and cannot be modified")
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
			return fmt.Errorf("update session item: %w", err)
		}
		updated = *item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteItem 删除条目及其全部实际数据，同一事务内完成并重排剩余条目
func (s *SessionService) DeleteItem(userID, sessionID, itemID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		item, sess, err := ownedSessionItem(tx, userID, sessionID, itemID)
		if err != nil {
			return err
		}

		if err := tx.Unscoped().Where("session_item_id = ?", item.ID).Delete(&db.SessionSet{}).Error; err != nil {
			return fmt.Errorf("delete item sets: %w", err)
		}
		if err := tx.Unscoped().Where("session_item_id = ?", item.ID).Delete(&db.SessionCardio{}).Error; err != nil {
			return fmt.Errorf("delete item cardio: %w", err)
		}
		if err := tx.Unscoped().Delete(&db.SessionItem{}, item.ID).Error; err != nil {
			return fmt.Errorf("delete session item: %w", err)
		}

		return resequenceSessionItems(tx, sess.ID)
	})
}

// AddSet 为条目追加一组力量实际数据，组号取当前最大值加一
func (s *SessionService) AddSet(userID, sessionID, itemID uint, input SessionSetInput) (*db.SessionSet, error) {
	var created db.SessionSet
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, _, err := ownedSessionItem(tx, userID, sessionID, itemID)
		if err != nil {
			return err
		}

		var maxNumber int
		row := tx.Model(&db.SessionSet{}).
			Where("session_item_id = ?", item.ID).
			Select("COALESCE(MAX(set_number), 0)").
			Row()
		if err := row.Scan(&maxNumber); err != nil {
			return fmt.Errorf("read max set number: %w", err)
		}

		created = db.SessionSet{
			SessionItemID: item.ID,
			SetNumber:     maxNumber + 1,
			Reps:          input.Reps,
			Weight:        input.Weight,
			RPE:           input.RPE,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create session set: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ListSets 返回条目的全部实际组，按组号升序
func (s *SessionService) ListSets(userID, sessionID, itemID uint) ([]db.SessionSet, error) {
	item, _, err := ownedSessionItem(s.db, userID, sessionID, itemID)
	if err != nil {
		return nil, err
	}

	var sets []db.SessionSet
	if err := s.db.Where("session_item_id = ?", item.ID).
		Order("set_number ASC").Order("id ASC").
		Find(&sets).Error; err != nil {
		return nil, fmt.Errorf("list session sets: %w", err)
	}
	return sets, nil
}

// DeleteSet 删除一组实际数据并把剩余组号重排为 1..N
func (s *SessionService) DeleteSet(userID, sessionID, itemID, setID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		item, _, err := ownedSessionItem(tx, userID, sessionID, itemID)
		if err != nil {
			return err
		}

		var set db.SessionSet
		if err := tx.Where("id = ? AND session_item_id = ?", setID, item.ID).First(&set).Error; err != nil {
			return notFoundOr(err, "load session set")
		}
		if err := tx.Unscoped().Delete(&db.SessionSet{}, set.ID).Error; err != nil {
			return fmt.Errorf("delete session set: %w", err)
		}

		var sets []db.SessionSet
		if err := tx.Where("session_item_id = ?", item.ID).
			Order("set_number ASC").Order("id ASC").
			Find(&sets).Error; err != nil {
			return fmt.Errorf("load sets for resequence: %w", err)
		}
		for idx, remaining := range sets {
			want := idx + 1
			if remaining.SetNumber == want {
				continue
			}
			if err := tx.Model(&db.SessionSet{}).
				Where("id = ?", remaining.ID).
				Update("set_number", want).Error; err != nil {
				return fmt.Errorf("resequence set: %w", err)
			}
		}
		return nil
	})
}

// UpsertCardio 写入条目的有氧实际数据，每个条目至多一行
func (s *SessionService) UpsertCardio(userID, sessionID, itemID uint, input SessionCardioInput) (*db.SessionCardio, error) {
	var saved db.SessionCardio
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, _, err := ownedSessionItem(tx, userID, sessionID, itemID)
		if err != nil {
			return err
		}

		var existing db.SessionCardio
		err = tx.Where("session_item_id = ?", item.ID).First(&existing).Error
		switch {
		case err == nil:
			existing.Minutes = input.Minutes
			existing.Distance = input.Distance
			existing.DistanceUnit = strings.TrimSpace(input.DistanceUnit)
			existing.AvgHR = input.AvgHR
			existing.AvgPace = strings.TrimSpace(input.AvgPace)
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("update session cardio: %w", err)
			}
			saved = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			saved = db.SessionCardio{
				SessionItemID: item.ID,
				Minutes:       input.Minutes,
				Distance:      input.Distance,
				DistanceUnit:  strings.TrimSpace(input.DistanceUnit),
				AvgHR:         input.AvgHR,
				AvgPace:       strings.TrimSpace(input.AvgPace),
			}
			if err := tx.Create(&saved).Error; err != nil {
				return fmt.Errorf("create session cardio: %w", err)
			}
		default:
			return fmt.Errorf("load session cardio: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetCardio 读取条目的有氧实际数据
func (s *SessionService) GetCardio(userID, sessionID, itemID uint) (*db.SessionCardio, error) {
	item, _, err := ownedSessionItem(s.db, userID, sessionID, itemID)
	if err != nil {
		return nil, err
	}

	var cardio db.SessionCardio
	if err := s.db.Where("session_item_id = ?", item.ID).First(&cardio).Error; err != nil {
		return nil, notFoundOr(err, "load session cardio")
	}
	return &cardio, nil
}

// resequenceSessionItems 把记录条目重排为连续的 1..N，保持相对顺序
func resequenceSessionItems(tx *gorm.DB, sessionID uint) error {
	var items []db.SessionItem
	if err := tx.Where("session_id = ?", sessionID).
		Order("order_index ASC").Order("id ASC").
		Find(&items).Error; err != nil {
		return fmt.Errorf("load items for resequence: %w", err)
	}

	for idx, item := range items {
		want := idx + 1
		if item.OrderIndex == want {
			continue
		}
		if err := tx.Model(&db.SessionItem{}).
			Where("id = ?", item.ID).
			Update("order_index", want).Error; err != nil {
			return fmt.Errorf("resequence item: %w", err)
		}
	}
	return nil
}
