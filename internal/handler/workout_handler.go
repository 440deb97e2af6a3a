package handler

import (
	"net/http"
	"time"

	"github.com/fitlog/internal/db"
	"github.com/fitlog/internal/service"
	"github.com/gin-gonic/gin"
)

type templatePayload struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

type workoutItemPayload struct {
	ExerciseID          uint     `json:"exercise_id"`
	PlannedSets         *int     `json:"planned_sets"`
	PlannedReps         *int     `json:"planned_reps"`
	PlannedWeight       *float64 `json:"planned_weight"`
	PlannedRPE          *float64 `json:"planned_rpe"`
	PlannedMinutes      *int     `json:"planned_minutes"`
	PlannedDistance     *float64 `json:"planned_distance"`
	PlannedDistanceUnit string   `json:"planned_distance_unit"`
	Notes               string   `json:"notes"`
}

type workoutItemUpdatePayload struct {
	PlannedSets         *int     `json:"planned_sets"`
	PlannedReps         *int     `json:"planned_reps"`
	PlannedWeight       *float64 `json:"planned_weight"`
	PlannedRPE          *float64 `json:"planned_rpe"`
	PlannedMinutes      *int     `json:"planned_minutes"`
	PlannedDistance     *float64 `json:"planned_distance"`
	PlannedDistanceUnit *string  `json:"planned_distance_unit"`
	Notes               *string  `json:"notes"`
	OrderIndex          *int     `json:"order_index"`
}

// ListWorkouts 返回当前用户的训练模板
func (a *API) ListWorkouts(c *gin.Context) {
	templates, err := a.workouts.ListTemplates(currentUserID(c), c.Query("q"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(templates))
	for _, tpl := range templates {
		items = append(items, templateToPayload(tpl, false))
	}
	c.JSON(http.StatusOK, gin.H{"workouts": items})
}

// CreateWorkout 新建训练模板
func (a *API) CreateWorkout(c *gin.Context) {
	var payload templatePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	tpl, err := a.workouts.CreateTemplate(currentUserID(c), service.TemplateInput{
		Name:  payload.Name,
		Notes: payload.Notes,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"workout": templateToPayload(*tpl, false)})
}

// GetWorkout 返回模板详情，备注渲染为净化后的 HTML
func (a *API) GetWorkout(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的模板ID")
		return
	}

	tpl, err := a.workouts.GetTemplate(currentUserID(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workout": templateToPayload(*tpl, true)})
}

// DeleteWorkout 删除模板并级联删除其条目
func (a *API) DeleteWorkout(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的模板ID")
		return
	}

	if err := a.workouts.DeleteTemplate(currentUserID(c), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListWorkoutItems 返回模板条目，按序号升序
func (a *API) ListWorkoutItems(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的模板ID")
		return
	}

	items, err := a.workouts.ListItems(currentUserID(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	payloads := make([]gin.H, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, workoutItemToPayload(item))
	}
	c.JSON(http.StatusOK, gin.H{"items": payloads})
}

// AddWorkoutItem 在模板末尾追加条目
func (a *API) AddWorkoutItem(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的模板ID")
		return
	}

	var payload workoutItemPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.workouts.AppendItem(currentUserID(c), id, service.WorkoutItemInput{
		ExerciseID:          payload.ExerciseID,
		PlannedSets:         payload.PlannedSets,
		PlannedReps:         payload.PlannedReps,
		PlannedWeight:       payload.PlannedWeight,
		PlannedRPE:          payload.PlannedRPE,
		PlannedMinutes:      payload.PlannedMinutes,
		PlannedDistance:     payload.PlannedDistance,
		PlannedDistanceUnit: payload.PlannedDistanceUnit,
		Notes:               payload.Notes,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": workoutItemToPayload(*item)})
}

// UpdateWorkoutItem 更新条目计划字段
func (a *API) UpdateWorkoutItem(c *gin.Context) {
	itemID, err := parseUintParam(c, "itemId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的条目ID")
		return
	}

	var payload workoutItemUpdatePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.workouts.UpdateItem(currentUserID(c), itemID, service.WorkoutItemUpdate{
		PlannedSets:         payload.PlannedSets,
		PlannedReps:         payload.PlannedReps,
		PlannedWeight:       payload.PlannedWeight,
		PlannedRPE:          payload.PlannedRPE,
		PlannedMinutes:      payload.PlannedMinutes,
		PlannedDistance:     payload.PlannedDistance,
		PlannedDistanceUnit: payload.PlannedDistanceUnit,
		Notes:               payload.Notes,
		OrderIndex:          payload.OrderIndex,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": workoutItemToPayload(*item)})
}

// DeleteWorkoutItem 删除条目并重排剩余条目
func (a *API) DeleteWorkoutItem(c *gin.Context) {
	itemID, err := parseUintParam(c, "itemId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的条目ID")
		return
	}

	if err := a.workouts.DeleteItem(currentUserID(c), itemID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ResequenceWorkout 按创建顺序重排模板条目
func (a *API) ResequenceWorkout(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的模板ID")
		return
	}

	if err := a.workouts.Resequence(currentUserID(c), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resequenced": true})
}

// GetWorkoutMuscles 返回模板覆盖的肌群统计
func (a *API) GetWorkoutMuscles(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的模板ID")
		return
	}

	summary, err := a.workouts.TemplateMuscles(currentUserID(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// MakeSessionFromWorkout 以模板为蓝本创建训练记录
func (a *API) MakeSessionFromWorkout(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的模板ID")
		return
	}

	var payload struct {
		Date  string `json:"date"`
		Title string `json:"title"`
		Notes string `json:"notes"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	date, ok := parseOptionalDate(payload.Date)
	if !ok || date == nil {
		respondError(c, http.StatusBadRequest, "无效的日期，格式应为 YYYY-MM-DD")
		return
	}

	sess, err := a.sessions.Create(currentUserID(c), service.SessionInput{
		Date:              *date,
		Title:             payload.Title,
		Notes:             payload.Notes,
		WorkoutTemplateID: &id,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": sessionToPayload(*sess, false)})
}

func templateToPayload(tpl db.WorkoutTemplate, withNotesHTML bool) gin.H {
	payload := gin.H{
		"id":         tpl.ID,
		"name":       tpl.Name,
		"notes":      tpl.Notes,
		"created_at": tpl.CreatedAt.Format(time.RFC3339),
		"updated_at": tpl.UpdatedAt.Format(time.RFC3339),
	}
	if withNotesHTML {
		payload["notes_html"] = service.RenderNotesHTML(tpl.Notes)
	}
	return payload
}

func workoutItemToPayload(item db.WorkoutItem) gin.H {
	return gin.H{
		"id":                    item.ID,
		"workout_template_id":   item.WorkoutTemplateID,
		"exercise_id":           item.ExerciseID,
		"order_index":           item.OrderIndex,
		"planned_sets":          item.PlannedSets,
		"planned_reps":          item.PlannedReps,
		"planned_weight":        item.PlannedWeight,
		"planned_rpe":           item.PlannedRPE,
		"planned_minutes":       item.PlannedMinutes,
		"planned_distance":      item.PlannedDistance,
		"planned_distance_unit": item.PlannedDistanceUnit,
		"notes":                 item.Notes,
	}
}
