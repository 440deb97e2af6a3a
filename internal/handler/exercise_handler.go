package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fitlog/internal/db"
	"github.com/fitlog/internal/service"
	"github.com/gin-gonic/gin"
)

type exercisePayload struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	DefaultUnit string `json:"default_unit"`
	Equipment   string `json:"equipment"`
}

type exerciseUpdatePayload struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	DefaultUnit *string `json:"default_unit"`
	Equipment   *string `json:"equipment"`
}

// ListExercises 返回当前用户的动作库，支持过滤与分页
func (a *API) ListExercises(c *gin.Context) {
	filter := service.ExerciseFilter{
		Query:       c.Query("q"),
		Category:    c.Query("category"),
		OrderByName: c.Query("order") == "name",
	}
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.Limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.Offset = parsed
		}
	}

	exercises, err := a.exercises.List(currentUserID(c), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(exercises))
	for _, ex := range exercises {
		items = append(items, exerciseToPayload(ex))
	}
	c.JSON(http.StatusOK, gin.H{"exercises": items})
}

// CreateExercise 新建动作
func (a *API) CreateExercise(c *gin.Context) {
	var payload exercisePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	ex, err := a.exercises.Create(currentUserID(c), service.ExerciseInput{
		Name:        payload.Name,
		Category:    payload.Category,
		DefaultUnit: payload.DefaultUnit,
		Equipment:   payload.Equipment,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"exercise": exerciseToPayload(*ex)})
}

// GetExercise 返回单个动作详情，附带肌群挂接
func (a *API) GetExercise(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的动作ID")
		return
	}

	ex, err := a.exercises.Get(currentUserID(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	primary, secondary, err := a.exercises.MusclesFor(ex.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	payload := exerciseToPayload(*ex)
	payload["muscles"] = gin.H{"primary": emptyIfNil(primary), "secondary": emptyIfNil(secondary)}
	c.JSON(http.StatusOK, gin.H{"exercise": payload})
}

// UpdateExercise 部分更新动作
func (a *API) UpdateExercise(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的动作ID")
		return
	}

	var payload exerciseUpdatePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	ex, err := a.exercises.Update(currentUserID(c), id, service.ExerciseUpdate{
		Name:        payload.Name,
		Category:    payload.Category,
		DefaultUnit: payload.DefaultUnit,
		Equipment:   payload.Equipment,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exercise": exerciseToPayload(*ex)})
}

// DeleteExercise 删除动作；被模板或训练记录引用时返回冲突
func (a *API) DeleteExercise(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的动作ID")
		return
	}

	if err := a.exercises.Delete(currentUserID(c), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetExerciseUsage 返回动作被哪些模板与训练记录引用
func (a *API) GetExerciseUsage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的动作ID")
		return
	}

	usage, err := a.exercises.Usage(currentUserID(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"exercise": gin.H{"id": usage.ExerciseID, "name": usage.ExerciseName},
		"workouts": usageRefs(usage.Workouts),
		"sessions": usageRefs(usage.Sessions),
		"counts": gin.H{
			"workouts": len(usage.Workouts),
			"sessions": len(usage.Sessions),
		},
	})
}

func usageRefs(refs []service.UsageRef) []service.UsageRef {
	if refs == nil {
		return []service.UsageRef{}
	}
	return refs
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func exerciseToPayload(ex db.Exercise) gin.H {
	payload := gin.H{
		"id":           ex.ID,
		"name":         ex.Name,
		"category":     ex.Category,
		"default_unit": ex.DefaultUnit,
		"equipment":    ex.Equipment,
		"source":       ex.Source,
		"created_at":   ex.CreatedAt.Format(time.RFC3339),
	}
	if ex.SourceRef != "" {
		payload["source_ref"] = ex.SourceRef
	}
	return payload
}
