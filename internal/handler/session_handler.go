package handler

import (
	"net/http"
	"time"

	"github.com/fitlog/internal/db"
	"github.com/fitlog/internal/service"
	"github.com/gin-gonic/gin"
)

type sessionPayload struct {
	Date              string `json:"date"`
	Title             string `json:"title"`
	Notes             string `json:"notes"`
	WorkoutTemplateID *uint  `json:"workout_template_id"`
}

type sessionItemPayload struct {
	ExerciseID uint   `json:"exercise_id"`
	Notes      string `json:"notes"`
}

type sessionItemUpdatePayload struct {
	Notes      *string `json:"notes"`
	OrderIndex *int    `json:"order_index"`
}

type sessionSetPayload struct {
	Reps   *int     `json:"reps"`
	Weight *float64 `json:"weight"`
	RPE    *float64 `json:"rpe"`
}

type sessionCardioPayload struct {
	Minutes      *int     `json:"minutes"`
	Distance     *float64 `json:"distance"`
	DistanceUnit string   `json:"distance_unit"`
	AvgHR        *int     `json:"avg_hr"`
	AvgPace      string   `json:"avg_pace"`
}

// ListSessions 返回当前用户的训练记录，支持日期过滤
func (a *API) ListSessions(c *gin.Context) {
	var filter service.SessionFilter
	var ok bool
	if filter.On, ok = parseOptionalDate(c.Query("on")); !ok {
		respondError(c, http.StatusBadRequest, "无效的日期，格式应为 YYYY-MM-DD")
		return
	}
	if filter.Start, ok = parseOptionalDate(c.Query("start")); !ok {
		respondError(c, http.StatusBadRequest, "无效的日期，格式应为 YYYY-MM-DD")
		return
	}
	if filter.End, ok = parseOptionalDate(c.Query("end")); !ok {
		respondError(c, http.StatusBadRequest, "无效的日期，格式应为 YYYY-MM-DD")
		return
	}

	sessions, err := a.sessions.List(currentUserID(c), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, sessionToPayload(sess, false))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": items})
}

// CreateSession 创建训练记录，可选从模板克隆条目
func (a *API) CreateSession(c *gin.Context) {
	var payload sessionPayload
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
		WorkoutTemplateID: payload.WorkoutTemplateID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": sessionToPayload(*sess, false)})
}

// GetSession 返回训练记录详情，备注渲染为净化后的 HTML
func (a *API) GetSession(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	sess, err := a.sessions.Get(currentUserID(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sessionToPayload(*sess, true)})
}

// DeleteSession 级联删除训练记录及其全部条目与实际数据
func (a *API) DeleteSession(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	if err := a.sessions.Delete(currentUserID(c), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListSessionItems 返回记录条目，带动作名称与分类
func (a *API) ListSessionItems(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	items, err := a.sessions.ListItems(currentUserID(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if items == nil {
		items = []service.SessionItemView{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// AddSessionItem 向训练记录追加条目
func (a *API) AddSessionItem(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	var payload sessionItemPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.sessions.AddItem(currentUserID(c), id, payload.ExerciseID, payload.Notes)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": sessionItemToPayload(*item)})
}

// UpdateSessionItem 更新条目备注或序号
func (a *API) UpdateSessionItem(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}
	itemID, err := parseUintParam(c, "itemId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的条目ID")
		return
	}

	var payload sessionItemUpdatePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.sessions.UpdateItem(currentUserID(c), id, itemID, service.SessionItemUpdate{
		Notes:      payload.Notes,
		OrderIndex: payload.OrderIndex,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": sessionItemToPayload(*item)})
}

// DeleteSessionItem 删除条目及其实际数据
func (a *API) DeleteSessionItem(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}
	itemID, err := parseUintParam(c, "itemId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的条目ID")
		return
	}

	if err := a.sessions.DeleteItem(currentUserID(c), id, itemID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// AddSessionSet 为条目追加一组力量实际数据
func (a *API) AddSessionSet(c *gin.Context) {
	id, itemID, ok := a.sessionItemIDs(c)
	if !ok {
		return
	}

	var payload sessionSetPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	set, err := a.sessions.AddSet(currentUserID(c), id, itemID, service.SessionSetInput{
		Reps:   payload.Reps,
		Weight: payload.Weight,
		RPE:    payload.RPE,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"set": sessionSetToPayload(*set)})
}

// ListSessionSets 返回条目的全部实际组
func (a *API) ListSessionSets(c *gin.Context) {
	id, itemID, ok := a.sessionItemIDs(c)
	if !ok {
		return
	}

	sets, err := a.sessions.ListSets(currentUserID(c), id, itemID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(sets))
	for _, set := range sets {
		items = append(items, sessionSetToPayload(set))
	}
	c.JSON(http.StatusOK, gin.H{"sets": items})
}

// DeleteSessionSet 删除一组实际数据并重排组号
func (a *API) DeleteSessionSet(c *gin.Context) {
	id, itemID, ok := a.sessionItemIDs(c)
	if !ok {
		return
	}
	setID, err := parseUintParam(c, "setId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的组ID")
		return
	}

	if err := a.sessions.DeleteSet(currentUserID(c), id, itemID, setID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// PutSessionCardio 写入条目的有氧实际数据
func (a *API) PutSessionCardio(c *gin.Context) {
	id, itemID, ok := a.sessionItemIDs(c)
	if !ok {
		return
	}

	var payload sessionCardioPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	cardio, err := a.sessions.UpsertCardio(currentUserID(c), id, itemID, service.SessionCardioInput{
		Minutes:      payload.Minutes,
		Distance:     payload.Distance,
		DistanceUnit: payload.DistanceUnit,
		AvgHR:        payload.AvgHR,
		AvgPace:      payload.AvgPace,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cardio": sessionCardioToPayload(*cardio)})
}

// GetSessionCardio 读取条目的有氧实际数据
func (a *API) GetSessionCardio(c *gin.Context) {
	id, itemID, ok := a.sessionItemIDs(c)
	if !ok {
		return
	}

	cardio, err := a.sessions.GetCardio(currentUserID(c), id, itemID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cardio": sessionCardioToPayload(*cardio)})
}

func (a *API) sessionItemIDs(c *gin.Context) (sessionID, itemID uint, ok bool) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return 0, 0, false
	}
	itemID, err = parseUintParam(c, "itemId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的条目ID")
		return 0, 0, false
	}
	return sessionID, itemID, true
}

func sessionToPayload(sess db.Session, withNotesHTML bool) gin.H {
	payload := gin.H{
		"id":         sess.ID,
		"date":       sess.Date.Format(dateFormat),
		"title":      sess.Title,
		"notes":      sess.Notes,
		"status":     sess.Status,
		"created_at": sess.CreatedAt.Format(time.RFC3339),
		"updated_at": sess.UpdatedAt.Format(time.RFC3339),
	}
	if sess.WorkoutTemplateID != nil {
		payload["workout_template_id"] = *sess.WorkoutTemplateID
	}
	if withNotesHTML {
		payload["notes_html"] = service.RenderNotesHTML(sess.Notes)
	}
	return payload
}

func sessionItemToPayload(item db.SessionItem) gin.H {
	return gin.H{
		"id":          item.ID,
		"session_id":  item.SessionID,
		"exercise_id": item.ExerciseID,
		"order_index": item.OrderIndex,
		"notes":       item.Notes,
	}
}

func sessionSetToPayload(set db.SessionSet) gin.H {
	return gin.H{
		"id":         set.ID,
		"set_number": set.SetNumber,
		"reps":       set.Reps,
		"weight":     set.Weight,
		"rpe":        set.RPE,
	}
}

func sessionCardioToPayload(cardio db.SessionCardio) gin.H {
	return gin.H{
		"id":            cardio.ID,
		"minutes":       cardio.Minutes,
		"distance":      cardio.Distance,
		"distance_unit": cardio.DistanceUnit,
		"avg_hr":        cardio.AvgHR,
		"avg_pace":      cardio.AvgPace,
	}
}
