package handler

import (
	"net/http"
	"strconv"

	"github.com/fitlog/internal/service"
	"github.com/gin-gonic/gin"
)

// ListExternalMuscles 返回可用于筛选的肌群列表
func (a *API) ListExternalMuscles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"muscles": service.MuscleOptions()})
}

// SearchExternalExercises 按名称搜索外部动作库
func (a *API) SearchExternalExercises(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondError(c, http.StatusBadRequest, "请输入搜索关键词")
		return
	}

	records, err := a.wger.Search(c.Request.Context(), query, queryInt(c, "limit"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if records == nil {
		records = []service.ImportedExercise{}
	}
	c.JSON(http.StatusOK, gin.H{"results": records})
}

// BrowseExternalExercises 分页浏览外部动作库，可按肌群过滤
func (a *API) BrowseExternalExercises(c *gin.Context) {
	muscle := c.Query("muscle")
	if muscle != "" && !service.ValidMuscleSlug(muscle) {
		respondError(c, http.StatusBadRequest, "无效的肌群标识")
		return
	}

	records, err := a.wger.Browse(c.Request.Context(), queryInt(c, "limit"), queryInt(c, "offset"), muscle)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if records == nil {
		records = []service.ImportedExercise{}
	}
	c.JSON(http.StatusOK, gin.H{"results": records})
}

// ImportExternalExercise 把一条外部动作写入当前用户的动作库。
// 重复导入返回已有记录，created 为 false
func (a *API) ImportExternalExercise(c *gin.Context) {
	var rec service.ImportedExercise
	if !bindJSON(c, &rec, "请求参数不合法") {
		return
	}

	ex, created, err := a.imports.Import(currentUserID(c), rec)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"exercise": exerciseToPayload(*ex),
		"created":  created,
	})
}

func queryInt(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
