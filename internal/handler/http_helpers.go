package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fitlog/internal/service"
	"github.com/gin-gonic/gin"
)

const dateFormat = "2006-01-02"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondErrorDetail 在固定提示外附带具体原因，便于区分失败类别
func respondErrorDetail(c *gin.Context, status int, message string, err error) {
	c.JSON(status, gin.H{"error": message, "detail": err.Error()})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parseOptionalDate(value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.ParseInLocation(dateFormat, value, time.Local)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// handleServiceError 把服务层错误统一映射为 HTTP 状态码
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, "资源不存在")
	case errors.Is(err, service.ErrConflict):
		respondErrorDetail(c, http.StatusConflict, "存在冲突，操作被拒绝", err)
	case errors.Is(err, service.ErrValidation):
		respondErrorDetail(c, http.StatusBadRequest, "请求参数不合法", err)
	case errors.Is(err, service.ErrUpstreamUnavailable):
		respondErrorDetail(c, http.StatusBadGateway, "外部动作库暂不可用", err)
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
