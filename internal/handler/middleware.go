package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userIDContextKey    = "__user_id"
	requestIDContextKey = "__request_id"
	requestIDHeader     = "X-Request-ID"
)

// RequestID 为每个请求分配标识，透传调用方自带的值
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// RequireUser 从会话 Cookie 解析令牌并确认账号仍然存在，
// 任何失败都返回同一个 401，不区分原因
func (a *API) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(a.cfg.CookieName)
		if err != nil || token == "" {
			respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
			c.Abort()
			return
		}

		userID, err := a.auth.ResolveToken(token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
			c.Abort()
			return
		}

		if _, err := a.auth.GetUser(userID); err != nil {
			respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
			c.Abort()
			return
		}

		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	if value, exists := c.Get(userIDContextKey); exists {
		if id, ok := value.(uint); ok {
			return id
		}
	}
	return 0
}
