package handler

import (
	"errors"
	"net/http"

	"github.com/fitlog/internal/service"
	"github.com/gin-gonic/gin"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register 注册新账号，成功后直接登录（签发会话 Cookie）
func (a *API) Register(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	user, err := a.auth.Register(payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			respondError(c, http.StatusConflict, "该邮箱已注册")
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, http.StatusBadRequest, "密码长度至少 6 位")
		case errors.Is(err, service.ErrValidation):
			respondError(c, http.StatusBadRequest, "请输入有效的邮箱")
		default:
			respondError(c, http.StatusInternalServerError, "注册失败")
		}
		return
	}

	token, err := a.auth.IssueToken(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "注册失败")
		return
	}
	a.setSessionCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"user": gin.H{"id": user.ID, "email": user.Email},
	})
}

// Login 校验邮箱口令并签发会话 Cookie
func (a *API) Login(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	user, err := a.auth.Authenticate(payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "邮箱或密码错误")
			return
		}
		respondError(c, http.StatusInternalServerError, "登录失败")
		return
	}

	token, err := a.auth.IssueToken(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "登录失败")
		return
	}
	a.setSessionCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{"id": user.ID, "email": user.Email},
	})
}

// Logout 清除会话 Cookie
func (a *API) Logout(c *gin.Context) {
	a.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me 返回当前登录用户
func (a *API) Me(c *gin.Context) {
	user, err := a.auth.GetUser(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusUnauthorized, "未登录或会话已过期")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "email": user.Email})
}

// setSessionCookie 写入 HTTP-only 会话 Cookie。
// 属性必须与 clearSessionCookie 完全一致，否则部分浏览器删不掉
func (a *API) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		a.cfg.CookieName,
		token,
		int(a.auth.TokenTTL().Seconds()),
		a.cfg.CookiePath,
		a.cfg.CookieDomain,
		a.cfg.CookieSecure,
		true,
	)
}

func (a *API) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		a.cfg.CookieName,
		"",
		-1,
		a.cfg.CookiePath,
		a.cfg.CookieDomain,
		a.cfg.CookieSecure,
		true,
	)
}
