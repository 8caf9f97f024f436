package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/linkpage/internal/logger"
	"github.com/linkpage/internal/service"
)

const (
	sessionKeyIsAdmin  = "isAdmin"
	sessionKeyUsername = "username"
)

// IsAdmin reports whether the signed session carries the admin flag.
func IsAdmin(c *gin.Context) bool {
	flag, ok := sessions.Default(c).Get(sessionKeyIsAdmin).(bool)
	return ok && flag
}

// ShowLoginPage 渲染登录页面，已登录时直接进入后台
func (a *API) ShowLoginPage(c *gin.Context) {
	if IsAdmin(c) {
		c.Redirect(http.StatusFound, "/admin")
		return
	}
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{
		"title": "Admin login",
	})
}

// Login 校验表单中的用户名和密码，成功后写入 isAdmin 会话标记
func (a *API) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := a.auth.Authenticate(username, password)
	if err != nil {
		status := http.StatusUnauthorized
		message := "Invalid username or password."
		if !errors.Is(err, service.ErrInvalidCredentials) {
			logger.Error().Err(err).Msg("authenticate admin failed")
			status = http.StatusInternalServerError
			message = "Login is temporarily unavailable."
		}
		a.renderHTML(c, status, "login.html", gin.H{
			"title":    "Admin login",
			"error":    message,
			"username": username,
		})
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionKeyIsAdmin, true)
	session.Set(sessionKeyUsername, user.Username)
	if err := session.Save(); err != nil {
		logger.Error().Err(err).Msg("save session failed")
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{
			"title": "Admin login",
			"error": "Could not start a session.",
		})
		return
	}

	logger.Info().Str("username", user.Username).Str("ip", c.ClientIP()).Msg("admin logged in")
	c.Redirect(http.StatusFound, "/admin")
}

// Logout 清除会话并返回登录页
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		logger.Warn().Err(err).Msg("clear session failed")
	}
	c.Redirect(http.StatusFound, "/login")
}

// AuthRequired 保护后台页面，未登录时重定向到 /login
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// APIAuthRequired 保护后台 JSON 接口，未登录时返回 401
func APIAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}
