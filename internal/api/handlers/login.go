package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GetLogin 获取登录状态
func (h *Handler) GetLogin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.login.State()})
}

// Login 使用邮箱和密码登录
// POST /api/login
// 登录异步进行，结果通过 GET /api/login 或 WebSocket 获取
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	h.login.SetCredentials(req.Email, req.Password)
	if !h.login.Login(h.baseContext()) {
		c.JSON(http.StatusConflict, gin.H{"error": "Login already in progress"})
		return
	}

	h.logger.Info("Login requested via API", zap.String("email", req.Email))
	c.JSON(http.StatusAccepted, gin.H{"data": h.login.State()})
}

// Logout 登出并清除车辆列表和已缓存的车辆视图
func (h *Handler) Logout(c *gin.Context) {
	h.login.Logout()
	h.vehicles.Reset()
	h.details.Purge()

	h.logger.Info("Logged out via API")
	c.JSON(http.StatusOK, gin.H{"data": h.login.State()})
}
