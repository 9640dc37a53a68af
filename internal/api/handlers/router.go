package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/langchou/teslaowner/pkg/ws"
)

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// API 路由
	api := r.Group("/api")
	{
		// 登录
		api.GET("/login", h.GetLogin)
		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)

		// 车辆
		api.GET("/vehicles", h.ListVehicles)
		api.POST("/vehicles/reload", h.ReloadVehicles)
		api.GET("/vehicles/:id", h.GetVehicle)
		api.POST("/vehicles/:id/reload", h.ReloadVehicle)

		// 命令
		api.POST("/vehicles/:id/commands/:command", h.ExecuteCommand)
		api.GET("/vehicles/:id/commands", h.ListCommands)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 指标
	if h.opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"authenticated": h.login.State().ShowVehicles,
		"ws_clients":    h.wsHub.ClientCount(),
	})
}
