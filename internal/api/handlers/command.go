package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExecuteCommand 触发车辆命令
// POST /api/vehicles/:id/commands/:command
// 命令异步执行；同一命令执行期间的重复请求会被丢弃 (accepted=false)
func (h *Handler) ExecuteCommand(c *gin.Context) {
	vm, ok := h.vehicleView(c)
	if !ok {
		return
	}

	command := c.Param("command")
	accepted, err := vm.Trigger(h.baseContext(), command)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Command requested via API",
		zap.String("command", command),
		zap.Bool("accepted", accepted),
	)
	c.JSON(http.StatusAccepted, gin.H{
		"accepted": accepted,
		"busy":     vm.Busy(command),
	})
}

// ListCommands 获取车辆最近的命令记录
func (h *Handler) ListCommands(c *gin.Context) {
	if h.opts.CommandLog == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Command history requires the postgres credential backend"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	records, err := h.opts.CommandLog.ListByVehicle(c.Request.Context(), id, limit)
	if err != nil {
		h.logger.Error("Failed to list commands", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list commands"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}
