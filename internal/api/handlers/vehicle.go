package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/teslaowner/internal/viewmodel"
)

// ListVehicles 获取车辆列表快照
func (h *Handler) ListVehicles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.vehicles.State()})
}

// ReloadVehicles 重新加载车辆列表
func (h *Handler) ReloadVehicles(c *gin.Context) {
	h.vehicles.Load(h.baseContext())
	c.JSON(http.StatusAccepted, gin.H{"data": h.vehicles.State()})
}

// GetVehicle 获取车辆详情快照，首次访问时开始加载
func (h *Handler) GetVehicle(c *gin.Context) {
	vm, ok := h.vehicleView(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vm.State()})
}

// ReloadVehicle 重新加载车辆详情
// POST /api/vehicles/:id/reload
// 车辆不在线时会先发送唤醒命令
func (h *Handler) ReloadVehicle(c *gin.Context) {
	vm, ok := h.vehicleView(c)
	if !ok {
		return
	}
	vm.Reload(h.baseContext())
	c.JSON(http.StatusAccepted, gin.H{"data": vm.State()})
}

// vehicleView 解析车辆 ID 并返回对应的视图模型，失败时已写入响应
func (h *Handler) vehicleView(c *gin.Context) (*viewmodel.VehicleDetailViewModel, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
		return nil, false
	}

	vm, ok := h.detail(id)
	if !ok {
		h.logger.Debug("Vehicle not in list", zap.Int64("vehicle_id", id))
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return nil, false
	}
	return vm, true
}
