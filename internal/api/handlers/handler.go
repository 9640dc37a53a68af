package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/langchou/teslaowner/internal/api/tesla"
	"github.com/langchou/teslaowner/internal/credentials"
	"github.com/langchou/teslaowner/internal/repository"
	"github.com/langchou/teslaowner/internal/viewmodel"
	"github.com/langchou/teslaowner/pkg/ws"
)

// Options 处理器可选依赖
type Options struct {
	ViewCacheSize int                              // 缓存的车辆详情视图模型数量
	CommandLog    *repository.CommandLogRepository // 为 nil 时不记录命令历史
	Gatherer      prometheus.Gatherer              // 为 nil 时不暴露 /metrics
}

// detailEntry 缓存中的车辆详情视图模型及其推送订阅
type detailEntry struct {
	vm     *viewmodel.VehicleDetailViewModel
	cancel func()
}

// Handler HTTP 处理器，驱动视图模型并把快照推送到 WebSocket
type Handler struct {
	logger   *zap.Logger
	api      viewmodel.API
	login    *viewmodel.LoginViewModel
	vehicles *viewmodel.VehicleListViewModel
	opts     Options
	wsHub    *ws.Hub
	upgrader websocket.Upgrader

	mu      sync.Mutex
	ctx     context.Context
	details *lru.Cache
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	api viewmodel.API,
	store credentials.Store,
	wsHub *ws.Hub,
	opts Options,
) (*Handler, error) {
	if opts.ViewCacheSize <= 0 {
		opts.ViewCacheSize = 16
	}

	h := &Handler{
		logger:   logger,
		api:      api,
		login:    viewmodel.NewLoginViewModel(api, store, logger),
		vehicles: viewmodel.NewVehicleListViewModel(api, logger),
		opts:     opts,
		wsHub:    wsHub,
		ctx:      context.Background(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 本地桥接服务允许所有来源
			},
		},
	}

	details, err := lru.NewWithEvict(opts.ViewCacheSize, func(key, value interface{}) {
		entry := value.(*detailEntry)
		entry.cancel()
		h.logger.Debug("Evicted vehicle view", zap.Any("vehicle_id", key))
	})
	if err != nil {
		return nil, err
	}
	h.details = details

	wsHub.SetInitDataProvider(func() *ws.InitData {
		return &ws.InitData{
			Login:    h.login.State(),
			Vehicles: h.vehicles.State(),
		}
	})
	return h, nil
}

// Start 开始把视图模型快照推送到 WebSocket，ctx 结束时停止。
// 视图模型的异步加载和命令也在 ctx 下执行。
func (h *Handler) Start(ctx context.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()

	loginCh, cancelLogin := h.login.Subscribe()
	vehiclesCh, cancelVehicles := h.vehicles.Subscribe()

	go func() {
		<-ctx.Done()
		cancelLogin()
		cancelVehicles()
		h.details.Purge()
	}()

	go func() {
		for state := range loginCh {
			h.wsHub.BroadcastMessage(ws.MsgTypeLogin, state)
			// 登录成功后加载车辆列表
			if state.ShowVehicles && h.vehicles.State().Phase == viewmodel.PhaseAwaitingInput {
				h.vehicles.Load(ctx)
			}
		}
	}()

	go func() {
		for state := range vehiclesCh {
			h.wsHub.BroadcastMessage(ws.MsgTypeVehicles, state)
		}
	}()
}

func (h *Handler) baseContext() context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctx
}

// detail 获取或创建车辆详情视图模型，新建时立即加载
func (h *Handler) detail(id int64) (*viewmodel.VehicleDetailViewModel, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if value, ok := h.details.Get(id); ok {
		return value.(*detailEntry).vm, true
	}

	vehicle, ok := h.vehicles.Vehicle(id)
	if !ok {
		return nil, false
	}

	var opts []viewmodel.DetailOption
	if h.opts.CommandLog != nil {
		opts = append(opts, viewmodel.WithCommandRecorder(h.recordCommand))
	}
	vm := viewmodel.NewVehicleDetailViewModel(h.api, vehicle, h.logger, opts...)

	updates, cancel := vm.Subscribe()
	go func() {
		for state := range updates {
			h.wsHub.BroadcastMessage(ws.MsgTypeVehicle, state)
		}
	}()

	h.details.Add(id, &detailEntry{vm: vm, cancel: cancel})
	vm.Reload(h.ctx)
	return vm, true
}

// recordCommand 保存命令执行记录
func (h *Handler) recordCommand(vehicleID int64, command tesla.Command, result bool, err error) {
	rec := &repository.CommandRecord{
		VehicleID:  vehicleID,
		Command:    string(command),
		Result:     result,
		ExecutedAt: time.Now(),
	}
	if err != nil {
		msg := err.Error()
		rec.Error = &msg
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.opts.CommandLog.Create(ctx, rec); err != nil {
		h.logger.Error("Failed to record command", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
	}
}
