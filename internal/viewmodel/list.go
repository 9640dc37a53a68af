package viewmodel

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/langchou/teslaowner/internal/action"
	"github.com/langchou/teslaowner/internal/api/tesla"
)

// VehicleListState 车辆列表快照
type VehicleListState = Loadable[[]tesla.Vehicle]

// VehicleListViewModel 车辆列表视图模型
type VehicleListViewModel struct {
	api    API
	logger *zap.Logger
	latest action.Latest[[]tesla.Vehicle]
	pub    Publisher[VehicleListState]

	mu    sync.Mutex
	state VehicleListState
}

// NewVehicleListViewModel 创建车辆列表视图模型
func NewVehicleListViewModel(api API, logger *zap.Logger) *VehicleListViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleListViewModel{
		api:    api,
		logger: logger.With(zap.String("view", "vehicles")),
		state:  VehicleListState{Phase: PhaseAwaitingInput},
	}
}

// State 当前快照
func (vm *VehicleListViewModel) State() VehicleListState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Subscribe 订阅快照变化
func (vm *VehicleListViewModel) Subscribe() (<-chan VehicleListState, func()) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.pub.Subscribe(vm.state)
}

// Vehicle 按 ID 查找已加载的车辆
func (vm *VehicleListViewModel) Vehicle(id int64) (tesla.Vehicle, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for _, v := range vm.state.Content {
		if v.ID == id {
			return v, true
		}
	}
	return tesla.Vehicle{}, false
}

// Load 加载车辆列表，新的加载会取代未完成的加载
func (vm *VehicleListViewModel) Load(ctx context.Context) {
	vm.mu.Lock()
	vm.state = Loading[[]tesla.Vehicle]()
	vm.pub.Publish(vm.state)
	vm.mu.Unlock()

	vm.latest.Run(ctx, vm.api.GetVehicles, func(vehicles []tesla.Vehicle, err error) {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		switch {
		case err != nil:
			vm.logger.Warn("Failed to load vehicles", zap.Error(err))
			vm.state = Failed[[]tesla.Vehicle](err)
		case len(vehicles) == 0:
			vm.state = VehicleListState{Phase: PhaseEmpty, Content: vehicles, Message: EmptyVehiclesMessage}
		default:
			vm.logger.Debug("Vehicles loaded", zap.Int("count", len(vehicles)))
			vm.state = Loaded(vehicles)
		}
		vm.pub.Publish(vm.state)
	})
}

// Reset 丢弃进行中的加载并清空列表，用于登出
func (vm *VehicleListViewModel) Reset() {
	vm.latest.Cancel()

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.state = VehicleListState{Phase: PhaseAwaitingInput}
	vm.pub.Publish(vm.state)
}

// Wait 等待正在进行的加载完成
func (vm *VehicleListViewModel) Wait() {
	vm.latest.Wait()
}
