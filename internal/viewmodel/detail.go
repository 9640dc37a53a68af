package viewmodel

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/langchou/teslaowner/internal/action"
	"github.com/langchou/teslaowner/internal/api/tesla"
)

// 车辆详情页的命令动作
const (
	ActionToggleLock = "lock"
	ActionFlash      = "flash"
	ActionHonk       = "honk"
	ActionTrunk      = "trunk"
	ActionFrunk      = "frunk"
	ActionWake       = "wake"
)

// DetailActions 详情页动作的展示顺序
var DetailActions = []string{ActionToggleLock, ActionFrunk, ActionTrunk, ActionHonk, ActionFlash, ActionWake}

const vehicleOnline = "online"

// CommandRecorder 命令执行后的回调，用于记录命令历史
type CommandRecorder func(vehicleID int64, command tesla.Command, result bool, err error)

// VehicleDetailState 车辆详情快照
type VehicleDetailState struct {
	Vehicle  tesla.Vehicle                  `json:"vehicle"`
	Detail   Loadable[*tesla.VehicleDetail] `json:"detail"`
	IsLocked bool                           `json:"is_locked"`
	Busy     map[string]bool                `json:"busy"`
}

// DetailOption 详情视图模型选项
type DetailOption func(*VehicleDetailViewModel)

// WithCommandRecorder 设置命令记录回调
func WithCommandRecorder(rec CommandRecorder) DetailOption {
	return func(vm *VehicleDetailViewModel) {
		vm.recorder = rec
	}
}

// VehicleDetailViewModel 车辆详情视图模型
type VehicleDetailViewModel struct {
	api      API
	id       int64
	logger   *zap.Logger
	recorder CommandRecorder
	latest   action.Latest[*tesla.VehicleDetail]
	actions  map[string]*action.Action
	pub      Publisher[VehicleDetailState]

	mu       sync.Mutex
	vehicle  tesla.Vehicle
	detail   Loadable[*tesla.VehicleDetail]
	isLocked bool
}

// NewVehicleDetailViewModel 创建车辆详情视图模型
func NewVehicleDetailViewModel(api API, vehicle tesla.Vehicle, logger *zap.Logger, opts ...DetailOption) *VehicleDetailViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	vm := &VehicleDetailViewModel{
		api:      api,
		id:       vehicle.ID,
		logger:   logger.With(zap.Int64("vehicle_id", vehicle.ID)),
		vehicle:  vehicle,
		detail:   Loading[*tesla.VehicleDetail](),
		isLocked: true,
	}
	for _, opt := range opts {
		opt(vm)
	}

	vm.actions = map[string]*action.Action{
		ActionToggleLock: action.New(ActionToggleLock, vm.toggleLock, vm.logger),
		ActionFlash:      action.New(ActionFlash, vm.command(tesla.CommandFlash), vm.logger),
		ActionHonk:       action.New(ActionHonk, vm.command(tesla.CommandHonk), vm.logger),
		ActionTrunk:      action.New(ActionTrunk, vm.command(tesla.CommandTrunk), vm.logger),
		ActionFrunk:      action.New(ActionFrunk, vm.command(tesla.CommandFrunk), vm.logger),
		ActionWake:       action.New(ActionWake, vm.command(tesla.CommandWake), vm.logger),
	}
	for _, a := range vm.actions {
		a.OnBusyChange(func(bool) {
			vm.mu.Lock()
			defer vm.mu.Unlock()
			vm.pub.Publish(vm.snapshotLocked())
		})
	}
	return vm
}

// State 当前快照
func (vm *VehicleDetailViewModel) State() VehicleDetailState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.snapshotLocked()
}

// Subscribe 订阅快照变化
func (vm *VehicleDetailViewModel) Subscribe() (<-chan VehicleDetailState, func()) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.pub.Subscribe(vm.snapshotLocked())
}

// Reload 重新获取车辆数据。车辆不在线或上次因车辆不可用失败时先唤醒。
func (vm *VehicleDetailViewModel) Reload(ctx context.Context) {
	vm.mu.Lock()
	wake := vm.vehicle.State != vehicleOnline || tesla.IsVehicleUnavailable(vm.detail.Err)
	vm.detail = Loading[*tesla.VehicleDetail]()
	vm.pub.Publish(vm.snapshotLocked())
	vm.mu.Unlock()

	vm.latest.Run(ctx, func(ctx context.Context) (*tesla.VehicleDetail, error) {
		if wake {
			if _, err := vm.execute(ctx, tesla.CommandWake); err != nil {
				vm.logger.Warn("Wake before reload failed", zap.Error(err))
			}
		}
		return vm.api.GetVehicle(ctx, vm.id)
	}, func(detail *tesla.VehicleDetail, err error) {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		if err != nil {
			vm.logger.Warn("Failed to load vehicle", zap.Error(err))
			vm.detail = Failed[*tesla.VehicleDetail](err)
		} else {
			vm.detail = Loaded(detail)
			vm.isLocked = detail.VehicleState.Locked
			vm.vehicle.State = detail.State
		}
		vm.pub.Publish(vm.snapshotLocked())
	})
}

// Trigger 触发命令动作，动作正在执行时返回 false
func (vm *VehicleDetailViewModel) Trigger(ctx context.Context, name string) (bool, error) {
	a, ok := vm.actions[name]
	if !ok {
		return false, fmt.Errorf("unknown action %q", name)
	}
	return a.Trigger(ctx), nil
}

// Busy 动作是否正在执行
func (vm *VehicleDetailViewModel) Busy(name string) bool {
	a, ok := vm.actions[name]
	return ok && a.Busy()
}

// Wait 等待正在进行的加载和动作完成
func (vm *VehicleDetailViewModel) Wait() {
	vm.latest.Wait()
	for _, a := range vm.actions {
		a.Wait()
	}
}

func (vm *VehicleDetailViewModel) toggleLock(ctx context.Context) error {
	vm.mu.Lock()
	loaded := vm.detail.Phase == PhaseLoaded
	locked := vm.isLocked
	vm.mu.Unlock()

	if !loaded {
		return nil
	}

	command := tesla.CommandLock
	if locked {
		command = tesla.CommandUnlock
	}
	ok, err := vm.execute(ctx, command)
	if err != nil {
		return err
	}
	if ok {
		vm.mu.Lock()
		vm.isLocked = !locked
		vm.pub.Publish(vm.snapshotLocked())
		vm.mu.Unlock()
	}
	return nil
}

func (vm *VehicleDetailViewModel) command(command tesla.Command) action.Func {
	return func(ctx context.Context) error {
		_, err := vm.execute(ctx, command)
		return err
	}
}

func (vm *VehicleDetailViewModel) execute(ctx context.Context, command tesla.Command) (bool, error) {
	ok, err := vm.api.Execute(ctx, command, vm.id)
	if vm.recorder != nil {
		vm.recorder(vm.id, command, ok, err)
	}
	if err == nil && !ok {
		vm.logger.Info("Command rejected by vehicle", zap.String("command", string(command)))
	}
	return ok, err
}

func (vm *VehicleDetailViewModel) snapshotLocked() VehicleDetailState {
	busy := make(map[string]bool, len(vm.actions))
	for name, a := range vm.actions {
		busy[name] = a.Busy()
	}
	return VehicleDetailState{
		Vehicle:  vm.vehicle,
		Detail:   vm.detail,
		IsLocked: vm.isLocked,
		Busy:     busy,
	}
}
