package viewmodel

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/langchou/teslaowner/internal/api/tesla"
	"github.com/langchou/teslaowner/internal/viewmodel/mocks"
)

func loadedDetailVM(t *testing.T, api *mocks.MockAPI, locked bool, opts ...DetailOption) *VehicleDetailViewModel {
	t.Helper()
	api.EXPECT().GetVehicle(gomock.Any(), int64(42)).Return(vehicleDetail(42, locked), nil)

	vm := NewVehicleDetailViewModel(api, vehicle(42, "online"), nil, opts...)
	vm.Reload(ctx)
	vm.Wait()
	require.Equal(t, PhaseLoaded, vm.State().Detail.Phase)
	return vm
}

func TestDetailReloadOnlineVehicle(t *testing.T) {
	api := newMockAPI(t)
	vm := loadedDetailVM(t, api, false)

	state := vm.State()
	assert.False(t, state.IsLocked)
	assert.Equal(t, "2020.48.26", state.Detail.Content.VehicleState.CarVersion)
	assert.Len(t, state.Busy, len(DetailActions))
}

func TestDetailReloadWakesSleepingVehicle(t *testing.T) {
	api := newMockAPI(t)
	gomock.InOrder(
		api.EXPECT().Execute(gomock.Any(), tesla.CommandWake, int64(42)).Return(true, nil),
		api.EXPECT().GetVehicle(gomock.Any(), int64(42)).Return(vehicleDetail(42, true), nil),
	)

	vm := NewVehicleDetailViewModel(api, vehicle(42, "asleep"), nil)
	vm.Reload(ctx)
	vm.Wait()

	state := vm.State()
	assert.Equal(t, PhaseLoaded, state.Detail.Phase)
	assert.Equal(t, "online", state.Vehicle.State)
	assert.True(t, state.IsLocked)
}

func TestDetailReloadWakesAfterVehicleUnavailable(t *testing.T) {
	api := newMockAPI(t)
	unavailable := tesla.ServerError("vehicle unavailable: {:error=>\"vehicle unavailable:\"}")
	gomock.InOrder(
		api.EXPECT().GetVehicle(gomock.Any(), int64(42)).Return(nil, unavailable),
		api.EXPECT().Execute(gomock.Any(), tesla.CommandWake, int64(42)).Return(true, nil),
		api.EXPECT().GetVehicle(gomock.Any(), int64(42)).Return(vehicleDetail(42, true), nil),
	)

	vm := NewVehicleDetailViewModel(api, vehicle(42, "online"), nil)
	vm.Reload(ctx)
	vm.Wait()

	state := vm.State()
	assert.Equal(t, PhaseFailed, state.Detail.Phase)
	assert.True(t, tesla.IsVehicleUnavailable(state.Detail.Err))

	vm.Reload(ctx)
	vm.Wait()
	assert.Equal(t, PhaseLoaded, vm.State().Detail.Phase)
}

func TestDetailReloadFetchesEvenIfWakeFails(t *testing.T) {
	api := newMockAPI(t)
	gomock.InOrder(
		api.EXPECT().Execute(gomock.Any(), tesla.CommandWake, int64(42)).Return(false, tesla.ServerError("timeout")),
		api.EXPECT().GetVehicle(gomock.Any(), int64(42)).Return(nil, tesla.ServerError("vehicle unavailable")),
	)

	vm := NewVehicleDetailViewModel(api, vehicle(42, "offline"), nil)
	vm.Reload(ctx)
	vm.Wait()

	assert.Equal(t, "vehicle unavailable", vm.State().Detail.Message)
}

func TestDetailToggleLock(t *testing.T) {
	api := newMockAPI(t)
	vm := loadedDetailVM(t, api, true)

	api.EXPECT().Execute(gomock.Any(), tesla.CommandUnlock, int64(42)).Return(true, nil)
	accepted, err := vm.Trigger(ctx, ActionToggleLock)
	require.NoError(t, err)
	assert.True(t, accepted)
	vm.Wait()
	assert.False(t, vm.State().IsLocked)

	api.EXPECT().Execute(gomock.Any(), tesla.CommandLock, int64(42)).Return(true, nil)
	vm.Trigger(ctx, ActionToggleLock)
	vm.Wait()
	assert.True(t, vm.State().IsLocked)
}

func TestDetailToggleLockRejectedKeepsState(t *testing.T) {
	api := newMockAPI(t)
	vm := loadedDetailVM(t, api, true)

	api.EXPECT().Execute(gomock.Any(), tesla.CommandUnlock, int64(42)).Return(false, nil)
	vm.Trigger(ctx, ActionToggleLock)
	vm.Wait()
	assert.True(t, vm.State().IsLocked)
}

func TestDetailToggleLockBeforeLoadIsNoop(t *testing.T) {
	vm := NewVehicleDetailViewModel(newMockAPI(t), vehicle(42, "online"), nil)

	accepted, err := vm.Trigger(ctx, ActionToggleLock)
	require.NoError(t, err)
	assert.True(t, accepted)
	vm.Wait()
	assert.True(t, vm.State().IsLocked)
}

func TestDetailCommands(t *testing.T) {
	tests := []struct {
		action  string
		command tesla.Command
	}{
		{ActionFlash, tesla.CommandFlash},
		{ActionHonk, tesla.CommandHonk},
		{ActionTrunk, tesla.CommandTrunk},
		{ActionFrunk, tesla.CommandFrunk},
		{ActionWake, tesla.CommandWake},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			api := newMockAPI(t)
			api.EXPECT().Execute(gomock.Any(), tt.command, int64(42)).Return(true, nil)

			vm := NewVehicleDetailViewModel(api, vehicle(42, "online"), nil)
			accepted, err := vm.Trigger(ctx, tt.action)
			require.NoError(t, err)
			assert.True(t, accepted)
			vm.Wait()
		})
	}
}

func TestDetailActionDroppedWhileBusy(t *testing.T) {
	api := newMockAPI(t)
	release := make(chan struct{})
	api.EXPECT().Execute(gomock.Any(), tesla.CommandHonk, int64(42)).
		DoAndReturn(func(ctx context.Context, command tesla.Command, id int64) (bool, error) {
			<-release
			return true, nil
		}).Times(1)

	vm := NewVehicleDetailViewModel(api, vehicle(42, "online"), nil)
	first, _ := vm.Trigger(ctx, ActionHonk)
	second, _ := vm.Trigger(ctx, ActionHonk)
	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, vm.Busy(ActionHonk))
	assert.True(t, vm.State().Busy[ActionHonk])

	close(release)
	vm.Wait()
	assert.False(t, vm.Busy(ActionHonk))
}

func TestDetailUnknownAction(t *testing.T) {
	vm := NewVehicleDetailViewModel(newMockAPI(t), vehicle(42, "online"), nil)

	_, err := vm.Trigger(ctx, "launch")
	assert.Error(t, err)
}

func TestDetailCommandRecorder(t *testing.T) {
	api := newMockAPI(t)
	api.EXPECT().Execute(gomock.Any(), tesla.CommandFlash, int64(42)).Return(false, tesla.ServerError("vehicle unavailable"))

	var (
		mu       sync.Mutex
		recorded []tesla.Command
		errs     []error
	)
	vm := NewVehicleDetailViewModel(api, vehicle(42, "online"), nil,
		WithCommandRecorder(func(id int64, command tesla.Command, result bool, err error) {
			mu.Lock()
			defer mu.Unlock()
			recorded = append(recorded, command)
			errs = append(errs, err)
		}))

	vm.Trigger(ctx, ActionFlash)
	vm.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []tesla.Command{tesla.CommandFlash}, recorded)
	assert.True(t, tesla.IsVehicleUnavailable(errs[0]))
}

func TestDetailSubscribeSeesBusyChanges(t *testing.T) {
	api := newMockAPI(t)
	api.EXPECT().Execute(gomock.Any(), tesla.CommandFlash, int64(42)).Return(true, nil)

	vm := NewVehicleDetailViewModel(api, vehicle(42, "online"), nil)
	updates, cancel := vm.Subscribe()
	defer cancel()
	assert.False(t, (<-updates).Busy[ActionFlash])

	vm.Trigger(ctx, ActionFlash)
	vm.Wait()

	assert.False(t, (<-updates).Busy[ActionFlash])
}
