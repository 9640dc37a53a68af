package action

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/teslaowner/internal/state"
)

// Func 用户可触发的一次操作
type Func func(ctx context.Context) error

// Action 带忙碌标志的命令动作，执行期间的重复触发会被丢弃
type Action struct {
	name    string
	run     Func
	machine *state.Machine
	logger  *zap.Logger
	wg      sync.WaitGroup

	mu     sync.RWMutex
	onBusy func(busy bool)
}

// New 创建动作
func New(name string, run Func, logger *zap.Logger) *Action {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Action{
		name:   name,
		run:    run,
		logger: logger.With(zap.String("action", name)),
	}
	a.machine = state.NewActionMachine(func(from, to string) {
		a.logger.Debug("Action state changed", zap.String("from", from), zap.String("to", to))
	})
	return a
}

// Name 动作名称
func (a *Action) Name() string {
	return a.name
}

// OnBusyChange 设置忙碌状态变化回调
func (a *Action) OnBusyChange(fn func(busy bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onBusy = fn
}

// Busy 是否正在执行
func (a *Action) Busy() bool {
	return a.machine.CurrentState() == state.StateExecuting
}

// Trigger 异步执行动作，忙碌时丢弃并返回 false。
// 执行错误只记录日志，不向调用方传播。
func (a *Action) Trigger(ctx context.Context) bool {
	if err := a.machine.Trigger(state.EventStart); err != nil {
		a.logger.Debug("Action busy, trigger dropped")
		return false
	}
	a.notify(true)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		start := time.Now()
		err := a.run(ctx)
		if err != nil {
			a.logger.Warn("Action failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		} else {
			a.logger.Debug("Action completed", zap.Duration("elapsed", time.Since(start)))
		}

		if err := a.machine.Trigger(state.EventFinish); err != nil {
			a.logger.Error("Failed to finish action", zap.Error(err))
		}
		a.notify(false)
	}()
	return true
}

// Wait 等待正在执行的动作完成
func (a *Action) Wait() {
	a.wg.Wait()
}

func (a *Action) notify(busy bool) {
	a.mu.RLock()
	fn := a.onBusy
	a.mu.RUnlock()
	if fn != nil {
		fn(busy)
	}
}
