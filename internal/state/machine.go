package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
)

// 请求生命周期状态
const (
	StateBuilding        = "building"
	StateSent            = "sent"
	StateDecodedSuccess  = "decoded_success"
	StateDecodedError    = "decoded_error"
	StateTransportFailed = "transport_failed"
	StateDecodeFailed    = "decode_failed"
)

// 请求生命周期事件
const (
	EventSend          = "send"
	EventDecodeSuccess = "decode_success"
	EventDecodeError   = "decode_error"
	EventTransportFail = "transport_fail"
	EventDecodeFail    = "decode_fail"
)

// 动作状态
const (
	StateIdle      = "idle"
	StateExecuting = "executing"
)

// 动作事件
const (
	EventStart  = "start"
	EventFinish = "finish"
)

// Machine 带锁的状态机
type Machine struct {
	mu            sync.RWMutex
	fsm           *fsm.FSM
	onStateChange func(from, to string)
}

// NewRequestMachine 创建单次请求的生命周期状态机
// building → sent → (decoded_success | decoded_error | transport_failed | decode_failed)
func NewRequestMachine(onStateChange func(from, to string)) *Machine {
	return newMachine(StateBuilding, fsm.Events{
		{Name: EventSend, Src: []string{StateBuilding}, Dst: StateSent},
		{Name: EventTransportFail, Src: []string{StateSent}, Dst: StateTransportFailed},
		{Name: EventDecodeSuccess, Src: []string{StateSent}, Dst: StateDecodedSuccess},
		{Name: EventDecodeError, Src: []string{StateSent}, Dst: StateDecodedError},
		{Name: EventDecodeFail, Src: []string{StateSent}, Dst: StateDecodeFailed},
	}, onStateChange)
}

// NewActionMachine 创建动作的 idle/executing 状态机
func NewActionMachine(onStateChange func(from, to string)) *Machine {
	return newMachine(StateIdle, fsm.Events{
		{Name: EventStart, Src: []string{StateIdle}, Dst: StateExecuting},
		{Name: EventFinish, Src: []string{StateExecuting}, Dst: StateIdle},
	}, onStateChange)
}

func newMachine(initial string, events fsm.Events, onStateChange func(from, to string)) *Machine {
	m := &Machine{onStateChange: onStateChange}
	m.fsm = fsm.NewFSM(
		initial,
		events,
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onStateChange != nil && e.Src != e.Dst {
					m.onStateChange(e.Src, e.Dst)
				}
			},
		},
	)
	return m
}

// CurrentState 获取当前状态
func (m *Machine) CurrentState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// Trigger 触发事件，不允许的转换返回错误
func (m *Machine) Trigger(event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}
	return nil
}

// CanTransition 检查是否可以转换
func (m *Machine) CanTransition(event string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Can(event)
}

// IsTerminal 请求是否已处于终态
func (m *Machine) IsTerminal() bool {
	switch m.CurrentState() {
	case StateDecodedSuccess, StateDecodedError, StateTransportFailed, StateDecodeFailed:
		return true
	}
	return false
}
