package viewmodel

import "encoding/json"

// Phase 加载阶段
type Phase string

const (
	PhaseAwaitingInput Phase = "awaiting_input"
	PhaseLoading       Phase = "loading"
	PhaseLoaded        Phase = "loaded"
	PhaseEmpty         Phase = "empty"
	PhaseFailed        Phase = "failed"
)

// EmptyVehiclesMessage 账户下没有车辆时的提示
const EmptyVehiclesMessage = "You have no vehicles for this account"

// Loadable 可加载内容的不可变快照
type Loadable[T any] struct {
	Phase   Phase
	Content T
	Err     error
	Message string // 展示给用户的文本
}

// Loading 加载中
func Loading[T any]() Loadable[T] {
	return Loadable[T]{Phase: PhaseLoading}
}

// Loaded 加载成功
func Loaded[T any](content T) Loadable[T] {
	return Loadable[T]{Phase: PhaseLoaded, Content: content}
}

// Failed 加载失败，Message 为错误文本
func Failed[T any](err error) Loadable[T] {
	return Loadable[T]{Phase: PhaseFailed, Err: err, Message: err.Error()}
}

// MarshalJSON 输出 phase/content/message，错误只输出文本
func (l Loadable[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Phase   Phase  `json:"phase"`
		Content T      `json:"content"`
		Message string `json:"message,omitempty"`
	}{l.Phase, l.Content, l.Message})
}
