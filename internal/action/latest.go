package action

import (
	"context"
	"sync"
)

// Latest 只保留最新一次加载结果，新的 Run 会取消并作废之前的加载
type Latest[T any] struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Run 异步执行 load，仅当其仍是最新一次时调用 deliver。
// deliver 在内部锁内执行，不能同步调用 Run 或 Cancel。
func (l *Latest[T]) Run(ctx context.Context, load func(ctx context.Context) (T, error), deliver func(T, error)) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	if l.cancel != nil {
		l.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		value, err := load(runCtx)

		l.mu.Lock()
		defer l.mu.Unlock()
		if gen != l.gen {
			return
		}
		deliver(value, err)
		cancel()
		l.cancel = nil
	}()
}

// Cancel 取消当前加载并丢弃其结果
func (l *Latest[T]) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Wait 等待所有已启动的加载结束
func (l *Latest[T]) Wait() {
	l.wg.Wait()
}
