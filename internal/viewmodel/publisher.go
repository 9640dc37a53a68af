package viewmodel

import "sync"

// Publisher 快照发布器，每个订阅者只保留最新的一个快照
type Publisher[S any] struct {
	mu   sync.Mutex
	next int
	subs map[int]chan S
}

// Subscribe 订阅快照，initial 会立即放入通道；返回的函数取消订阅并关闭通道
func (p *Publisher[S]) Subscribe(initial S) (<-chan S, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.subs == nil {
		p.subs = make(map[int]chan S)
	}
	id := p.next
	p.next++
	ch := make(chan S, 1)
	ch <- initial
	p.subs[id] = ch

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}
}

// Publish 向所有订阅者推送快照，未读取的旧快照会被替换
func (p *Publisher[S]) Publish(s S) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
