package tesla

import "sync"

// TokenStore 客户端令牌存储
type TokenStore interface {
	Token() *Token
	SetToken(token *Token)
}

// MemoryTokenStore 进程内令牌存储
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewMemoryTokenStore 创建内存令牌存储
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Token 获取当前令牌，未登录时返回 nil
func (s *MemoryTokenStore) Token() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken 设置令牌，nil 表示登出
func (s *MemoryTokenStore) SetToken(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}
