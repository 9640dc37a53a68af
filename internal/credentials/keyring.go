package credentials

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// KeyringStore 基于系统钥匙串的凭据存储
type KeyringStore struct {
	ring keyring.Keyring
}

// KeyringConfig 钥匙串配置
type KeyringConfig struct {
	ServiceName string
	Backend     string // keyring: 系统默认, file: 加密文件
	FileDir     string
	Password    string
}

// OpenKeyring 打开钥匙串
func OpenKeyring(cfg KeyringConfig) (*KeyringStore, error) {
	kcfg := keyring.Config{
		ServiceName:      cfg.ServiceName,
		FileDir:          cfg.FileDir,
		FilePasswordFunc: keyring.FixedStringPrompt(cfg.Password),
	}
	if cfg.Backend == "file" {
		kcfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}

	ring, err := keyring.Open(kcfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return NewKeyringStore(ring), nil
}

// NewKeyringStore 包装已打开的钥匙串
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// Get 读取凭据
func (s *KeyringStore) Get(key string) ([]byte, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keyring get %s: %w", key, err)
	}
	return item.Data, nil
}

// Set 写入凭据
func (s *KeyringStore) Set(key string, data []byte) error {
	if err := s.ring.Set(keyring.Item{Key: key, Data: data}); err != nil {
		return fmt.Errorf("keyring set %s: %w", key, err)
	}
	return nil
}
