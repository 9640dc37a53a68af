package credentials

import "errors"

// 固定的凭据键
const (
	KeyToken    = "token"
	KeyEmail    = "email"
	KeyPassword = "password"
)

// ErrNotFound 键不存在
var ErrNotFound = errors.New("credential not found")

// Store 以字节存取凭据的键值存储
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, data []byte) error
}
