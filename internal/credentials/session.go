package credentials

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/langchou/teslaowner/internal/api/tesla"
)

// Session 持久化的登录会话
type Session struct {
	Token    *tesla.Token
	Email    string
	Password string
}

// LoadSession 从存储读取会话，缺失的键视为空值
func LoadSession(store Store) (Session, error) {
	var session Session

	raw, err := get(store, KeyToken)
	if err != nil {
		return session, err
	}
	if len(raw) > 0 {
		var token tesla.Token
		if err := json.Unmarshal(raw, &token); err != nil {
			return session, fmt.Errorf("decode stored token: %w", err)
		}
		session.Token = &token
	}

	email, err := get(store, KeyEmail)
	if err != nil {
		return session, err
	}
	password, err := get(store, KeyPassword)
	if err != nil {
		return session, err
	}
	session.Email = string(email)
	session.Password = string(password)
	return session, nil
}

// SaveSession 写入令牌、邮箱和密码
func SaveSession(store Store, session Session) error {
	if err := SaveToken(store, session.Token); err != nil {
		return err
	}
	if err := store.Set(KeyEmail, []byte(session.Email)); err != nil {
		return err
	}
	return store.Set(KeyPassword, []byte(session.Password))
}

// SaveToken 写入令牌，nil 清除已保存的令牌
func SaveToken(store Store, token *tesla.Token) error {
	if token == nil {
		return store.Set(KeyToken, []byte{})
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return store.Set(KeyToken, data)
}

func get(store Store, key string) ([]byte, error) {
	data, err := store.Get(key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return data, err
}
