package tesla

import (
	"errors"
	"strings"
)

// ErrorKind 客户端错误分类
type ErrorKind int

const (
	KindInvalidURL ErrorKind = iota + 1
	KindNetwork
	KindDecoding
	KindUnauthenticated
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindNetwork:
		return "network"
	case KindDecoding:
		return "decoding"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

const vehicleUnavailablePrefix = "vehicle unavailable"

// Error 客户端返回的类型化错误
type Error struct {
	Kind    ErrorKind
	Message string // 仅 KindServer 使用，服务端原文
	Err     error  // 底层原因 (KindNetwork / KindDecoding)
}

// Error 返回可直接展示给用户的错误信息
func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		return e.Message
	case KindNetwork, KindDecoding:
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Kind.String() + " error"
	case KindInvalidURL:
		return "Invalid URL"
	case KindUnauthenticated:
		return "Unauthenticated"
	default:
		return "unknown error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 按错误分类匹配；ErrVehicleUnavailable 匹配以 "vehicle unavailable" 开头的服务端错误
func (e *Error) Is(target error) bool {
	if target == ErrVehicleUnavailable {
		return e.IsVehicleUnavailable()
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// IsVehicleUnavailable 车辆不可用（休眠/离线）错误，调用方可自行决定唤醒后重试
func (e *Error) IsVehicleUnavailable() bool {
	return e.Kind == KindServer && strings.HasPrefix(e.Message, vehicleUnavailablePrefix)
}

// 错误定义
var (
	ErrInvalidURL         = &Error{Kind: KindInvalidURL}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrVehicleUnavailable = errors.New(vehicleUnavailablePrefix)
)

// ServerError 构造服务端逻辑错误
func ServerError(message string) *Error {
	return &Error{Kind: KindServer, Message: message}
}

// IsVehicleUnavailable 判断任意错误链中是否包含车辆不可用错误
func IsVehicleUnavailable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.IsVehicleUnavailable()
}

// KindOf 返回错误分类，非客户端错误返回 0
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
