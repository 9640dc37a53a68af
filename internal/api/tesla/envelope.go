package tesla

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/buger/jsonparser"
)

// decodeEnvelope 按成功结构 T 解析响应体，失败后再尝试 ErrorEnvelope。
// 两者都不匹配时返回包装了成功结构解析错误的 DecodingError。HTTP 状态码不参与判断。
func decodeEnvelope[T any](body []byte) (T, *ErrorEnvelope, error) {
	value, err := decodeStrict[T](body)
	if err == nil {
		return value, nil, nil
	}

	if envelope, envErr := decodeStrict[ErrorEnvelope](body); envErr == nil {
		var zero T
		return zero, &envelope, nil
	}

	var zero T
	return zero, nil, &Error{Kind: KindDecoding, Err: err}
}

// decodeStrict 解析 JSON 并要求所有非可选字段存在且不为 null
func decodeStrict[T any](body []byte) (T, error) {
	var value T
	if err := json.Unmarshal(body, &value); err != nil {
		return value, fmt.Errorf("decode %T: %w", value, err)
	}
	if err := checkShape(body, reflect.TypeOf(value), ""); err != nil {
		return value, fmt.Errorf("decode %T: %w", value, err)
	}
	return value, nil
}

// errMissingField 必填字段缺失或为 null
var errMissingField = errors.New("missing required field")

// checkShape 递归检查 data 是否覆盖类型 t 的全部必填字段
func checkShape(data []byte, t reflect.Type, path string) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		return checkStruct(data, t, path)
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return nil
		}
		var elemErr error
		index := 0
		_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
			if elemErr == nil && dataType != jsonparser.Null {
				elemErr = checkShape(value, t.Elem(), fmt.Sprintf("%s[%d]", path, index))
			}
			index++
		})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return elemErr
	default:
		return nil
	}
}

func checkStruct(data []byte, t reflect.Type, path string) error {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, optional, skip := jsonField(field)
		if skip {
			continue
		}
		if field.Anonymous && name == "" {
			if err := checkShape(data, field.Type, path); err != nil {
				return err
			}
			continue
		}
		if name == "" {
			name = field.Name
		}
		fieldPath := strings.TrimPrefix(path+"."+name, ".")

		value, dataType, _, err := jsonparser.Get(data, name)
		switch {
		case errors.Is(err, jsonparser.KeyPathNotFoundError) || (err == nil && dataType == jsonparser.Null):
			if optional || field.Type.Kind() == reflect.Pointer {
				continue
			}
			return fmt.Errorf("%w %q", errMissingField, fieldPath)
		case err != nil:
			return fmt.Errorf("%s: %w", fieldPath, err)
		}

		if err := checkShape(value, field.Type, fieldPath); err != nil {
			return err
		}
	}
	return nil
}

// jsonField 解析 json tag，返回字段名、是否 omitempty、是否忽略
func jsonField(field reflect.StructField) (name string, optional bool, skip bool) {
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			optional = true
		}
	}
	return parts[0], optional, false
}
