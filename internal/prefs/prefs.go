// Package prefs 保存终端界面的用户偏好，默认位于 ~/.config/teslaowner/prefs.toml
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// 里程单位
const (
	UnitsKm    = "km"
	UnitsMiles = "mi"
)

const defaultPrefsPath = "~/.config/teslaowner/prefs.toml"

// Prefs 用户偏好
type Prefs struct {
	LastVehicleID int64  `toml:"last_vehicle_id"` // 0 表示未选择
	Units         string `toml:"units"`
}

// Default 默认偏好
func Default() Prefs {
	return Prefs{Units: UnitsKm}
}

// DefaultPath 默认偏好文件路径
func DefaultPath() string {
	return defaultPrefsPath
}

// Load 读取偏好，文件缺失或损坏时返回默认值
func Load(path string) (Prefs, error) {
	prefs := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("read prefs: %w", err)
	}

	if err := toml.Unmarshal(data, &prefs); err != nil {
		return Default(), nil
	}

	switch prefs.Units {
	case UnitsKm, UnitsMiles:
	default:
		prefs.Units = UnitsKm
	}
	return prefs, nil
}

// Save 写入偏好，必要时创建目录
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
