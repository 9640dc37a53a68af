package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/langchou/teslaowner/internal/viewmodel"
)

// keyMap 键位绑定
type keyMap struct {
	Quit      key.Binding
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	Reload    key.Binding
	Logout    key.Binding
	Units     key.Binding

	// 车辆动作
	Lock  key.Binding
	Frunk key.Binding
	Trunk key.Binding
	Honk  key.Binding
	Flash key.Binding
	Wake  key.Binding
}

// defaultKeyMap 默认键位
func defaultKeyMap() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Logout:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "log out")),
		Units:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "km/mi")),

		Lock:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lock/unlock")),
		Frunk: key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "frunk")),
		Trunk: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trunk")),
		Honk:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "honk")),
		Flash: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "flash")),
		Wake:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wake")),
	}
}

// actionBindings 动作名称到键位
func (k keyMap) actionBindings() map[string]key.Binding {
	return map[string]key.Binding{
		viewmodel.ActionToggleLock: k.Lock,
		viewmodel.ActionFrunk:      k.Frunk,
		viewmodel.ActionTrunk:      k.Trunk,
		viewmodel.ActionHonk:       k.Honk,
		viewmodel.ActionFlash:      k.Flash,
		viewmodel.ActionWake:       k.Wake,
	}
}
