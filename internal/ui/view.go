package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/langchou/teslaowner/internal/api/tesla"
	"github.com/langchou/teslaowner/internal/prefs"
	"github.com/langchou/teslaowner/internal/viewmodel"
)

// 动作展示名称
var actionLabels = map[string]string{
	viewmodel.ActionFrunk: "Open frunk",
	viewmodel.ActionTrunk: "Toggle trunk",
	viewmodel.ActionHonk:  "Honk",
	viewmodel.ActionFlash: "Flash lights",
	viewmodel.ActionWake:  "Wake up",
}

// View 实现 tea.Model
func (m Model) View() string {
	var body string
	switch m.screen {
	case screenLogin:
		body = m.viewLogin()
	case screenVehicles:
		body = m.viewVehicles()
	case screenDetail:
		body = m.viewDetail()
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(body)
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tesla Login"))
	b.WriteString("\n")
	b.WriteString(m.email.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	switch m.loginSt.Phase {
	case viewmodel.PhaseLoading:
		b.WriteString(m.spinner.View() + " Signing in...")
	case viewmodel.PhaseFailed:
		b.WriteString(dangerStyle.Render(m.loginSt.Message))
	}
	b.WriteString("\n\n")
	b.WriteString(helpLine(m.keys.NextField, m.keys.Submit))
	return b.String()
}

func (m Model) viewVehicles() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Vehicles"))
	b.WriteString("\n")

	switch m.listSt.Phase {
	case viewmodel.PhaseAwaitingInput, viewmodel.PhaseLoading:
		b.WriteString(m.spinner.View() + " Loading vehicles...")
	case viewmodel.PhaseEmpty, viewmodel.PhaseFailed:
		style := mutedStyle
		if m.listSt.Phase == viewmodel.PhaseFailed {
			style = dangerStyle
		}
		b.WriteString(style.Render(m.listSt.Message))
	case viewmodel.PhaseLoaded:
		for i, v := range m.listSt.Content {
			line := fmt.Sprintf("%-24s %s", v.Name(), mutedStyle.Render(v.State))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(helpLine(m.keys.Up, m.keys.Down, m.keys.Submit, m.keys.Reload, m.keys.Logout, m.keys.Quit))
	return b.String()
}

func (m Model) viewDetail() string {
	st := m.detailSt
	var b strings.Builder
	b.WriteString(titleStyle.Render(st.Vehicle.Name()))
	b.WriteString("\n")

	switch st.Detail.Phase {
	case viewmodel.PhaseLoading:
		b.WriteString(m.spinner.View() + " Loading vehicle...")
	case viewmodel.PhaseFailed:
		b.WriteString(dangerStyle.Render(st.Detail.Message))
	case viewmodel.PhaseLoaded:
		b.WriteString(boxStyle.Render(renderVehicleState(st.Detail.Content, st.IsLocked, m.prefs.Units)))
	}
	b.WriteString("\n\n")

	for _, name := range viewmodel.DetailActions {
		binding := m.keys.actionBindings()[name]
		label := actionLabels[name]
		if name == viewmodel.ActionToggleLock {
			label = "Lock"
			if st.IsLocked {
				label = "Unlock"
			}
		}
		line := fmt.Sprintf("[%s] %s", binding.Help().Key, label)
		if st.Busy[name] {
			line += " " + m.spinner.View()
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpLine(m.keys.Back, m.keys.Reload, m.keys.Units, m.keys.Quit))
	return b.String()
}

func renderVehicleState(d *tesla.VehicleDetail, locked bool, units string) string {
	if d == nil {
		return ""
	}
	lock := successStyle.Render("Locked")
	if !locked {
		lock = dangerStyle.Render("Unlocked")
	}

	rows := [][2]string{
		{"State", d.State},
		{"Doors", lock},
		{"Odometer", formatOdometer(d.VehicleState.Odometer, units)},
		{"Software", d.VehicleState.CarVersion},
		{"VIN", d.VIN},
	}
	if d.VehicleState.SentryMode {
		rows = append(rows, [2]string{"Sentry", "On"})
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r[0])+r[1])
	}
	return strings.Join(lines, "\n")
}

// formatOdometer 按单位格式化里程，API 返回英里
func formatOdometer(miles float64, units string) string {
	if units == prefs.UnitsMiles {
		return fmt.Sprintf("%.0f mi", miles)
	}
	return fmt.Sprintf("%.0f km", tesla.MilesToKm(miles))
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return mutedStyle.Render(strings.Join(parts, " • "))
}
