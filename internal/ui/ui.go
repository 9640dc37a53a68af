// Package ui 提供基于 Bubble Tea 的终端界面，驱动登录、车辆列表和车辆详情视图模型
package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/langchou/teslaowner/internal/api/tesla"
	"github.com/langchou/teslaowner/internal/prefs"
	"github.com/langchou/teslaowner/internal/viewmodel"
)

type screen int

const (
	screenLogin screen = iota
	screenVehicles
	screenDetail
)

// Options 界面依赖
type Options struct {
	Context   context.Context
	API       viewmodel.API
	Login     *viewmodel.LoginViewModel
	Vehicles  *viewmodel.VehicleListViewModel
	Logger    *zap.Logger
	PrefsPath string
	Prefs     prefs.Prefs
}

// 视图模型快照消息，携带通道以便继续等待下一个快照
type loginMsg struct {
	state viewmodel.LoginState
	ch    <-chan viewmodel.LoginState
}

type vehiclesMsg struct {
	state viewmodel.VehicleListState
	ch    <-chan viewmodel.VehicleListState
}

type detailMsg struct {
	id    int64
	state viewmodel.VehicleDetailState
	ch    <-chan viewmodel.VehicleDetailState
}

type prefsSavedMsg struct{ err error }

// Model Bubble Tea 根模型
type Model struct {
	ctx       context.Context
	api       viewmodel.API
	login     *viewmodel.LoginViewModel
	vehicles  *viewmodel.VehicleListViewModel
	logger    *zap.Logger
	prefsPath string
	prefs     prefs.Prefs
	keys      keyMap

	screen  screen
	width   int
	spinner spinner.Model

	// 登录
	email    textinput.Model
	password textinput.Model
	focus    int
	loginCh  <-chan viewmodel.LoginState
	loginSt  viewmodel.LoginState

	// 车辆列表
	vehiclesCh <-chan viewmodel.VehicleListState
	listSt     viewmodel.VehicleListState
	selected   int

	// 车辆详情
	detail       *viewmodel.VehicleDetailViewModel
	detailID     int64
	detailSt     viewmodel.VehicleDetailState
	cancelDetail func()
}

// New 创建界面模型并订阅登录和列表视图模型
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := opts.Prefs
	if p.Units == "" {
		p = prefs.Default()
	}

	email := textinput.New()
	email.Placeholder = "Email"
	email.Prompt = "Email     "
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.Prompt = "Password  "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		api:       opts.API,
		login:     opts.Login,
		vehicles:  opts.Vehicles,
		logger:    logger,
		prefsPath: opts.PrefsPath,
		prefs:     p,
		keys:      defaultKeyMap(),
		spinner:   sp,
		email:     email,
		password:  password,
	}

	m.loginSt = m.login.State()
	m.email.SetValue(m.loginSt.Email)
	m.password.SetValue(m.loginSt.Password)
	m.listSt = m.vehicles.State()

	// 订阅会立即收到当前快照
	m.loginCh, _ = m.login.Subscribe()
	m.vehiclesCh, _ = m.vehicles.Subscribe()
	return m
}

// Init 实现 tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitLogin(m.loginCh),
		waitVehicles(m.vehiclesCh),
	)
}

// Update 实现 tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.screen {
		case screenLogin:
			return m.updateLogin(msg)
		case screenVehicles:
			return m.updateVehicles(msg)
		case screenDetail:
			return m.updateDetail(msg)
		}
		return m, nil

	case loginMsg:
		return m.handleLogin(msg)

	case vehiclesMsg:
		m.listSt = msg.state
		m.clampSelection()
		return m, waitVehicles(msg.ch)

	case detailMsg:
		if m.detail != nil && msg.id == m.detailID {
			m.detailSt = msg.state
		}
		return m, waitDetail(msg.id, msg.ch)

	case prefsSavedMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to save preferences", zap.Error(msg.err))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.closeDetail()
	return m, tea.Quit
}

func (m Model) handleLogin(msg loginMsg) (tea.Model, tea.Cmd) {
	m.loginSt = msg.state
	cmds := []tea.Cmd{waitLogin(msg.ch)}

	switch {
	case msg.state.ShowVehicles && m.screen == screenLogin:
		m.screen = screenVehicles
		if m.vehicles.State().Phase == viewmodel.PhaseAwaitingInput {
			m.vehicles.Load(m.ctx)
		}
	case !msg.state.ShowVehicles && m.screen != screenLogin:
		m.closeDetail()
		m.screen = screenLogin
		m.password.SetValue(msg.state.Password)
		m.focusField(0)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextField, m.keys.PrevField):
		m.focusField((m.focus + 1) % 2)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.login.SetCredentials(m.email.Value(), m.password.Value())
		m.login.Login(m.ctx)
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusField(i int) {
	m.focus = i
	if i == 0 {
		m.email.Focus()
		m.password.Blur()
	} else {
		m.password.Focus()
		m.email.Blur()
	}
}

func (m Model) updateVehicles(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.listSt.Content)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Reload):
		m.vehicles.Load(m.ctx)
	case key.Matches(msg, m.keys.Logout):
		m.login.Logout()
		m.vehicles.Reset()
		m.selected = 0
	case key.Matches(msg, m.keys.Submit):
		if m.listSt.Phase != viewmodel.PhaseLoaded || len(m.listSt.Content) == 0 {
			return m, nil
		}
		return m.openDetail(m.listSt.Content[m.selected])
	}
	return m, nil
}

func (m Model) openDetail(vehicle tesla.Vehicle) (tea.Model, tea.Cmd) {
	m.closeDetail()

	vm := viewmodel.NewVehicleDetailViewModel(m.api, vehicle, m.logger)
	ch, cancel := vm.Subscribe()
	m.detail = vm
	m.detailID = vehicle.ID
	m.detailSt = vm.State()
	m.cancelDetail = cancel
	m.screen = screenDetail
	vm.Reload(m.ctx)

	m.prefs.LastVehicleID = vehicle.ID
	return m, tea.Batch(waitDetail(vehicle.ID, ch), m.savePrefs())
}

func (m *Model) closeDetail() {
	if m.cancelDetail != nil {
		m.cancelDetail()
	}
	m.detail = nil
	m.detailID = 0
	m.cancelDetail = nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Back):
		m.closeDetail()
		m.screen = screenVehicles
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		m.detail.Reload(m.ctx)
		return m, nil
	case key.Matches(msg, m.keys.Units):
		if m.prefs.Units == prefs.UnitsKm {
			m.prefs.Units = prefs.UnitsMiles
		} else {
			m.prefs.Units = prefs.UnitsKm
		}
		return m, m.savePrefs()
	}

	for name, binding := range m.keys.actionBindings() {
		if key.Matches(msg, binding) {
			if _, err := m.detail.Trigger(m.ctx, name); err != nil {
				m.logger.Warn("Failed to trigger action", zap.String("action", name), zap.Error(err))
			}
			break
		}
	}
	return m, nil
}

// clampSelection 列表变化后修正选中行，首次加载时选中上次查看的车辆
func (m *Model) clampSelection() {
	vehicles := m.listSt.Content
	if len(vehicles) == 0 {
		m.selected = 0
		return
	}
	if m.selected == 0 && m.prefs.LastVehicleID != 0 {
		for i, v := range vehicles {
			if v.ID == m.prefs.LastVehicleID {
				m.selected = i
				return
			}
		}
	}
	if m.selected >= len(vehicles) {
		m.selected = len(vehicles) - 1
	}
}

func (m Model) savePrefs() tea.Cmd {
	path, p := m.prefsPath, m.prefs
	return func() tea.Msg {
		return prefsSavedMsg{err: prefs.Save(path, p)}
	}
}

func waitLogin(ch <-chan viewmodel.LoginState) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-ch
		if !ok {
			return nil
		}
		return loginMsg{state: state, ch: ch}
	}
}

func waitVehicles(ch <-chan viewmodel.VehicleListState) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-ch
		if !ok {
			return nil
		}
		return vehiclesMsg{state: state, ch: ch}
	}
}

func waitDetail(id int64, ch <-chan viewmodel.VehicleDetailState) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-ch
		if !ok {
			return nil
		}
		return detailMsg{id: id, state: state, ch: ch}
	}
}

// Run 启动终端界面
func Run(opts Options) error {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(opts.Context))
	_, err := p.Run()
	return err
}
