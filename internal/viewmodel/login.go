package viewmodel

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/teslaowner/internal/action"
	"github.com/langchou/teslaowner/internal/api/tesla"
	"github.com/langchou/teslaowner/internal/credentials"
)

// LoginState 登录页快照
type LoginState struct {
	Email        string `json:"email"`
	Password     string `json:"-"`
	Phase        Phase  `json:"phase"`
	Err          error  `json:"-"`
	Message      string `json:"message,omitempty"`
	ShowVehicles bool   `json:"show_vehicles"`
}

// CanLogin 输入完整且不在登录中
func (s LoginState) CanLogin() bool {
	return s.Email != "" && s.Password != "" && s.Phase != PhaseLoading
}

// LoginViewModel 登录视图模型
type LoginViewModel struct {
	api    API
	store  credentials.Store
	logger *zap.Logger
	latest action.Latest[*tesla.Token]
	pub    Publisher[LoginState]

	mu    sync.Mutex
	state LoginState
}

// NewLoginViewModel 创建登录视图模型，并从凭据存储恢复会话
func NewLoginViewModel(api API, store credentials.Store, logger *zap.Logger) *LoginViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	vm := &LoginViewModel{
		api:    api,
		store:  store,
		logger: logger.With(zap.String("view", "login")),
		state:  LoginState{Phase: PhaseAwaitingInput},
	}

	session, err := credentials.LoadSession(store)
	if err != nil {
		vm.logger.Warn("Failed to restore session", zap.Error(err))
		return vm
	}
	vm.state.Email = session.Email
	vm.state.Password = session.Password
	if session.Token != nil && session.Token.IsExpired(time.Now()) {
		vm.logger.Info("Stored token expired, login required", zap.String("email", session.Email))
		return vm
	}
	if session.Token != nil {
		api.SetToken(session.Token)
		vm.state.Phase = PhaseLoaded
		vm.state.ShowVehicles = true
		vm.logger.Info("Session restored", zap.String("email", session.Email))
	}
	return vm
}

// State 当前快照
func (vm *LoginViewModel) State() LoginState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Subscribe 订阅快照变化
func (vm *LoginViewModel) Subscribe() (<-chan LoginState, func()) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.pub.Subscribe(vm.state)
}

// SetCredentials 更新输入的邮箱和密码
func (vm *LoginViewModel) SetCredentials(email, password string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.state.Email = email
	vm.state.Password = password
	vm.pub.Publish(vm.state)
}

// Login 发起登录，输入不完整或正在登录时返回 false
func (vm *LoginViewModel) Login(ctx context.Context) bool {
	vm.mu.Lock()
	if !vm.state.CanLogin() {
		vm.mu.Unlock()
		return false
	}
	email, password := vm.state.Email, vm.state.Password
	vm.state.Phase = PhaseLoading
	vm.state.Err = nil
	vm.state.Message = ""
	vm.pub.Publish(vm.state)
	vm.mu.Unlock()

	vm.latest.Run(ctx, func(ctx context.Context) (*tesla.Token, error) {
		return vm.api.GetToken(ctx, email, password)
	}, func(token *tesla.Token, err error) {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		if err != nil {
			vm.logger.Warn("Login failed", zap.String("email", email), zap.Error(err))
			vm.state.Phase = PhaseFailed
			vm.state.Err = err
			vm.state.Message = err.Error()
			vm.pub.Publish(vm.state)
			return
		}

		session := credentials.Session{Token: token, Email: email, Password: password}
		if err := credentials.SaveSession(vm.store, session); err != nil {
			vm.logger.Error("Failed to save session", zap.Error(err))
		}
		vm.logger.Info("Login succeeded", zap.String("email", email))
		vm.state.Phase = PhaseLoaded
		vm.state.ShowVehicles = true
		vm.pub.Publish(vm.state)
	})
	return true
}

// Logout 清除令牌，保留已保存的邮箱和密码。会等待进行中的登录请求结束
func (vm *LoginViewModel) Logout() {
	vm.latest.Cancel()
	// 等待进行中的 GetToken 返回，避免其安装的令牌覆盖登出
	vm.latest.Wait()
	vm.api.SetToken(nil)
	if err := credentials.SaveToken(vm.store, nil); err != nil {
		vm.logger.Error("Failed to clear token", zap.Error(err))
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.state.Phase = PhaseAwaitingInput
	vm.state.Err = nil
	vm.state.Message = ""
	vm.state.ShowVehicles = false
	vm.pub.Publish(vm.state)
}

// Wait 等待正在进行的登录完成
func (vm *LoginViewModel) Wait() {
	vm.latest.Wait()
}
