package viewmodel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/langchou/teslaowner/internal/api/tesla"
	"github.com/langchou/teslaowner/internal/credentials"
)

func TestLoginRestoresSession(t *testing.T) {
	api := newMockAPI(t)
	store := newStore()
	require.NoError(t, credentials.SaveSession(store, credentials.Session{
		Token: testToken, Email: "me@example.com", Password: "hunter2",
	}))

	api.EXPECT().SetToken(testToken)

	vm := NewLoginViewModel(api, store, nil)
	state := vm.State()
	assert.Equal(t, PhaseLoaded, state.Phase)
	assert.True(t, state.ShowVehicles)
	assert.Equal(t, "me@example.com", state.Email)
	assert.Equal(t, "hunter2", state.Password)
}

func TestLoginSkipsExpiredToken(t *testing.T) {
	api := newMockAPI(t)
	store := newStore()
	expired := &tesla.Token{
		AccessToken: "qts-old",
		TokenType:   "bearer",
		ExpiresIn:   3600,
		CreatedAt:   time.Now().Add(-2 * time.Hour).Unix(),
	}
	require.NoError(t, credentials.SaveSession(store, credentials.Session{
		Token: expired, Email: "me@example.com", Password: "hunter2",
	}))

	vm := NewLoginViewModel(api, store, nil)
	state := vm.State()
	assert.Equal(t, PhaseAwaitingInput, state.Phase)
	assert.False(t, state.ShowVehicles)
	assert.Equal(t, "me@example.com", state.Email)
	assert.True(t, state.CanLogin())
}

func TestLoginWithoutSession(t *testing.T) {
	vm := NewLoginViewModel(newMockAPI(t), newStore(), nil)

	assert.Equal(t, PhaseAwaitingInput, vm.State().Phase)
	assert.False(t, vm.State().ShowVehicles)
	assert.False(t, vm.Login(ctx))

	vm.SetCredentials("me@example.com", "")
	assert.False(t, vm.Login(ctx))
}

func TestLoginSuccessPersistsSession(t *testing.T) {
	api := newMockAPI(t)
	store := newStore()
	api.EXPECT().GetToken(gomock.Any(), "me@example.com", "hunter2").Return(testToken, nil)

	vm := NewLoginViewModel(api, store, nil)
	vm.SetCredentials("me@example.com", "hunter2")
	require.True(t, vm.Login(ctx))
	vm.Wait()

	state := vm.State()
	assert.Equal(t, PhaseLoaded, state.Phase)
	assert.True(t, state.ShowVehicles)

	session, err := credentials.LoadSession(store)
	require.NoError(t, err)
	assert.Equal(t, testToken, session.Token)
	assert.Equal(t, "me@example.com", session.Email)
	assert.Equal(t, "hunter2", session.Password)
}

func TestLoginFailure(t *testing.T) {
	api := newMockAPI(t)
	store := newStore()
	api.EXPECT().GetToken(gomock.Any(), "me@example.com", "wrong").Return(nil, tesla.ServerError("invalid credentials"))

	vm := NewLoginViewModel(api, store, nil)
	vm.SetCredentials("me@example.com", "wrong")
	require.True(t, vm.Login(ctx))
	vm.Wait()

	state := vm.State()
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.Equal(t, "invalid credentials", state.Message)
	assert.False(t, state.ShowVehicles)

	session, err := credentials.LoadSession(store)
	require.NoError(t, err)
	assert.Nil(t, session.Token)
}

func TestLoginIgnoredWhileLoading(t *testing.T) {
	api := newMockAPI(t)
	release := make(chan struct{})
	api.EXPECT().GetToken(gomock.Any(), "me@example.com", "hunter2").
		DoAndReturn(func(ctx context.Context, email, password string) (*tesla.Token, error) {
			<-release
			return testToken, nil
		}).Times(1)

	vm := NewLoginViewModel(api, newStore(), nil)
	vm.SetCredentials("me@example.com", "hunter2")
	require.True(t, vm.Login(ctx))
	assert.Equal(t, PhaseLoading, vm.State().Phase)
	assert.False(t, vm.Login(ctx))

	close(release)
	vm.Wait()
	assert.Equal(t, PhaseLoaded, vm.State().Phase)
}

func TestLogout(t *testing.T) {
	api := newMockAPI(t)
	store := newStore()
	require.NoError(t, credentials.SaveSession(store, credentials.Session{
		Token: testToken, Email: "me@example.com", Password: "hunter2",
	}))

	gomock.InOrder(
		api.EXPECT().SetToken(testToken),
		api.EXPECT().SetToken(nil),
	)

	vm := NewLoginViewModel(api, store, nil)
	vm.Logout()

	assert.Equal(t, PhaseAwaitingInput, vm.State().Phase)
	assert.False(t, vm.State().ShowVehicles)

	session, err := credentials.LoadSession(store)
	require.NoError(t, err)
	assert.Nil(t, session.Token)
	assert.Equal(t, "me@example.com", session.Email)
}

func TestLoginSubscribe(t *testing.T) {
	api := newMockAPI(t)
	api.EXPECT().GetToken(gomock.Any(), gomock.Any(), gomock.Any()).Return(testToken, nil)

	vm := NewLoginViewModel(api, newStore(), nil)
	updates, cancel := vm.Subscribe()
	defer cancel()
	assert.Equal(t, PhaseAwaitingInput, (<-updates).Phase)

	vm.SetCredentials("me@example.com", "hunter2")
	vm.Login(ctx)
	vm.Wait()

	state := <-updates
	assert.Equal(t, PhaseLoaded, state.Phase)
	assert.True(t, state.ShowVehicles)
}

func TestLogoutWaitsForPendingLogin(t *testing.T) {
	api := newMockAPI(t)

	// installed 模拟客户端持有的令牌：GetToken 成功时由客户端安装
	var mu sync.Mutex
	var installed *tesla.Token
	started := make(chan struct{})
	release := make(chan struct{})

	api.EXPECT().GetToken(gomock.Any(), "me@example.com", "hunter2").
		DoAndReturn(func(ctx context.Context, email, password string) (*tesla.Token, error) {
			close(started)
			<-release
			mu.Lock()
			installed = testToken
			mu.Unlock()
			return testToken, nil
		})
	api.EXPECT().SetToken(nil).Do(func(token *tesla.Token) {
		mu.Lock()
		installed = token
		mu.Unlock()
	})

	store := newStore()
	vm := NewLoginViewModel(api, store, nil)
	vm.SetCredentials("me@example.com", "hunter2")
	require.True(t, vm.Login(ctx))
	<-started

	done := make(chan struct{})
	go func() {
		vm.Logout()
		close(done)
	}()
	close(release)
	<-done

	mu.Lock()
	assert.Nil(t, installed)
	mu.Unlock()
	assert.Equal(t, PhaseAwaitingInput, vm.State().Phase)
	assert.False(t, vm.State().ShowVehicles)

	session, err := credentials.LoadSession(store)
	require.NoError(t, err)
	assert.Nil(t, session.Token)
}
