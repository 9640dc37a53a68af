package viewmodel

import (
	"context"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"go.uber.org/mock/gomock"

	"github.com/langchou/teslaowner/internal/api/tesla"
	"github.com/langchou/teslaowner/internal/credentials"
	"github.com/langchou/teslaowner/internal/viewmodel/mocks"
)

var (
	ctx = context.Background()

	testToken = &tesla.Token{
		AccessToken:  "qts-abc",
		TokenType:    "bearer",
		ExpiresIn:    3888000,
		RefreshToken: "rft-def",
		CreatedAt:    time.Now().Unix(),
	}
)

func newMockAPI(t *testing.T) *mocks.MockAPI {
	t.Helper()
	return mocks.NewMockAPI(gomock.NewController(t))
}

func newStore() credentials.Store {
	return credentials.NewKeyringStore(keyring.NewArrayKeyring(nil))
}

func vehicle(id int64, state string) tesla.Vehicle {
	name := "Roadrunner"
	return tesla.Vehicle{ID: id, VehicleID: id * 100, VIN: "5YJ3E1EA7KF000001", DisplayName: &name, State: state}
}

func vehicleDetail(id int64, locked bool) *tesla.VehicleDetail {
	return &tesla.VehicleDetail{
		ID:           id,
		State:        "online",
		VehicleState: tesla.VehicleState{Locked: locked, CarVersion: "2020.48.26"},
	}
}
