package viewmodel

import (
	"context"

	"github.com/langchou/teslaowner/internal/api/tesla"
)

//go:generate mockgen -source=api.go -destination=mocks/mock_api.go -package=mocks

// API 视图模型依赖的车辆接口，由 *tesla.Client 实现
type API interface {
	GetToken(ctx context.Context, email, password string) (*tesla.Token, error)
	GetVehicles(ctx context.Context) ([]tesla.Vehicle, error)
	GetVehicle(ctx context.Context, id int64) (*tesla.VehicleDetail, error)
	Execute(ctx context.Context, command tesla.Command, id int64) (bool, error)
	SetToken(token *tesla.Token)
}

var _ API = (*tesla.Client)(nil)
