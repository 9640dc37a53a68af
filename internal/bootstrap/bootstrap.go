package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/teslaowner/internal/api/tesla"
	"github.com/langchou/teslaowner/internal/config"
	"github.com/langchou/teslaowner/internal/credentials"
	"github.com/langchou/teslaowner/internal/repository"
)

// NewLogger 初始化日志
func NewLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// NewClient 按配置创建 Tesla API 客户端，reg 为 nil 时不记录指标
func NewClient(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) *tesla.Client {
	opts := []tesla.Option{
		tesla.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
	}
	if reg != nil && cfg.MetricsEnabled {
		opts = append(opts, tesla.WithMetrics(tesla.NewMetrics(reg)))
	}

	creds := tesla.ClientCredentials{ID: cfg.TeslaClientID, Secret: cfg.TeslaClientSecret}
	return tesla.NewClient(cfg.TeslaAPIHost, creds, logger.Named("tesla"), opts...)
}

// Storage 凭据存储及其可选的数据库连接
type Storage struct {
	Store credentials.Store
	DB    *repository.DB // 仅 postgres 后端
	close func()
}

// Close 释放存储资源
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage 按 CREDENTIAL_BACKEND 打开凭据存储
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	logger.Info("Opening credential store", zap.String("backend", cfg.CredentialBackend))

	switch cfg.CredentialBackend {
	case config.BackendKeyring, config.BackendFile:
		store, err := credentials.OpenKeyring(credentials.KeyringConfig{
			ServiceName: cfg.KeyringService,
			Backend:     cfg.CredentialBackend,
			FileDir:     cfg.KeyringFileDir,
			Password:    cfg.KeyringPassword,
		})
		if err != nil {
			return nil, err
		}
		return &Storage{Store: store}, nil

	case config.BackendSQLite:
		store, err := credentials.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Storage{Store: store, close: func() { store.Close() }}, nil

	case config.BackendPostgres:
		db, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Database migrated successfully")
		return &Storage{
			Store: repository.NewCredentialRepository(db, cfg.RequestTimeout),
			DB:    db,
			close: db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown credential backend %q", cfg.CredentialBackend)
	}
}
