package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/langchou/teslaowner/internal/bootstrap"
	"github.com/langchou/teslaowner/internal/config"
	"github.com/langchou/teslaowner/internal/prefs"
	"github.com/langchou/teslaowner/internal/ui"
	"github.com/langchou/teslaowner/internal/viewmodel"
)

func main() {
	os.Exit(run())
}

func run() int {
	logPath := flag.String("log", "", "write logs to this file (optional, logs are discarded otherwise)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tesla-tui: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "tesla-tui: %v\n", err)
		return 1
	}

	// 终端界面占用标准输出，日志只写入文件
	logger := zap.NewNop()
	if *logPath != "" {
		zcfg := zap.NewDevelopmentConfig()
		zcfg.OutputPaths = []string{*logPath}
		zcfg.ErrorOutputPaths = []string{*logPath}
		if l, err := zcfg.Build(); err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	storage, err := bootstrap.OpenStorage(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tesla-tui: %v\n", err)
		return 1
	}
	defer storage.Close()

	p, err := prefs.Load(cfg.PrefsPath)
	if err != nil {
		logger.Warn("Failed to load preferences", zap.Error(err))
	}

	client := bootstrap.NewClient(cfg, logger, nil)
	opts := ui.Options{
		Context:   ctx,
		API:       client,
		Login:     viewmodel.NewLoginViewModel(client, storage.Store, logger),
		Vehicles:  viewmodel.NewVehicleListViewModel(client, logger),
		Logger:    logger,
		PrefsPath: cfg.PrefsPath,
		Prefs:     p,
	}

	if err := ui.Run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "tesla-tui: %v\n", err)
		return 1
	}
	return 0
}
