package main

import (
	"flag"
	"path/filepath"

	"github.com/kennethwltu/smspanel/internal/config"
	"github.com/kennethwltu/smspanel/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to the JSON config file")
	flag.Parse()

	cfg := loadConfig(*configPath)

	if err := logger.Init(cfg.Logging.Path, cfg.Logging.Level); err != nil {
		panic(err)
	}
	defer logger.Info("Server shutting down")

	app, err := SetupApp(cfg)
	if err != nil {
		logger.Fatal("Failed to setup server", zap.Error(err))
	}

	if err := app.Run(); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.DefaultConfig()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		panic(err)
	}
	cfg, err := config.LoadConfig(abs)
	if err != nil {
		panic(err)
	}
	return cfg
}
