package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gonarrative/internal"
	"gonarrative/internal/config"
	"gonarrative/internal/container"
	"gonarrative/ui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./config.yaml)")
	flag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, restore, err := internal.InitGlobal(internal.ParseLogLevel(appConfig.Log.Level), appConfig.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer restore()

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		logger.Fatal("failed to create application container", zap.Error(err))
	}
	defer appContainer.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := ui.NewServer(ui.ServerConfig{
		GinMode:        appConfig.Server.GinMode,
		RequestsPerSec: appConfig.Server.RateLimit,
		Burst:          appConfig.Server.Burst,
	}, appContainer.Narratives, appContainer.Reports, appContainer.Engine.Registry(), logger)

	if err := server.Start(ctx, ":"+appConfig.Server.Port); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
