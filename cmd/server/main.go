package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sweep7125/sub-service/internal/config"
	httphandler "github.com/sweep7125/sub-service/internal/handler/http"
	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/internal/server"
	"github.com/sweep7125/sub-service/internal/service"
	"github.com/sweep7125/sub-service/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("sub-service")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	if err := logger.SetGlobalLevel(cfg.App.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", cfg.App.LogLevel).Msg("invalid log level, keeping default")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	storages := store.NewStorages(cfg.Storage, log)
	configService := service.NewConfigService(cfg, storages, log)
	geoService := service.NewGeoFileService(cfg.Geo, cfg.Storage.CacheDir, log)

	handler := httphandler.NewHandler(configService, geoService, cfg, log)
	srv := server.NewServer(cfg.Server, handler.Init(), log)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Run()
	}()

	log.Info().Str("secret_path", "/"+cfg.App.SecretPath+"/").Msg("application ready to accept requests")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
