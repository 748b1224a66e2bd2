package http

import (
	"encoding/json"
	"os"

	"github.com/sweep7125/sub-service/internal/config"
	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/internal/service"
)

type Handler struct {
	configService *service.ConfigService
	geoService    *service.GeoFileService
	cfg           *config.StructuredConfig

	// happRouting is the routing template sent to Happ clients, loaded once
	// at startup; a missing or broken file degrades to an empty template.
	happRouting map[string]any

	logger *logger.Logger
}

func NewHandler(configService *service.ConfigService, geoService *service.GeoFileService, cfg *config.StructuredConfig, logger *logger.Logger) *Handler {
	h := &Handler{
		configService: configService,
		geoService:    geoService,
		cfg:           cfg,
		happRouting:   loadHappRouting(cfg.Storage.HappRoutingFile, logger),
		logger:        logger,
	}

	logger.Info().Msg("http handler created")
	return h
}

// loadHappRouting reads the Happ routing JSON document. Any failure yields
// an empty template: the routing header is optional client sugar.
func loadHappRouting(path string, logger *logger.Logger) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Info().Str("path", path).Msg("happ routing file not found, using empty configuration")
		return map[string]any{}
	}

	var routing map[string]any
	if err := json.Unmarshal(data, &routing); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("invalid happ routing file")
		return map[string]any{}
	}

	return routing
}
