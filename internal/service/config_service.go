package service

import (
	"fmt"

	"github.com/sweep7125/sub-service/internal/config"
	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/internal/store"
	"github.com/sweep7125/sub-service/models"
)

// ConfigService coordinates the repositories and the three format builders.
// One SpiderXGenerator is shared by every builder so the rolling used-path
// set spans all concurrent build invocations.
type ConfigService struct {
	storages *store.Storages
	spiderX  *SpiderXGenerator
	builders map[Format]ConfigBuilder

	logger *logger.Logger
}

// NewConfigService wires the builders to the file-backed template loaders.
func NewConfigService(cfg *config.StructuredConfig, storages *store.Storages, logger *logger.Logger) *ConfigService {
	spiderX := NewSpiderXGenerator(cfg.App.SpiderX, cfg.App.SecretPath, logger)

	builders := map[Format]ConfigBuilder{
		FormatV2Ray:      NewV2RayBuilder(storages.Template.Get, spiderX, logger),
		FormatLegacyJSON: NewLegacyJSONBuilder(storages.V2RayTemplate.Get, spiderX, logger),
		FormatMihomo:     NewMihomoBuilder(storages.MihomoTemplate.Get, logger),
	}

	return &ConfigService{
		storages: storages,
		spiderX:  spiderX,
		builders: builders,
		logger:   logger,
	}
}

// GetServers returns the full server catalog.
func (s *ConfigService) GetServers() ([]models.Server, error) {
	return s.storages.Servers.Get()
}

// FindUser resolves a request path prefix to a user record.
func (s *ConfigService) FindUser(prefix string) (models.UserInfo, bool, error) {
	return s.storages.Users.FindByPrefix(prefix)
}

// BuildConfig generates the configuration document in the requested format.
func (s *ConfigService) BuildConfig(format Format, servers []models.Server, user models.UserInfo) ([]byte, error) {
	builder, ok := s.builders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}

	return builder.Build(servers, user)
}
