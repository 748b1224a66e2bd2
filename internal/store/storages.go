// SPDX-License-Identifier: Apache-2.0

// Package store contains the flat-file repositories feeding the config
// builders: the servers catalog, the users catalog, and the three per-format
// templates. Every repository caches its parsed content by file identity
// (modification time + size) and reloads transparently on change.
package store

import (
	"github.com/sweep7125/sub-service/internal/config"
	"github.com/sweep7125/sub-service/internal/logger"
)

// Storages aggregates all file-backed repositories of the application.
type Storages struct {
	Servers        *ServerRepository
	Users          *UserRepository
	Template       *TextTemplateRepository
	V2RayTemplate  *JSONTemplateRepository
	MihomoTemplate *YAMLTemplateRepository
}

// NewStorages wires the repositories to the file locations from cfg.
func NewStorages(cfg config.Storage, logger *logger.Logger) *Storages {
	return &Storages{
		Servers:        NewServerRepository(cfg.ServersFile, logger),
		Users:          NewUserRepository(cfg.UsersFile, logger),
		Template:       NewTextTemplateRepository(cfg.TemplateFile),
		V2RayTemplate:  NewJSONTemplateRepository(cfg.V2RayTemplateFile, logger),
		MihomoTemplate: NewYAMLTemplateRepository(cfg.MihomoTemplateFile),
	}
}
