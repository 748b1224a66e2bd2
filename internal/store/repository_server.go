// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/models"
)

// ServerRepository loads the servers catalog from a pipe-separated flat file.
//
// Line format: host|sni|dns|public_key|description|groups|type|uuid|short_id
// Blank lines and lines starting with '#' are skipped. Lines with fewer than
// five fields or an empty host are ignored.
type ServerRepository struct {
	path   string
	cache  *FileCache[[]models.Server]
	logger *logger.Logger
}

func NewServerRepository(path string, logger *logger.Logger) *ServerRepository {
	return &ServerRepository{
		path:   path,
		cache:  NewFileCache[[]models.Server](),
		logger: logger,
	}
}

// Get returns every server from the catalog, cached by file identity.
// A missing file yields an empty catalog.
func (r *ServerRepository) Get() ([]models.Server, error) {
	servers, ok, err := r.cache.Get(r.path, r.loadFromFile)
	if err != nil {
		return nil, fmt.Errorf("error loading servers from %s: %w", r.path, err)
	}
	if !ok {
		return []models.Server{}, nil
	}

	return servers, nil
}

// InvalidateCache forces the next Get to re-read the file.
func (r *ServerRepository) InvalidateCache() {
	r.cache.Invalidate(r.path)
}

func (r *ServerRepository) loadFromFile(path string) ([]models.Server, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	servers := make([]models.Server, 0)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		server, ok := parseServerLine(line)
		if !ok {
			r.logger.Warn().Str("line", line).Msg("skipping malformed server line")
			continue
		}

		servers = append(servers, server)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}

// parseServerLine parses one pipe-separated catalog line.
func parseServerLine(line string) (models.Server, bool) {
	parts := strings.SplitN(line, "|", 9)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) < 5 {
		return models.Server{}, false
	}

	field := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	host := field(0)
	if host == "" {
		return models.Server{}, false
	}

	description := field(4)
	if description == "" {
		description = host
	} else {
		description = decodeUnicodeEscapes(description)
	}

	alias := field(1)
	if alias != "" {
		alias = decodeUnicodeEscapes(alias)
	}

	serverType := strings.ToLower(field(6))
	if serverType == "" {
		serverType = "internal"
	}

	return models.Server{
		Host:         host,
		Description:  description,
		Alias:        alias,
		DNSOverride:  field(2),
		PublicKey:    field(3),
		FixedID:      field(7),
		FixedShortID: field(8),
		IsExternal:   serverType == "external",
		Groups:       ParseGroups(field(5)),
	}, true
}

// ParseGroups splits a comma-separated group list into a set.
// Blank input yields an empty set (a public server).
func ParseGroups(groups string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, group := range strings.Split(groups, ",") {
		group = strings.TrimSpace(group)
		if group != "" {
			set[group] = struct{}{}
		}
	}

	return set
}
