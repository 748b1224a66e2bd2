// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/models"
)

// UserRepository loads user credentials from a pipe-separated flat file.
//
// Line format: uuid|short_id|link_path|comment|groups|mihomo_advanced
// Users are keyed by their link path. Lines with a malformed UUID or a
// missing link path are skipped with a warning.
type UserRepository struct {
	path   string
	cache  *FileCache[map[string]models.UserInfo]
	logger *logger.Logger
}

func NewUserRepository(path string, logger *logger.Logger) *UserRepository {
	return &UserRepository{
		path:   path,
		cache:  NewFileCache[map[string]models.UserInfo](),
		logger: logger,
	}
}

// Get returns all users keyed by link path, cached by file identity.
// A missing file yields an empty map.
func (r *UserRepository) Get() (map[string]models.UserInfo, error) {
	users, ok, err := r.cache.Get(r.path, r.loadFromFile)
	if err != nil {
		return nil, fmt.Errorf("error loading users from %s: %w", r.path, err)
	}
	if !ok {
		return map[string]models.UserInfo{}, nil
	}

	return users, nil
}

// FindByPrefix returns the user whose link path is the longest prefix of the
// supplied request path. The second result is false when no user matches.
func (r *UserRepository) FindByPrefix(prefix string) (models.UserInfo, bool, error) {
	if prefix == "" {
		return models.UserInfo{}, false, nil
	}

	users, err := r.Get()
	if err != nil {
		return models.UserInfo{}, false, err
	}

	bestLen := -1
	var best models.UserInfo
	for key, user := range users {
		if strings.HasPrefix(prefix, key) && len(key) > bestLen {
			bestLen = len(key)
			best = user
		}
	}

	if bestLen < 0 {
		return models.UserInfo{}, false, nil
	}

	return best, true, nil
}

// InvalidateCache forces the next Get to re-read the file.
func (r *UserRepository) InvalidateCache() {
	r.cache.Invalidate(r.path)
}

func (r *UserRepository) loadFromFile(path string) (map[string]models.UserInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	users := make(map[string]models.UserInfo)

	lineNum := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		user, ok := r.parseUserLine(line)
		if !ok {
			r.logger.Warn().Int("line", lineNum).Msg("skipping malformed user line")
			continue
		}

		users[user.LinkPath] = user
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *UserRepository) parseUserLine(line string) (models.UserInfo, bool) {
	parts := strings.SplitN(line, "|", 6)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) < 3 {
		return models.UserInfo{}, false
	}

	field := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	id := field(0)
	linkPath := field(2)
	if id == "" || linkPath == "" {
		return models.UserInfo{}, false
	}

	if _, err := uuid.Parse(id); err != nil {
		r.logger.Warn().Str("link_path", linkPath).Msg("invalid user UUID")
		return models.UserInfo{}, false
	}

	return models.UserInfo{
		ID:             id,
		ShortID:        field(1),
		Comment:        field(3),
		LinkPath:       linkPath,
		Groups:         parseUserGroups(field(4)),
		MihomoAdvanced: field(5),
	}, true
}

// parseUserGroups parses a comma-separated group list. Unlike servers, a
// user without explicit groups falls into the "default" group.
func parseUserGroups(groups string) map[string]struct{} {
	set := ParseGroups(groups)
	if len(set) == 0 {
		set["default"] = struct{}{}
	}

	return set
}
