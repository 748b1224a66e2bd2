package service

import (
	crand "crypto/rand"
	"encoding/base64"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/sweep7125/sub-service/internal/config"
	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/models"
)

// SpiderXGenerator produces random URL path segments used as the Reality
// spiderX obfuscation parameter. Generated paths never collide with the
// service's own secret path (bare or slash-prefixed) and are tracked in a
// rolling used-set for soft uniqueness across builds.
//
// The generator is safe for concurrent use: the used-set check-and-clear and
// the insert-on-success run under a single lock acquisition.
type SpiderXGenerator struct {
	mu        sync.Mutex
	usedPaths map[string]struct{}

	reserved     map[string]struct{}
	minLength    int
	maxLength    int
	maxAttempts  int
	maxCacheSize int

	logger *logger.Logger
}

// NewSpiderXGenerator builds a generator with the given length/attempt knobs
// and a reserved set derived from secretPath.
func NewSpiderXGenerator(cfg config.SpiderX, secretPath string, logger *logger.Logger) *SpiderXGenerator {
	return &SpiderXGenerator{
		usedPaths: make(map[string]struct{}),
		reserved: map[string]struct{}{
			secretPath:       {},
			"/" + secretPath: {},
		},
		minLength:    cfg.MinLength,
		maxLength:    cfg.MaxLength,
		maxAttempts:  cfg.MaxAttempts,
		maxCacheSize: cfg.MaxCacheSize,
		logger:       logger,
	}
}

// Generate returns a new path starting with '/'. Up to maxAttempts candidates
// are tried against the reserved set and the rolling used-set; when every
// attempt collides, one final unchecked candidate is returned (uniqueness is
// a soft guarantee, not a hard one). maxAttempts <= 0 selects the configured
// default.
func (g *SpiderXGenerator) Generate(maxAttempts int) string {
	if maxAttempts <= 0 {
		maxAttempts = g.maxAttempts
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Bound memory: favor availability over long-horizon uniqueness.
	if len(g.usedPaths) > g.maxCacheSize {
		g.logger.Warn().Int("max_cache_size", g.maxCacheSize).Msg("spiderx cache size exceeded, clearing cache")
		g.usedPaths = make(map[string]struct{})
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		path := g.generateCandidate()

		if _, reserved := g.reserved[path]; reserved {
			continue
		}
		if _, used := g.usedPaths[path]; used {
			continue
		}

		g.usedPaths[path] = struct{}{}
		return path
	}

	g.logger.Warn().Int("max_attempts", maxAttempts).Msg("failed to generate unique spiderx path, returning non-unique path")
	return g.generateCandidate()
}

// Reset clears the rolling used-set.
func (g *SpiderXGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.usedPaths = make(map[string]struct{})
}

// generateCandidate produces one random URL-safe path of a random target
// length in [minLength, maxLength].
func (g *SpiderXGenerator) generateCandidate() string {
	target := g.minLength + rand.IntN(g.maxLength-g.minLength+1)

	var token string
	for _, byteCount := range spiderXTokenBytes {
		cleaned := randomURLSafeToken(byteCount)
		if len(cleaned) >= target {
			token = cleaned[:target]
			break
		}
	}
	if token == "" {
		token = randomURLSafeToken(16)
	}

	return "/" + strings.ToLower(token)
}

// randomURLSafeToken returns an unpadded base64url encoding of byteCount
// cryptographically random bytes, with dot separators normalized away.
func randomURLSafeToken(byteCount int) string {
	buf := make([]byte, byteCount)
	crand.Read(buf)

	return strings.ReplaceAll(base64.RawURLEncoding.EncodeToString(buf), ".", "_")
}

// buildPath assigns an obfuscation path to server within a single build call.
// External servers never receive a path. Collisions are checked against the
// build-scoped used set; after spiderXBuildAttempts colliding attempts the
// server silently gets the empty string instead of failing the build.
func (g *SpiderXGenerator) buildPath(server models.Server, used map[string]struct{}) string {
	if server.IsExternal {
		return ""
	}

	for attempt := 0; attempt < spiderXBuildAttempts; attempt++ {
		path := g.Generate(0)
		if _, dup := used[path]; !dup {
			used[path] = struct{}{}
			return path
		}
	}

	return ""
}
