package service

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweep7125/sub-service/internal/config"
	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/models"
)

func newTestGenerator(cfg config.SpiderX, secretPath string) *SpiderXGenerator {
	log := logger.Nop()
	return NewSpiderXGenerator(cfg, secretPath, log)
}

func defaultSpiderXConfig() config.SpiderX {
	return config.SpiderX{
		MinLength:    10,
		MaxLength:    24,
		MaxAttempts:  1000,
		MaxCacheSize: 10000,
	}
}

func TestSpiderXGenerator_Generate_ShapeInvariants(t *testing.T) {
	gen := newTestGenerator(defaultSpiderXConfig(), "secret")

	for i := 0; i < 200; i++ {
		path := gen.Generate(0)

		require.True(t, strings.HasPrefix(path, "/"), "path must start with a slash: %q", path)
		assert.GreaterOrEqual(t, len(path), 11, "path too short: %q", path)
		assert.LessOrEqual(t, len(path), 25, "path too long: %q", path)
		assert.Equal(t, strings.ToLower(path), path, "path must be lowercase: %q", path)

		for _, r := range path[1:] {
			assert.Contains(t, "abcdefghijklmnopqrstuvwxyz0123456789-_", string(r), "unexpected character in %q", path)
		}
	}
}

func TestSpiderXGenerator_Generate_MostlyUnique(t *testing.T) {
	gen := newTestGenerator(defaultSpiderXConfig(), "secret")

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		seen[gen.Generate(0)] = struct{}{}
	}

	assert.GreaterOrEqual(t, len(seen), 950, "expected at least 950 distinct paths out of 1000")
}

func TestSpiderXGenerator_Generate_NeverReturnsSecretPath(t *testing.T) {
	// A one-character path space is small enough that every value gets hit,
	// which would include the reserved path if it were not filtered out.
	cfg := config.SpiderX{MinLength: 1, MaxLength: 1, MaxAttempts: 1000, MaxCacheSize: 10000}
	gen := newTestGenerator(cfg, "a")

	for i := 0; i < 500; i++ {
		path := gen.Generate(0)
		assert.NotEqual(t, "/a", path)
		assert.NotEqual(t, "a", path)
	}
}

func TestSpiderXGenerator_Generate_ClearsCacheAboveLimit(t *testing.T) {
	cfg := defaultSpiderXConfig()
	cfg.MaxCacheSize = 5
	gen := newTestGenerator(cfg, "secret")

	for i := 0; i < 50; i++ {
		gen.Generate(0)
	}

	gen.mu.Lock()
	defer gen.mu.Unlock()
	assert.LessOrEqual(t, len(gen.usedPaths), cfg.MaxCacheSize+1, "used-set must stay bounded by the cache limit")
}

func TestSpiderXGenerator_Reset(t *testing.T) {
	gen := newTestGenerator(defaultSpiderXConfig(), "secret")

	gen.Generate(0)
	gen.Generate(0)
	gen.Reset()

	gen.mu.Lock()
	defer gen.mu.Unlock()
	assert.Empty(t, gen.usedPaths)
}

func TestSpiderXGenerator_Generate_Concurrent(t *testing.T) {
	gen := newTestGenerator(defaultSpiderXConfig(), "secret")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				path := gen.Generate(0)
				assert.True(t, strings.HasPrefix(path, "/"))
			}
		}()
	}
	wg.Wait()
}

func TestSpiderXGenerator_BuildPath_ExternalServerGetsNoPath(t *testing.T) {
	gen := newTestGenerator(defaultSpiderXConfig(), "secret")

	path := gen.buildPath(models.Server{Host: "ext.example.com", IsExternal: true}, map[string]struct{}{})

	assert.Equal(t, "", path)
}

func TestSpiderXGenerator_BuildPath_DistinctWithinBuild(t *testing.T) {
	gen := newTestGenerator(defaultSpiderXConfig(), "secret")
	used := make(map[string]struct{})

	first := gen.buildPath(models.Server{Host: "a.example.com"}, used)
	second := gen.buildPath(models.Server{Host: "b.example.com"}, used)

	require.NotEmpty(t, first)
	require.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
}
