package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweep7125/sub-service/internal/config"
	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/internal/store"
	"github.com/sweep7125/sub-service/models"
)

func newTestConfigService(t *testing.T) *ConfigService {
	t.Helper()

	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	cfg := &config.StructuredConfig{
		App: config.App{
			SecretPath: "secret",
			SpiderX: config.SpiderX{
				MinLength:    10,
				MaxLength:    24,
				MaxAttempts:  1000,
				MaxCacheSize: 10000,
			},
		},
		Storage: config.Storage{
			ServersFile:        write("servers", "s1.example.com|||pbk|Server One\n"),
			UsersFile:          write("users", "4ac5a1b9-cf3b-44bf-a2a9-fd0ce2f0f99f|shrt|alice|Alice\n"),
			TemplateFile:       write("url.txt", "vless://<ID>@<ADDRESS>"),
			V2RayTemplateFile:  write("template.json", `[{"remarks": "base"}]`),
			MihomoTemplateFile: write("template.yaml", "mode: rule\nproxy-template:\n  type: vless\n"),
		},
	}

	log := logger.Nop()
	storages := store.NewStorages(cfg.Storage, log)
	return NewConfigService(cfg, storages, log)
}

func TestConfigService_GetServers(t *testing.T) {
	svc := newTestConfigService(t)

	servers, err := svc.GetServers()

	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "s1.example.com", servers[0].Host)
}

func TestConfigService_FindUser(t *testing.T) {
	svc := newTestConfigService(t)

	user, found, err := svc.FindUser("alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Alice", user.Comment)

	_, found, err = svc.FindUser("bob")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestConfigService_BuildConfig_DispatchesByFormat(t *testing.T) {
	svc := newTestConfigService(t)
	servers, err := svc.GetServers()
	require.NoError(t, err)
	user := models.UserInfo{ID: "u1"}

	v2ray, err := svc.BuildConfig(FormatV2Ray, servers, user)
	require.NoError(t, err)
	assert.Equal(t, "vless://u1@s1.example.com", string(v2ray))

	legacy, err := svc.BuildConfig(FormatLegacyJSON, servers, user)
	require.NoError(t, err)
	assert.Contains(t, string(legacy), "Server One | base")

	mihomo, err := svc.BuildConfig(FormatMihomo, servers, user)
	require.NoError(t, err)
	assert.Contains(t, string(mihomo), "proxies:")
}

func TestConfigService_BuildConfig_UnknownFormat(t *testing.T) {
	svc := newTestConfigService(t)

	_, err := svc.BuildConfig(Format(99), nil, models.UserInfo{ID: "u1"})

	assert.ErrorIs(t, err, ErrUnknownFormat)
}
