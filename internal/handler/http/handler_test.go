package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweep7125/sub-service/internal/config"
	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/internal/service"
	"github.com/sweep7125/sub-service/internal/store"
)

const (
	testSecret = "s3cr3t"
	testUUID   = "4ac5a1b9-cf3b-44bf-a2a9-fd0ce2f0f99f"
)

const testMihomoTemplate = `mode: rule
proxy-template:
  type: vless
proxy-groups:
  - name: auto
    proxies: __PROXY_NAMES__
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newTestRouter assembles a full handler over file fixtures in a temp dir.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.StructuredConfig{
		App: config.App{
			SecretPath:            testSecret,
			ProfileTitle:          "test-profile",
			ProfileUpdateInterval: "12",
			SpiderX: config.SpiderX{
				MinLength:    10,
				MaxLength:    24,
				MaxAttempts:  1000,
				MaxCacheSize: 10000,
			},
		},
		Storage: config.Storage{
			ServersFile:        writeFixture(t, dir, "servers", "s1.example.com|||pbk|Server One\nvip.example.com||||VIP Only|vip\n"),
			UsersFile:          writeFixture(t, dir, "users", testUUID+"|shrt|alice|Alice\n"),
			TemplateFile:       writeFixture(t, dir, "url.txt", "vless://<ID>@<ADDRESS>:443#<NAME>"),
			V2RayTemplateFile:  writeFixture(t, dir, "template.json", `[{"remarks": "base"}]`),
			MihomoTemplateFile: writeFixture(t, dir, "template.yaml", testMihomoTemplate),
			HappRoutingFile:    writeFixture(t, dir, "happ.routing", `{"Name": "test-routing"}`),
			CacheDir:           filepath.Join(dir, "cache"),
		},
		Geo: config.Geo{CacheTTL: 600},
		CustomHeaders: []config.CustomHeader{
			{Name: "X-Always", Value: "yes"},
			{Name: "X-Happ-Only", Value: "ok", UserAgentRegex: regexp.MustCompile(`^Happ/`)},
		},
	}

	log := logger.Nop()
	storages := store.NewStorages(cfg.Storage, log)
	configService := service.NewConfigService(cfg, storages, log)
	geoService := service.NewGeoFileService(cfg.Geo, cfg.Storage.CacheDir, log)

	return NewHandler(configService, geoService, cfg, log).Init()
}

func doRequest(t *testing.T, router http.Handler, path, userAgent string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "127.0.0.1:54321"
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_V2RayFormat(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/"+testSecret+"/alice/v2ray", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "vless://"+testUUID+"@s1.example.com:443#Server%20One", rec.Body.String())
}

func TestHandler_DefaultFormatIsJSON(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/"+testSecret+"/alice", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"remarks": "Server One | base"`)
}

func TestHandler_MihomoFormat(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/"+testSecret+"/alice/clash", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="sub"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "proxies:")
	assert.NotContains(t, rec.Body.String(), "proxy-template:")
}

func TestHandler_UnknownFormatFallsBackToJSON(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/"+testSecret+"/alice/whatever", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestHandler_UnknownUserRedirects(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/"+testSecret+"/nobody/v2ray", "")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHandler_UserPrefixMatch(t *testing.T) {
	router := newTestRouter(t)

	// "alice-2024" resolves to "alice" via longest-prefix matching
	rec := doRequest(t, router, "/"+testSecret+"/alice-2024/v2ray", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_WrongSecretRedirects(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/wrong/alice/v2ray", "")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHandler_RootRedirects(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/", "")

	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestHandler_NonLocalConnectionBlocked(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/"+testSecret+"/alice/v2ray", nil)
	req.RemoteAddr = "203.0.113.7:41000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHandler_UnixSocketConnectionAdmitted(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/"+testSecret+"/alice/v2ray", nil)
	req.RemoteAddr = "@"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ProfileHeaders(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/"+testSecret+"/alice/v2ray", "")

	assert.Equal(t, "12", rec.Header().Get("Profile-Update-Interval"))
	assert.Equal(t, "test-profile", rec.Header().Get("Profile-Title"))
}

func TestHandler_CustomHeaders_UserAgentGated(t *testing.T) {
	router := newTestRouter(t)

	plain := doRequest(t, router, "/"+testSecret+"/alice/v2ray", "curl/8.0")
	assert.Equal(t, "yes", plain.Header().Get("X-Always"))
	assert.Empty(t, plain.Header().Get("X-Happ-Only"))

	happ := doRequest(t, router, "/"+testSecret+"/alice/v2ray", "Happ/1.2.3")
	assert.Equal(t, "yes", happ.Header().Get("X-Always"))
	assert.Equal(t, "ok", happ.Header().Get("X-Happ-Only"))
}

func TestHandler_RoutingHeaderOnlyForHapp(t *testing.T) {
	router := newTestRouter(t)

	plain := doRequest(t, router, "/"+testSecret+"/alice/v2ray", "curl/8.0")
	assert.Empty(t, plain.Header().Get("Routing"))

	happ := doRequest(t, router, "/"+testSecret+"/alice/v2ray", "Happ/1.2.3")
	routing := happ.Header().Get("Routing")
	require.NotEmpty(t, routing)
	assert.Contains(t, routing, "happ://routing/onadd/")
}

func TestHandler_GroupRestrictedServerHidden(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, "/"+testSecret+"/alice/v2ray", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "vip.example.com")
}
