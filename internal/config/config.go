// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"regexp"
	"time"
)

// StructuredConfig is the top-level configuration container for the
// sub-service application. It aggregates all sub-configurations and is
// populated by merging values from command-line flags, environment variables,
// an optional JSON file, and built-in defaults (in that order of precedence).
//
// Struct tags:
//   - env  — environment variable name for scalar fields (caarlos0/env).
//   - json — field name when the value comes from a JSON config file.
type StructuredConfig struct {
	// App holds application-level settings: the secret URL path, the
	// subscription profile headers, and obfuscation-path generation knobs.
	App App `json:"app"`

	// Storage holds the locations of the flat-file repositories: servers,
	// users, templates, and the cache directory.
	Storage Storage `json:"storage"`

	// Server holds network address and timeout settings for the HTTP server.
	Server Server `json:"server"`

	// Geo holds settings of the geo-file freshness checker.
	Geo Geo `json:"geo"`

	// CustomHeaders lists extra response headers configured through
	// CUSTOM_HEADER_* environment variables. Populated separately from the
	// struct-tag machinery, see parseCustomHeaders.
	CustomHeaders []CustomHeader `json:"-"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged underneath the values
	// already loaded from flags and environment variables.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG" json:"-"`
}

// App holds application-level configuration values.
type App struct {
	// SecretPath is the secret first URL segment guarding every route.
	// Required; there is no default.
	// Env: SECRET_PATH
	SecretPath string `env:"SECRET_PATH" json:"secret_path"`

	// ProfileTitle is the value of the profile-title response header.
	// Env: PROFILE_TITLE
	ProfileTitle string `env:"PROFILE_TITLE" json:"profile_title"`

	// ProfileUpdateInterval is the value of the profile-update-interval
	// response header, in hours, as expected by subscription clients.
	// Env: PROFILE_UPDATE_INTERVAL
	ProfileUpdateInterval string `env:"PROFILE_UPDATE_INTERVAL" json:"profile_update_interval"`

	// LogLevel is the textual zerolog level for the whole process.
	// Env: LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL" json:"log_level"`

	// SpiderX groups the obfuscation-path generation parameters.
	SpiderX SpiderX `json:"spiderx"`
}

// SpiderX holds the obfuscation-path generation parameters.
type SpiderX struct {
	// MinLength is the minimum generated path length (without the slash).
	// Env: SPIDERX_MIN_LENGTH
	MinLength int `env:"SPIDERX_MIN_LENGTH" json:"min_length"`

	// MaxLength is the maximum generated path length.
	// Env: SPIDERX_MAX_LENGTH
	MaxLength int `env:"SPIDERX_MAX_LENGTH" json:"max_length"`

	// MaxAttempts bounds the uniqueness retry loop of a single Generate call.
	// Env: SPIDERX_MAX_ATTEMPTS
	MaxAttempts int `env:"SPIDERX_MAX_ATTEMPTS" json:"max_attempts"`

	// MaxCacheSize is the rolling used-path set ceiling; exceeding it clears
	// the set entirely.
	// Env: SPIDERX_MAX_CACHE_SIZE
	MaxCacheSize int `env:"SPIDERX_MAX_CACHE_SIZE" json:"max_cache_size"`
}

// Storage holds the flat-file repository locations. Relative paths are
// resolved against BaseDir by normalize.
type Storage struct {
	// BaseDir anchors all relative file paths.
	// Env: BASE_DIR
	BaseDir string `env:"BASE_DIR" json:"base_dir"`

	// ServersFile is the pipe-separated servers catalog.
	// Env: SERVERS_FILE
	ServersFile string `env:"SERVERS_FILE" json:"servers_file"`

	// UsersFile is the pipe-separated users catalog.
	// Env: USERS_FILE
	UsersFile string `env:"USERS_FILE" json:"users_file"`

	// TemplateFile is the literal subscription-link URL template.
	// Env: TEMPLATE_FILE
	TemplateFile string `env:"TEMPLATE_FILE" json:"template_file"`

	// V2RayTemplateFile is the JSON template (list of config blocks).
	// Env: V2RAY_TEMPLATE_FILE
	V2RayTemplateFile string `env:"V2RAY_TEMPLATE_FILE" json:"v2ray_template_file"`

	// MihomoTemplateFile is the YAML template (single mapping).
	// Env: MIHOMO_TEMPLATE_FILE
	MihomoTemplateFile string `env:"MIHOMO_TEMPLATE_FILE" json:"mihomo_template_file"`

	// HappRoutingFile is the Happ routing JSON document.
	// Env: HAPP_ROUTING_FILE
	HappRoutingFile string `env:"HAPP_ROUTING_FILE" json:"happ_routing_file"`

	// CacheDir stores the geo-file metadata cache.
	// Env: SUBSTUB_CACHE_DIR
	CacheDir string `env:"SUBSTUB_CACHE_DIR" json:"cache_dir"`
}

// Server holds HTTP server settings. When SocketPath is set the server
// listens on a Unix socket and Address is ignored.
type Server struct {
	// Address is the TCP listen address in host:port form.
	// Env: ADDRESS
	Address string `env:"ADDRESS" json:"address"`

	// SocketPath is the Unix socket path used in production deployments
	// behind a reverse proxy.
	// Env: SOCK
	SocketPath string `env:"SOCK" json:"socket_path"`

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	// Env: SHUTDOWN_TIMEOUT
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" json:"shutdown_timeout"`
}

// Geo holds settings of the geo-file freshness checker.
type Geo struct {
	// URLs lists the geo data files whose freshness is tracked.
	// Env: GEO_FILES_URLS (comma-separated)
	URLs []string `env:"GEO_FILES_URLS" envSeparator:"," json:"urls"`

	// CacheTTL is the metadata cache lifetime in seconds.
	// Env: GEO_CACHE_TTL
	CacheTTL int `env:"GEO_CACHE_TTL" json:"cache_ttl"`
}

// CustomHeader is one extra response header parsed from a CUSTOM_HEADER_*
// environment variable. When UserAgentRegex is non-nil the header is only
// sent to clients whose User-Agent matches it.
type CustomHeader struct {
	Name           string
	Value          string
	UserAgentRegex *regexp.Regexp
}

// defaultConfig returns the built-in defaults. It participates last in the
// merge chain, so every field it sets can be overridden by flags,
// environment, or the JSON file.
func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			ProfileTitle:          "sub-service",
			ProfileUpdateInterval: "12",
			LogLevel:              "info",
			SpiderX: SpiderX{
				MinLength:    10,
				MaxLength:    24,
				MaxAttempts:  1000,
				MaxCacheSize: 10000,
			},
		},
		Storage: Storage{
			BaseDir:            ".",
			ServersFile:        "servers",
			UsersFile:          "users",
			TemplateFile:       "templates/v2ray-url-template.txt",
			V2RayTemplateFile:  "templates/v2ray-template.json",
			MihomoTemplateFile: "templates/mihomo-template.yaml",
			HappRoutingFile:    "happ.routing",
			CacheDir:           "/var/cache/sub-stub",
		},
		Server: Server{
			Address:         "127.0.0.1:5000",
			ShutdownTimeout: 5 * time.Second,
		},
		Geo: Geo{
			URLs: []string{
				"https://raw.githubusercontent.com/sweep7125/rulesets/refs/heads/xray-rulesets/geosite.dat",
				"https://raw.githubusercontent.com/sweep7125/rulesets/refs/heads/xray-rulesets/geoip.dat",
			},
			CacheTTL: 600,
		},
	}
}

// normalize resolves every relative storage path against BaseDir.
// The cache directory is kept as configured: its default is already absolute.
func (c *StructuredConfig) normalize() {
	base := c.Storage.BaseDir
	if base == "" {
		base = "."
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	c.Storage.ServersFile = resolve(c.Storage.ServersFile)
	c.Storage.UsersFile = resolve(c.Storage.UsersFile)
	c.Storage.TemplateFile = resolve(c.Storage.TemplateFile)
	c.Storage.V2RayTemplateFile = resolve(c.Storage.V2RayTemplateFile)
	c.Storage.MihomoTemplateFile = resolve(c.Storage.MihomoTemplateFile)
	c.Storage.HappRoutingFile = resolve(c.Storage.HappRoutingFile)
}

// GetStructuredConfig builds the complete application configuration by
// merging flags, environment variables, the optional JSON file, and defaults,
// then validating the result.
func GetStructuredConfig() (*StructuredConfig, error) {
	cfg, err := newConfigBuilder().
		withFlags().
		withEnv().
		withJSON().
		withDefaults().
		build()
	if err != nil {
		return nil, err
	}

	cfg.CustomHeaders = parseCustomHeadersFromEnv()
	cfg.normalize()
	return cfg, nil
}
