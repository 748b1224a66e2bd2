package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sweep7125/sub-service/internal/config"
	"github.com/sweep7125/sub-service/internal/logger"
)

const geoMetaFileName = "geofiles_meta.json"

// geoURLMeta is the per-URL freshness state persisted between checks.
type geoURLMeta struct {
	LastTS int64  `json:"last_ts"`
	ETag   string `json:"etag,omitempty"`
}

// geoMetadata is the on-disk cache document of the geo-file checker.
type geoMetadata struct {
	LastCheck   int64                 `json:"last_check"`
	LastUpdated int64                 `json:"last_updated"`
	URLs        map[string]geoURLMeta `json:"urls,omitempty"`
}

// GeoFileService tracks when the configured geo data files last changed,
// using conditional HTTP requests and a TTL-cached metadata file so that
// request handling almost never touches the network.
type GeoFileService struct {
	client   *resty.Client
	urls     []string
	cacheTTL time.Duration
	cacheDir string
	metaFile string

	mu sync.Mutex

	logger *logger.Logger
}

// NewGeoFileService builds a checker over cfg.URLs with its metadata cache
// under cacheDir.
func NewGeoFileService(cfg config.Geo, cacheDir string, logger *logger.Logger) *GeoFileService {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetHeader("User-Agent", "happ-routing/1.0")

	return &GeoFileService{
		client:   client,
		urls:     cfg.URLs,
		cacheTTL: time.Duration(cfg.CacheTTL) * time.Second,
		cacheDir: cacheDir,
		metaFile: filepath.Join(cacheDir, geoMetaFileName),
		logger:   logger,
	}
}

// LastUpdatedTimestamp returns the Unix timestamp of the most recent geo
// file change, re-checking the URLs only when the cached answer is older
// than the TTL.
func (s *GeoFileService) LastUpdatedTimestamp(ctx context.Context) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	metadata := s.loadMetadata()
	now := time.Now().Unix()

	if now-metadata.LastCheck < int64(s.cacheTTL.Seconds()) && metadata.LastUpdated > 0 {
		return metadata.LastUpdated
	}

	return s.checkUpdates(ctx, metadata, now)
}

// BuildRoutingHeader renders the Happ routing header value: the routing
// template, stamped with the last geo update time, compact-JSON encoded and
// base64 wrapped. Returns "" when encoding fails.
func (s *GeoFileService) BuildRoutingHeader(ctx context.Context, routingTemplate map[string]any) string {
	template := make(map[string]any, len(routingTemplate)+1)
	for key, value := range routingTemplate {
		template[key] = value
	}

	timestamp := s.LastUpdatedTimestamp(ctx)
	if timestamp > 0 {
		template["LastUpdated"] = strconv.FormatInt(timestamp, 10)
	} else {
		template["LastUpdated"] = ""
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(template); err != nil {
		s.logger.Warn().Err(err).Msg("failed to build routing header")
		return ""
	}

	encoded := base64.StdEncoding.EncodeToString(bytes.TrimRight(buf.Bytes(), "\n"))
	return "happ://routing/onadd/" + encoded
}

func (s *GeoFileService) loadMetadata() geoMetadata {
	metadata := geoMetadata{}

	data, err := os.ReadFile(s.metaFile)
	if err != nil {
		return metadata
	}

	if err := json.Unmarshal(data, &metadata); err != nil {
		s.logger.Warn().Err(err).Msg("invalid geo metadata file")
		return geoMetadata{}
	}

	return metadata
}

func (s *GeoFileService) saveMetadata(metadata geoMetadata) {
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		s.logger.Warn().Err(err).Msg("failed to create cache dir")
		return
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode geo metadata")
		return
	}

	tmpFile := s.metaFile + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write geo metadata")
		return
	}

	if err := os.Rename(tmpFile, s.metaFile); err != nil {
		s.logger.Warn().Err(err).Msg("failed to replace geo metadata")
	}
}

// checkUpdates re-validates every URL and persists the refreshed metadata.
func (s *GeoFileService) checkUpdates(ctx context.Context, metadata geoMetadata, now int64) int64 {
	if metadata.URLs == nil {
		metadata.URLs = make(map[string]geoURLMeta)
	}

	maxTimestamp := metadata.LastUpdated

	for _, url := range s.urls {
		urlMeta := metadata.URLs[url]
		timestamp := s.checkURL(ctx, url, &urlMeta, now)
		if timestamp > maxTimestamp {
			maxTimestamp = timestamp
		}

		urlMeta.LastTS = timestamp
		metadata.URLs[url] = urlMeta
	}

	metadata.LastCheck = now
	metadata.LastUpdated = maxTimestamp
	s.saveMetadata(metadata)

	return maxTimestamp
}

// checkURL performs one conditional request. An unchanged resource keeps its
// previous timestamp; a changed ETag moves it to now; request failures fall
// back to whatever was known before.
func (s *GeoFileService) checkURL(ctx context.Context, url string, urlMeta *geoURLMeta, now int64) int64 {
	request := s.client.R().SetContext(ctx)
	if urlMeta.ETag != "" {
		request.SetHeader("If-None-Match", urlMeta.ETag)
	}

	resp, err := request.Get(url)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("failed to check geo url")
		return urlMeta.LastTS
	}

	switch resp.StatusCode() {
	case http.StatusNotModified:
		if urlMeta.LastTS > 0 {
			return urlMeta.LastTS
		}
		return now

	case http.StatusOK:
		etag := resp.Header().Get("ETag")
		if etag != "" && etag != urlMeta.ETag {
			urlMeta.ETag = etag
			return now
		}
		if urlMeta.LastTS > 0 {
			return urlMeta.LastTS
		}
		return now

	default:
		return urlMeta.LastTS
	}
}
