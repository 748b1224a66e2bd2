package service

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/models"
)

// LegacyJSONBuilder produces the JSON configuration format for older
// V2Ray-based clients: a JSON array holding one deep-copied, patched template
// block per (template block, eligible server) pair.
type LegacyJSONBuilder struct {
	templateLoader func() ([]map[string]any, error)
	spiderX        *SpiderXGenerator
	logger         *logger.Logger
}

func NewLegacyJSONBuilder(templateLoader func() ([]map[string]any, error), spiderX *SpiderXGenerator, logger *logger.Logger) *LegacyJSONBuilder {
	return &LegacyJSONBuilder{
		templateLoader: templateLoader,
		spiderX:        spiderX,
		logger:         logger,
	}
}

// Build renders the JSON array with 2-space indentation, HTML escaping off,
// and non-ASCII characters emitted literally. The loaded template blocks are
// never mutated; every patch works on a deep copy.
func (b *LegacyJSONBuilder) Build(servers []models.Server, user models.UserInfo) ([]byte, error) {
	blocks, err := b.templateLoader()
	if err != nil {
		return nil, err
	}

	eligible := FilterServersForUser(servers, user)
	if len(eligible) == 0 {
		b.logger.Warn().Str("user", user.LinkPath).Msg("no eligible servers for user")
		return nil, ErrNoAccessibleServers
	}

	configurations := make([]map[string]any, 0, len(blocks)*len(eligible))
	usedPaths := make(map[string]struct{})

	for _, server := range eligible {
		spiderX := b.spiderX.buildPath(server, usedPaths)

		// one config block per template block per server
		for _, block := range blocks {
			configurations = append(configurations, patchConfigBlock(block, server, user, spiderX))
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(configurations); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// patchConfigBlock deep-copies one template block and applies the per-server
// patches. Malformed nested shapes skip the corresponding patch step and
// leave the template content as found.
func patchConfigBlock(template map[string]any, server models.Server, user models.UserInfo, spiderX string) map[string]any {
	config := deepCopyJSON(template).(map[string]any)

	remarks, _ := config["remarks"].(string)
	config["remarks"] = server.Description + " | " + remarks

	applyDNSOverride(config, server.DNSOverride)

	if outbounds, ok := config["outbounds"].([]any); ok {
		for _, item := range outbounds {
			if outbound, ok := item.(map[string]any); ok {
				patchOutbound(outbound, server, user, spiderX)
			}
		}
	}

	return config
}

// applyDNSOverride replaces DNS placeholder sentinels inside dns.servers
// with the server's DNS override, leaving every other entry untouched.
func applyDNSOverride(config map[string]any, dnsOverride string) {
	if dnsOverride == "" {
		return
	}

	dns, ok := config["dns"].(map[string]any)
	if !ok {
		return
	}

	servers, ok := dns["servers"].([]any)
	if !ok {
		return
	}

	for i, entry := range servers {
		if s, ok := entry.(string); ok {
			if _, placeholder := dnsPlaceholders[s]; placeholder {
				servers[i] = dnsOverride
			}
		}
	}
}

func patchOutbound(outbound map[string]any, server models.Server, user models.UserInfo, spiderX string) {
	if settings, ok := outbound["settings"].(map[string]any); ok {
		if vnextList, ok := settings["vnext"].([]any); ok {
			for _, item := range vnextList {
				if vnext, ok := item.(map[string]any); ok {
					patchVnext(vnext, server, user)
				}
			}
		}
	}

	if streamSettings, ok := outbound["streamSettings"].(map[string]any); ok {
		patchRealitySettings(streamSettings, server, user, spiderX)
	}
}

// patchVnext rewrites user credentials and fills in the server address when
// the template leaves it empty or as the literal "null".
func patchVnext(vnext map[string]any, server models.Server, user models.UserInfo) {
	if users, ok := vnext["users"].([]any); ok {
		for _, item := range users {
			if userConfig, ok := item.(map[string]any); ok {
				if server.FixedID != "" {
					userConfig["id"] = server.FixedID
				} else {
					userConfig["id"] = user.ID
				}
			}
		}
	}

	address, _ := vnext["address"].(string)
	if address == "" || strings.EqualFold(address, "null") {
		vnext["address"] = server.Host
	}
}

// patchRealitySettings fills in the Reality tuple: SNI, short ID, spiderX
// path, and public key. External servers always get an empty spiderX.
func patchRealitySettings(streamSettings map[string]any, server models.Server, user models.UserInfo, spiderX string) {
	security, _ := streamSettings["security"].(string)
	if !strings.EqualFold(security, "reality") {
		return
	}

	realitySettings, ok := streamSettings["realitySettings"].(map[string]any)
	if !ok {
		return
	}

	if server.Alias != "" {
		realitySettings["serverName"] = server.Alias
	}

	if server.FixedShortID != "" {
		realitySettings["shortId"] = server.FixedShortID
	} else {
		realitySettings["shortId"] = user.GetShortID("")
	}

	if server.IsExternal {
		realitySettings["spiderX"] = ""
	} else {
		realitySettings["spiderX"] = spiderX
	}

	if server.PublicKey != "" {
		realitySettings["password"] = server.PublicKey
	}
}

// deepCopyJSON clones a JSON-shaped value (maps, slices, scalars). Template
// blocks are shared across concurrent builds and must never be mutated in
// place.
func deepCopyJSON(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = deepCopyJSON(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = deepCopyJSON(item)
		}
		return out
	default:
		return v
	}
}
