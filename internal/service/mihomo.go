package service

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/models"
)

// MihomoBuilder produces Mihomo (Clash Meta) YAML configurations. The
// template is a single mapping whose proxy-template sub-mapping is the
// per-server prototype; other top-level sections may reference the proxy
// name placeholder and get it spliced in.
type MihomoBuilder struct {
	templateLoader func() (any, error)
	logger         *logger.Logger
}

func NewMihomoBuilder(templateLoader func() (any, error), logger *logger.Logger) *MihomoBuilder {
	return &MihomoBuilder{
		templateLoader: templateLoader,
		logger:         logger,
	}
}

// Build renders a single YAML document with keys in insertion order and
// non-ASCII characters emitted literally. A template whose root is not a
// mapping fails with ErrInvalidTemplate; zero eligible servers fails with
// ErrNoAccessibleServers.
func (b *MihomoBuilder) Build(servers []models.Server, user models.UserInfo) ([]byte, error) {
	template, err := b.templateLoader()
	if err != nil {
		return nil, err
	}

	mapping, ok := template.(yaml.MapSlice)
	if !ok {
		b.logger.Error().Msgf("invalid mihomo template type: %T, expected mapping", template)
		return nil, fmt.Errorf("%w: mihomo template must be a mapping", ErrInvalidTemplate)
	}

	config := deepCopyYAML(mapping).(yaml.MapSlice)

	eligible := FilterServersForUser(servers, user)
	if len(eligible) == 0 {
		b.logger.Warn().Str("user", user.LinkPath).Msg("no eligible servers for user")
		return nil, ErrNoAccessibleServers
	}

	proxyNames := make([]string, 0, len(eligible))
	for _, server := range eligible {
		proxyNames = append(proxyNames, server.Description)
	}

	proxyTemplate, _ := yamlGet(config, "proxy-template").(yaml.MapSlice)

	proxies := make([]any, 0, len(eligible))
	for _, server := range eligible {
		proxies = append(proxies, buildProxy(proxyTemplate, server, user))
	}

	config = yamlSet(config, "proxies", proxies)
	config = yamlDelete(config, "proxy-template")

	for _, key := range []string{"proxy-groups", "rule-providers", "rules"} {
		if value := yamlGet(config, key); value != nil {
			config = yamlSet(config, key, substituteProxyNames(value, proxyNames))
		}
	}

	return yaml.Marshal(config)
}

// buildProxy instantiates the proxy prototype for one server.
func buildProxy(template yaml.MapSlice, server models.Server, user models.UserInfo) yaml.MapSlice {
	proxy, _ := deepCopyYAML(template).(yaml.MapSlice)

	uuid := server.FixedID
	if uuid == "" {
		uuid = user.ID
	}

	proxy = yamlSet(proxy, "name", server.Description)
	proxy = yamlSet(proxy, "server", server.Host)
	proxy = yamlSet(proxy, "uuid", uuid)
	proxy = yamlSet(proxy, "servername", server.ServerName())

	if opts, ok := yamlGet(proxy, "reality-opts").(yaml.MapSlice); ok {
		opts = yamlSet(opts, "short-id", shortIDFor(server, user))
		if server.PublicKey != "" {
			opts = yamlSet(opts, "public-key", server.PublicKey)
		}
		proxy = yamlSet(proxy, "reality-opts", opts)
	}

	return proxy
}

// substituteProxyNames recursively replaces every string equal to the proxy
// name placeholder with the full name list. A list element substituting to a
// list is spliced flat instead of nesting. Mapping keys and all other
// scalars pass through unchanged.
func substituteProxyNames(value any, proxyNames []string) any {
	switch v := value.(type) {
	case string:
		if v == proxyNamesPlaceholder {
			names := make([]any, 0, len(proxyNames))
			for _, name := range proxyNames {
				names = append(names, name)
			}
			return names
		}
		return v

	case []any:
		result := make([]any, 0, len(v))
		for _, item := range v {
			substituted := substituteProxyNames(item, proxyNames)
			if list, ok := substituted.([]any); ok {
				result = append(result, list...)
			} else {
				result = append(result, substituted)
			}
		}
		return result

	case yaml.MapSlice:
		result := make(yaml.MapSlice, 0, len(v))
		for _, item := range v {
			result = append(result, yaml.MapItem{
				Key:   item.Key,
				Value: substituteProxyNames(item.Value, proxyNames),
			})
		}
		return result

	default:
		return v
	}
}

// yamlGet returns the value for key in an ordered mapping, or nil.
func yamlGet(mapping yaml.MapSlice, key string) any {
	for _, item := range mapping {
		if k, ok := item.Key.(string); ok && k == key {
			return item.Value
		}
	}
	return nil
}

// yamlSet updates key in place when present, otherwise appends it, keeping
// insertion order stable.
func yamlSet(mapping yaml.MapSlice, key string, value any) yaml.MapSlice {
	for i, item := range mapping {
		if k, ok := item.Key.(string); ok && k == key {
			mapping[i].Value = value
			return mapping
		}
	}
	return append(mapping, yaml.MapItem{Key: key, Value: value})
}

// yamlDelete removes key from an ordered mapping.
func yamlDelete(mapping yaml.MapSlice, key string) yaml.MapSlice {
	result := make(yaml.MapSlice, 0, len(mapping))
	for _, item := range mapping {
		if k, ok := item.Key.(string); ok && k == key {
			continue
		}
		result = append(result, item)
	}
	return result
}

// deepCopyYAML clones a decoded YAML value (ordered mappings, sequences,
// scalars). The loaded template is shared across concurrent builds and must
// never be mutated in place.
func deepCopyYAML(value any) any {
	switch v := value.(type) {
	case yaml.MapSlice:
		out := make(yaml.MapSlice, len(v))
		for i, item := range v {
			out[i] = yaml.MapItem{Key: item.Key, Value: deepCopyYAML(item.Value)}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = deepCopyYAML(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = deepCopyYAML(item)
		}
		return out
	default:
		return v
	}
}
