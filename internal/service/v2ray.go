package service

import (
	"strings"

	"github.com/sweep7125/sub-service/internal/logger"
	"github.com/sweep7125/sub-service/models"
)

// V2RayBuilder produces the line-oriented URL subscription format: one
// complete vless:// or vmess:// URL per eligible server, newline-joined.
type V2RayBuilder struct {
	templateLoader func() (string, error)
	spiderX        *SpiderXGenerator
	logger         *logger.Logger
}

func NewV2RayBuilder(templateLoader func() (string, error), spiderX *SpiderXGenerator, logger *logger.Logger) *V2RayBuilder {
	return &V2RayBuilder{
		templateLoader: templateLoader,
		spiderX:        spiderX,
		logger:         logger,
	}
}

// Build renders one subscription link per eligible server by literal
// placeholder substitution over the URL template. An empty template yields
// empty output without error; zero eligible servers is an error.
func (b *V2RayBuilder) Build(servers []models.Server, user models.UserInfo) ([]byte, error) {
	template, err := b.templateLoader()
	if err != nil {
		return nil, err
	}

	template = strings.TrimSpace(template)
	if template == "" {
		b.logger.Warn().Msg("v2ray url template is empty")
		return []byte{}, nil
	}

	eligible := FilterServersForUser(servers, user)
	if len(eligible) == 0 {
		b.logger.Warn().Str("user", user.LinkPath).Msg("no eligible servers for user")
		return nil, ErrNoAccessibleServers
	}

	links := make([]string, 0, len(eligible))
	usedPaths := make(map[string]struct{})

	for _, server := range eligible {
		spiderX := b.spiderX.buildPath(server, usedPaths)
		links = append(links, buildLink(template, server, user, spiderX))
	}

	return []byte(strings.Join(links, "\n")), nil
}

// buildLink substitutes the named placeholders of one subscription URL.
// Placeholder tokens are disjoint and never produced by other substitutions,
// so the replacement order does not matter.
func buildLink(template string, server models.Server, user models.UserInfo, spiderX string) string {
	id := server.FixedID
	if id == "" {
		id = user.ID
	}

	replacer := strings.NewReplacer(
		"<ID>", id,
		"<ADDRESS>", server.Host,
		"<SPIDERX>", percentEncode(spiderX),
		"<SHORTID>", shortIDFor(server, user),
		"<SERVERNAME>", percentEncode(server.ServerName()),
		"<NAME>", percentEncode(server.Description),
		"<PBK>", server.PublicKey,
	)

	return replacer.Replace(template)
}

// shortIDFor picks the short credential: the server's fixed short ID when
// present, otherwise the user's own (possibly empty).
func shortIDFor(server models.Server, user models.UserInfo) string {
	if server.FixedShortID != "" {
		return server.FixedShortID
	}
	return user.GetShortID("")
}
