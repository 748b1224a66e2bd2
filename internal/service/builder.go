package service

import (
	"strings"

	"github.com/sweep7125/sub-service/models"
)

// ConfigBuilder generates a client configuration document for the given
// servers and user. Each output format has exactly one implementation.
type ConfigBuilder interface {
	Build(servers []models.Server, user models.UserInfo) ([]byte, error)
}

// Format selects the output document format.
type Format int

const (
	// FormatLegacyJSON is the default: a JSON array of patched template
	// blocks for older V2Ray-based clients.
	FormatLegacyJSON Format = iota

	// FormatV2Ray is the line-oriented URL subscription format.
	FormatV2Ray

	// FormatMihomo is the Mihomo/Clash Meta YAML format.
	FormatMihomo
)

func (f Format) String() string {
	switch f {
	case FormatV2Ray:
		return "v2ray"
	case FormatMihomo:
		return "mihomo"
	default:
		return "json"
	}
}

// ParseFormat maps a request path segment to a Format. Unknown segments fall
// back to the legacy JSON format.
func ParseFormat(segment string) Format {
	switch strings.ToLower(segment) {
	case "v2ray":
		return FormatV2Ray
	case "clash", "mh", "type3":
		return FormatMihomo
	default:
		return FormatLegacyJSON
	}
}

// percentEncode escapes every byte outside the unreserved set
// [A-Za-z0-9_.~-], matching strict URL quoting (space becomes %20).
func percentEncode(s string) string {
	const upperhex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9',
			c == '_', c == '.', c == '~', c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0x0F])
		}
	}

	return b.String()
}
