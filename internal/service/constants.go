package service

// dnsPlaceholders are the sentinel strings replaced by a server's DNS
// override inside JSON template dns.servers lists. The misspelled variant is
// kept for backward compatibility with existing templates.
var dnsPlaceholders = map[string]struct{}{
	"DNS_PLACEHOLDER": {},
	"DNS_PLACEHODER":  {},
}

// proxyNamesPlaceholder marks the spot in YAML templates where the full list
// of generated proxy display names is spliced in.
const proxyNamesPlaceholder = "__PROXY_NAMES__"

// spiderXBuildAttempts bounds per-build collision avoidance: how many times a
// builder asks the generator for a path before giving up on a server and
// assigning the empty string.
const spiderXBuildAttempts = 8

// spiderXTokenBytes are the candidate byte counts tried when producing a
// URL-safe token of the requested length.
var spiderXTokenBytes = []int{8, 10, 12, 16, 18}
