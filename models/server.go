package models

// Server represents one entry of the servers catalog. Instances are value
// objects: they are built once per repository load and never mutated
// afterwards.
type Server struct {
	// Host is the address clients connect to. It is also the deduplication
	// key of the catalog.
	Host string

	// Description is a human-readable server name shown in client UIs.
	// Defaults to Host when the catalog leaves it blank.
	Description string

	// Alias is the optional SNI/camouflage hostname. When empty, Host is
	// presented as the server name and Reality settings keep the template SNI.
	Alias string

	// DNSOverride replaces DNS placeholder entries in JSON templates.
	DNSOverride string

	// PublicKey is the Reality public key, if the server uses Reality.
	PublicKey string

	// FixedID overrides the per-user UUID credential when set.
	FixedID string

	// FixedShortID overrides the per-user Reality short ID when set.
	FixedShortID string

	// IsExternal marks servers operated by a third party. External servers
	// never receive generated obfuscation paths.
	IsExternal bool

	// Groups is the set of access tags. A server with no groups is public.
	Groups map[string]struct{}
}

// ServerName returns the name presented to clients for TLS purposes: the
// alias when set, the host otherwise.
func (s Server) ServerName() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Host
}

// IsInGroup reports whether the server carries the given access tag.
func (s Server) IsInGroup(group string) bool {
	_, ok := s.Groups[group]
	return ok
}
