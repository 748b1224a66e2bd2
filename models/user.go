package models

// UserInfo represents a user together with their proxy credentials as loaded
// from the users file. Instances are value objects: they are built once per
// repository load and never mutated afterwards.
type UserInfo struct {
	// ID is the user's UUID used as the connection credential.
	ID string

	// ShortID is the optional Reality short ID.
	ShortID string

	// Comment is a human-readable label for the user.
	Comment string

	// LinkPath is the path component identifying the user's subscription
	// link. It is the lookup key of the users file and may contain slashes.
	LinkPath string

	// Groups is the set of access tags. A user with no groups can only
	// reach public servers.
	Groups map[string]struct{}

	// MihomoAdvanced is an optional raw options blob for Mihomo clients.
	MihomoAdvanced string
}

// GetShortID returns the short ID, or def when none is set.
func (u UserInfo) GetShortID(def string) string {
	if u.ShortID != "" {
		return u.ShortID
	}
	return def
}

// IsInGroup reports whether the user carries the given access tag.
func (u UserInfo) IsInGroup(group string) bool {
	_, ok := u.Groups[group]
	return ok
}

// HasAccessToGroups reports whether the user may use a server with the given
// group set. Servers without groups are open to everyone; a user without
// groups cannot reach group-restricted servers; otherwise the two sets must
// intersect.
func (u UserInfo) HasAccessToGroups(serverGroups map[string]struct{}) bool {
	if len(serverGroups) == 0 {
		return true
	}
	if len(u.Groups) == 0 {
		return false
	}
	for group := range u.Groups {
		if _, ok := serverGroups[group]; ok {
			return true
		}
	}
	return false
}
