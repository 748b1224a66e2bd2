package service

import (
	"sort"
	"strings"

	"github.com/sweep7125/sub-service/models"
)

// FilterServersForUser returns the servers the user may see: one entry per
// distinct host (first occurrence wins), in input encounter order, keeping
// exactly the servers whose group set is empty or intersects the user's.
//
// The function is deterministic and side-effect free; filtering an already
// filtered list again yields the same list.
func FilterServersForUser(servers []models.Server, user models.UserInfo) []models.Server {
	seen := make(map[string]struct{}, len(servers))
	accessible := make([]models.Server, 0, len(servers))

	for _, server := range servers {
		if !user.HasAccessToGroups(server.Groups) {
			continue
		}
		if _, dup := seen[server.Host]; dup {
			continue
		}

		seen[server.Host] = struct{}{}
		accessible = append(accessible, server)
	}

	return accessible
}

// UserGroupsSummary renders a user's groups for log lines; a user without
// groups is reported as "default".
func UserGroupsSummary(user models.UserInfo) string {
	if len(user.Groups) == 0 {
		return "default"
	}
	return groupsSummary(user.Groups)
}

// ServerGroupsSummary renders a server's groups for log lines; a server
// without groups is open to everyone and reported as "all".
func ServerGroupsSummary(server models.Server) string {
	if len(server.Groups) == 0 {
		return "all"
	}
	return groupsSummary(server.Groups)
}

func groupsSummary(groups map[string]struct{}) string {
	names := make([]string, 0, len(groups))
	for group := range groups {
		names = append(names, group)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}
