package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func groupSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func TestUserInfo_GetShortID(t *testing.T) {
	assert.Equal(t, "abcd", UserInfo{ShortID: "abcd"}.GetShortID("fallback"))
	assert.Equal(t, "fallback", UserInfo{}.GetShortID("fallback"))
	assert.Equal(t, "", UserInfo{}.GetShortID(""))
}

func TestUserInfo_HasAccessToGroups(t *testing.T) {
	tests := []struct {
		name         string
		userGroups   map[string]struct{}
		serverGroups map[string]struct{}
		want         bool
	}{
		{
			name:         "public server is visible to anyone",
			userGroups:   nil,
			serverGroups: nil,
			want:         true,
		},
		{
			name:         "public server is visible to grouped user",
			userGroups:   groupSet("vip"),
			serverGroups: nil,
			want:         true,
		},
		{
			name:         "groupless user never sees a restricted server",
			userGroups:   nil,
			serverGroups: groupSet("vip"),
			want:         false,
		},
		{
			name:         "overlapping groups grant access",
			userGroups:   groupSet("vip", "beta"),
			serverGroups: groupSet("beta", "staff"),
			want:         true,
		},
		{
			name:         "disjoint groups deny access",
			userGroups:   groupSet("vip"),
			serverGroups: groupSet("staff"),
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := UserInfo{ID: "u1", Groups: tt.userGroups}
			assert.Equal(t, tt.want, user.HasAccessToGroups(tt.serverGroups))
		})
	}
}

func TestServer_ServerName(t *testing.T) {
	assert.Equal(t, "host.example.com", Server{Host: "host.example.com"}.ServerName())
	assert.Equal(t, "front.example.com", Server{Host: "host.example.com", Alias: "front.example.com"}.ServerName())
}

func TestServer_IsInGroup(t *testing.T) {
	server := Server{Host: "h", Groups: groupSet("vip")}

	assert.True(t, server.IsInGroup("vip"))
	assert.False(t, server.IsInGroup("staff"))
	assert.False(t, Server{Host: "h"}.IsInGroup("vip"))
}
