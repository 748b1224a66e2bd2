package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweep7125/sub-service/models"
)

func groups(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func TestFilterServersForUser_PublicServersVisibleToEveryone(t *testing.T) {
	servers := []models.Server{
		{Host: "a.example.com", Description: "A"},
		{Host: "b.example.com", Description: "B", Groups: groups("vip")},
	}
	user := models.UserInfo{ID: "u1"}

	got := FilterServersForUser(servers, user)

	require.Len(t, got, 1)
	assert.Equal(t, "a.example.com", got[0].Host)
}

func TestFilterServersForUser_GroupIntersection(t *testing.T) {
	servers := []models.Server{
		{Host: "a.example.com", Groups: groups("vip", "beta")},
		{Host: "b.example.com", Groups: groups("staff")},
	}
	user := models.UserInfo{ID: "u1", Groups: groups("beta")}

	got := FilterServersForUser(servers, user)

	require.Len(t, got, 1)
	assert.Equal(t, "a.example.com", got[0].Host)
}

func TestFilterServersForUser_RestrictedServerHiddenFromGrouplessUser(t *testing.T) {
	servers := []models.Server{
		{Host: "a.example.com", Groups: groups("vip")},
	}
	user := models.UserInfo{ID: "u1"}

	got := FilterServersForUser(servers, user)

	assert.Empty(t, got)
}

func TestFilterServersForUser_DeduplicatesByHostFirstSeenWins(t *testing.T) {
	servers := []models.Server{
		{Host: "a.example.com", Description: "first"},
		{Host: "b.example.com", Description: "B"},
		{Host: "a.example.com", Description: "second"},
	}
	user := models.UserInfo{ID: "u1"}

	got := FilterServersForUser(servers, user)

	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Description)
	assert.Equal(t, "b.example.com", got[1].Host)
}

func TestFilterServersForUser_PreservesEncounterOrder(t *testing.T) {
	servers := []models.Server{
		{Host: "c.example.com"},
		{Host: "a.example.com"},
		{Host: "b.example.com"},
	}
	user := models.UserInfo{ID: "u1"}

	got := FilterServersForUser(servers, user)

	require.Len(t, got, 3)
	assert.Equal(t, "c.example.com", got[0].Host)
	assert.Equal(t, "a.example.com", got[1].Host)
	assert.Equal(t, "b.example.com", got[2].Host)
}

func TestFilterServersForUser_Idempotent(t *testing.T) {
	servers := []models.Server{
		{Host: "a.example.com"},
		{Host: "b.example.com", Groups: groups("vip")},
		{Host: "a.example.com"},
	}
	user := models.UserInfo{ID: "u1", Groups: groups("vip")}

	once := FilterServersForUser(servers, user)
	twice := FilterServersForUser(once, user)

	assert.Equal(t, once, twice)
}

func TestUserGroupsSummary(t *testing.T) {
	assert.Equal(t, "default", UserGroupsSummary(models.UserInfo{}))
	assert.Equal(t, "beta, vip", UserGroupsSummary(models.UserInfo{Groups: groups("vip", "beta")}))
}

func TestServerGroupsSummary(t *testing.T) {
	assert.Equal(t, "all", ServerGroupsSummary(models.Server{}))
	assert.Equal(t, "staff", ServerGroupsSummary(models.Server{Groups: groups("staff")}))
}
