package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	user := env.users.add("streamer1", "secret123", false)
	cookie := authCookie(t, env.server, user.ID)

	for _, path := range []string{"/admin/users", "/admin/keys"} {
		rec := env.request(t, http.MethodGet, path, "", cookie)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestAdminListUsers(t *testing.T) {
	env := newTestEnv(t)
	admin := env.users.add("admin", "secret123", true)
	env.users.add("streamer1", "secret123", false)
	cookie := authCookie(t, env.server, admin.ID)

	rec := env.request(t, http.MethodGet, "/admin/users", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Users []map[string]any `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Users, 2)
	for _, u := range resp.Users {
		assert.NotContains(t, u, "password_hash")
	}
}

func TestAdminCreateKeys(t *testing.T) {
	env := newTestEnv(t)
	admin := env.users.add("admin", "secret123", true)
	cookie := authCookie(t, env.server, admin.ID)

	rec := env.request(t, http.MethodPost, "/admin/keys", `{"count":3}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Keys []string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Keys, 3)

	rec = env.request(t, http.MethodGet, "/admin/keys", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Len(t, listing.Keys, 3)
}

func TestAdminCreateKeys_CountBounds(t *testing.T) {
	env := newTestEnv(t)
	admin := env.users.add("admin", "secret123", true)
	cookie := authCookie(t, env.server, admin.ID)

	for _, body := range []string{`{"count":0}`, `{"count":101}`} {
		rec := env.request(t, http.MethodPost, "/admin/keys", body, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}
