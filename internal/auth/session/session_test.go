package session

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	svc := New("test-signing-key")

	t.Run("valid bearer token resolves identity and role", func(t *testing.T) {
		token, err := svc.Mint("user-1", RoleAdmin, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/exports", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		sess := svc.Lookup(req)
		require.NotNil(t, sess)
		assert.Equal(t, "user-1", sess.Identity)
		assert.Equal(t, RoleAdmin, sess.Role)
	})

	t.Run("missing header resolves to nil", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/exports", nil)
		assert.Nil(t, svc.Lookup(req))
	})

	t.Run("expired token resolves to nil", func(t *testing.T) {
		token, err := svc.Mint("user-1", RoleAdmin, -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/exports", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		assert.Nil(t, svc.Lookup(req))
	})

	t.Run("token signed with another key resolves to nil", func(t *testing.T) {
		other := New("other-signing-key")
		token, err := other.Mint("user-1", RoleAdmin, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/exports", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		assert.Nil(t, svc.Lookup(req))
	})
}
