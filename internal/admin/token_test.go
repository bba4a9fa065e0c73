package admin

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore(t *testing.T) {
	t.Run("issue then check", func(t *testing.T) {
		ts := newTokenStore(time.Hour)
		token, expires := ts.Issue("alice")
		require.NotEmpty(t, token)
		assert.True(t, expires.After(time.Now()))

		r := httptest.NewRequest("GET", "/stats", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		user, err := ts.Check(r)
		require.NoError(t, err)
		assert.Equal(t, "alice", user)
	})

	t.Run("missing and malformed headers fail", func(t *testing.T) {
		ts := newTokenStore(time.Hour)
		r := httptest.NewRequest("GET", "/stats", nil)
		_, err := ts.Check(r)
		assert.ErrorIs(t, err, errTokenInvalid)

		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		_, err = ts.Check(r)
		assert.ErrorIs(t, err, errTokenInvalid)

		r.Header.Set("Authorization", "Bearer ")
		_, err = ts.Check(r)
		assert.ErrorIs(t, err, errTokenInvalid)
	})

	t.Run("unknown token fails", func(t *testing.T) {
		ts := newTokenStore(time.Hour)
		r := httptest.NewRequest("GET", "/stats", nil)
		r.Header.Set("Authorization", "Bearer not-a-token")
		_, err := ts.Check(r)
		assert.ErrorIs(t, err, errTokenInvalid)
	})

	t.Run("expired token fails and is dropped", func(t *testing.T) {
		ts := newTokenStore(-time.Minute)
		token, _ := ts.Issue("alice")

		r := httptest.NewRequest("GET", "/stats", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		_, err := ts.Check(r)
		assert.ErrorIs(t, err, errTokenInvalid)
		assert.Empty(t, ts.tokens)
	})

	t.Run("revoke drops all of a user's tokens", func(t *testing.T) {
		ts := newTokenStore(time.Hour)
		t1, _ := ts.Issue("alice")
		t2, _ := ts.Issue("alice")
		keep, _ := ts.Issue("bob")

		ts.Revoke("alice")

		for _, tok := range []string{t1, t2} {
			r := httptest.NewRequest("GET", "/stats", nil)
			r.Header.Set("Authorization", "Bearer "+tok)
			_, err := ts.Check(r)
			assert.ErrorIs(t, err, errTokenInvalid)
		}
		r := httptest.NewRequest("GET", "/stats", nil)
		r.Header.Set("Authorization", "Bearer "+keep)
		user, err := ts.Check(r)
		require.NoError(t, err)
		assert.Equal(t, "bob", user)
	})
}
