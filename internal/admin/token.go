package admin

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var errTokenInvalid = errors.New("token missing, unknown or expired")

type tokenEntry struct {
	username string
	expires  time.Time
}

// tokenStore issues and validates bearer tokens for the admin API. Unlike
// game state it is touched from HTTP handler goroutines, so it carries its
// own lock.
type tokenStore struct {
	mu       sync.Mutex
	lifetime time.Duration
	tokens   map[string]tokenEntry
}

func newTokenStore(lifetime time.Duration) *tokenStore {
	return &tokenStore{
		lifetime: lifetime,
		tokens:   make(map[string]tokenEntry),
	}
}

// Issue mints a fresh token for an authenticated admin.
func (ts *tokenStore) Issue(username string) (token string, expires time.Time) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	token = uuid.NewString()
	expires = time.Now().Add(ts.lifetime)
	ts.tokens[token] = tokenEntry{username: username, expires: expires}

	// Opportunistic sweep of expired entries.
	now := time.Now()
	for t, e := range ts.tokens {
		if now.After(e.expires) {
			delete(ts.tokens, t)
		}
	}
	return token, expires
}

// Check validates the Authorization header of a request and returns the
// admin username behind the token.
func (ts *tokenStore) Check(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", errTokenInvalid
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	e, ok := ts.tokens[token]
	if !ok {
		return "", errTokenInvalid
	}
	if time.Now().After(e.expires) {
		delete(ts.tokens, token)
		return "", errTokenInvalid
	}
	return e.username, nil
}

// Revoke drops every token for a username, e.g. after a soft delete.
func (ts *tokenStore) Revoke(username string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for t, e := range ts.tokens {
		if e.username == username {
			delete(ts.tokens, t)
		}
	}
}
