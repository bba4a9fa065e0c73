package net

// SessionStore tracks live sessions. Game loop goroutine only — no locks.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (st *SessionStore) Add(s *Session) {
	st.sessions[s.ID] = s
}

func (st *SessionStore) Remove(id uint64) {
	delete(st.sessions, id)
}

func (st *SessionStore) Get(id uint64) *Session {
	return st.sessions[id]
}

// ByUsername returns the session authenticated as the given (already
// folded) username, or nil.
func (st *SessionStore) ByUsername(name string) *Session {
	for _, s := range st.sessions {
		if s.Username == name && s.State().InGame() {
			return s
		}
	}
	return nil
}

func (st *SessionStore) Count() int {
	return len(st.sessions)
}

// Raw exposes the underlying map for tick iteration.
func (st *SessionStore) Raw() map[uint64]*Session {
	return st.sessions
}

func (st *SessionStore) ForEach(fn func(*Session)) {
	for _, s := range st.sessions {
		fn(s)
	}
}
