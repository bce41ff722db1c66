package session

import (
	"sync"
	"time"
)

// State is the per-user working state of the bot: the style they picked, the
// project their generations accumulate into, and whether that project already
// holds a result that a follow-up message may edit.
type State struct {
	UserID    int64
	Username  string
	StyleID   string
	ProjectID string
	HasResult bool

	UpdatedAt time.Time
}

type Store struct {
	mu       sync.Mutex
	sessions map[int64]*State
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*State),
	}
}

// Snapshot returns a copy of the user's state, creating it on first contact.
func (s *Store) Snapshot(userID int64, username string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return *s.getOrCreateLocked(userID, username)
}

func (s *Store) SetStyle(userID int64, username, styleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreateLocked(userID, username)
	st.StyleID = styleID
	st.UpdatedAt = time.Now()
}

// SetProject records the project the user's next edits apply to.
func (s *Store) SetProject(userID int64, username, projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreateLocked(userID, username)
	st.ProjectID = projectID
	st.HasResult = projectID != ""
	st.UpdatedAt = time.Now()
}

// Clear drops the working project but keeps the chosen style.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sessions[userID]; ok {
		st.ProjectID = ""
		st.HasResult = false
		st.UpdatedAt = time.Now()
	}
}

func (s *Store) getOrCreateLocked(userID int64, username string) *State {
	if st, ok := s.sessions[userID]; ok {
		if st.Username == "" && username != "" {
			st.Username = username
		}
		return st
	}

	st := &State{
		UserID:    userID,
		Username:  username,
		UpdatedAt: time.Now(),
	}
	s.sessions[userID] = st
	return st
}
