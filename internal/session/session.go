// Package session keeps per-editor state in memory: the silhouette transform,
// its source, and the labels of the two long-running triggers.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/youruser/birdcard/internal/bgremove"
	"github.com/youruser/birdcard/internal/compositor"
)

// Export trigger labels.
const (
	ExportIdle   = "⬇ Download card"
	ExportActive = "Rendering…"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrBusy is returned while the same trigger is already running.
	ErrBusy = errors.New("operation already in progress")
)

// Session is a snapshot of one editor's state.
type Session struct {
	ID        string               `json:"id"`
	Transform compositor.Transform `json:"transform"`
	Source    compositor.Source    `json:"-"`
	Removal   Trigger              `json:"removal"`
	Export    Trigger              `json:"export"`
	LastError string               `json:"last_error,omitempty"`
	touched   time.Time
}

// Trigger mirrors a button that is disabled while its operation runs.
type Trigger struct {
	Busy  bool   `json:"busy"`
	Label string `json:"label"`
}

// Style is the current layer style.
func (s Session) Style() compositor.Style {
	return compositor.Recompute(s.Transform, s.Source)
}

// Store holds sessions in memory.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{sessions: map[string]*Session{}, ttl: ttl, now: time.Now}
}

// Create starts a session with the default transform and no source.
func (st *Store) Create() Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.expireLocked()

	s := &Session{
		ID:        uuid.NewString(),
		Transform: compositor.Default(),
		Removal:   Trigger{Label: bgremove.LabelIdle},
		Export:    Trigger{Label: ExportIdle},
		touched:   st.now(),
	}
	st.sessions[s.ID] = s
	return *s
}

// Get returns a snapshot of the session.
func (st *Store) Get(id string) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	s.touched = st.now()
	return *s, nil
}

// Update applies fn to the session under the store lock and returns the
// resulting snapshot.
func (st *Store) Update(id string, fn func(*Session)) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	fn(s)
	s.touched = st.now()
	return *s, nil
}

// Transform applies a compositor operation to the session transform.
func (st *Store) Transform(id string, op func(compositor.Transform) compositor.Transform) (Session, error) {
	return st.Update(id, func(s *Session) {
		s.Transform = op(s.Transform)
	})
}

// Begin marks a trigger busy and sets its label. It fails with ErrBusy when
// the trigger is already running.
func (st *Store) Begin(id string, pick func(*Session) *Trigger, label string) (Session, error) {
	var busy bool
	s, err := st.Update(id, func(s *Session) {
		t := pick(s)
		if t.Busy {
			busy = true
			return
		}
		t.Busy = true
		t.Label = label
	})
	if err != nil {
		return s, err
	}
	if busy {
		return s, ErrBusy
	}
	return s, nil
}

// SetLabel changes a trigger label without touching its busy flag.
func (st *Store) SetLabel(id string, pick func(*Session) *Trigger, label string) {
	st.Update(id, func(s *Session) { pick(s).Label = label })
}

// End releases a trigger and restores its idle label.
func (st *Store) End(id string, pick func(*Session) *Trigger, idle string) {
	st.Update(id, func(s *Session) {
		t := pick(s)
		t.Busy = false
		t.Label = idle
	})
}

// RemovalTrigger and ExportTrigger select a trigger for Begin/SetLabel/End.
func RemovalTrigger(s *Session) *Trigger { return &s.Removal }
func ExportTrigger(s *Session) *Trigger  { return &s.Export }

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) expireLocked() {
	if st.ttl <= 0 {
		return
	}
	cutoff := st.now().Add(-st.ttl)
	for id, s := range st.sessions {
		if s.touched.Before(cutoff) && !s.Removal.Busy && !s.Export.Busy {
			delete(st.sessions, id)
		}
	}
}
