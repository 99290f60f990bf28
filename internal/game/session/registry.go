package session

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/game/protocol"
)

// Registry tracks all active sessions and location occupancy.
// All methods are safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[string]*Session        // uid → session
	locationSets map[string]map[string]bool // locationID → set of UIDs
	logger       *zap.Logger
}

// NewRegistry creates an empty session Registry.
//
// Precondition: logger must not be nil.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		sessions:     make(map[string]*Session),
		locationSets: make(map[string]map[string]bool),
		logger:       logger,
	}
}

// Add registers a session in its location.
//
// Precondition: sess must not be nil and must have UID and LocationID set.
// Postcondition: Returns an error if the UID is already registered.
func (r *Registry) Add(sess *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[sess.UID]; exists {
		return fmt.Errorf("player %q already connected", sess.UID)
	}

	r.sessions[sess.UID] = sess
	loc := sess.Location()
	if r.locationSets[loc] == nil {
		r.locationSets[loc] = make(map[string]bool)
	}
	r.locationSets[loc][sess.UID] = true
	return nil
}

// Remove unregisters a session, cleans up location occupancy, and closes the
// outbox.
//
// Precondition: uid must be non-empty.
// Postcondition: the session is removed from all tracking. Returns an error
// if not found.
func (r *Registry) Remove(uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, exists := r.sessions[uid]
	if !exists {
		return fmt.Errorf("player %q not found", uid)
	}

	loc := sess.Location()
	if ls, ok := r.locationSets[loc]; ok {
		delete(ls, uid)
		if len(ls) == 0 {
			delete(r.locationSets, loc)
		}
	}

	_ = sess.Outbox.Close()
	delete(r.sessions, uid)
	return nil
}

// Get returns the session for the given UID.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (r *Registry) Get(uid string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[uid]
	return sess, ok
}

// GetByName returns the session with the given character name.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (r *Registry) GetByName(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sess := range r.sessions {
		if sess.Name == name {
			return sess, true
		}
	}
	return nil, false
}

// Move relocates a session to a new location.
//
// Precondition: uid and newLocationID must be non-empty.
// Postcondition: Returns the old location ID, or an error if the session is
// not found.
func (r *Registry) Move(uid, newLocationID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, exists := r.sessions[uid]
	if !exists {
		return "", fmt.Errorf("player %q not found", uid)
	}

	oldLocationID := sess.Location()
	if ls, ok := r.locationSets[oldLocationID]; ok {
		delete(ls, uid)
		if len(ls) == 0 {
			delete(r.locationSets, oldLocationID)
		}
	}

	sess.setLocation(newLocationID)
	if r.locationSets[newLocationID] == nil {
		r.locationSets[newLocationID] = make(map[string]bool)
	}
	r.locationSets[newLocationID][uid] = true

	return oldLocationID, nil
}

// SessionsInLocation returns a snapshot of the sessions in the location,
// hidden or not. Hidden sessions still occupy their location; only listings
// exclude them.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (r *Registry) SessionsInLocation(locationID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uids, ok := r.locationSets[locationID]
	if !ok {
		return []*Session{}
	}
	out := make([]*Session, 0, len(uids))
	for uid := range uids {
		if sess, ok := r.sessions[uid]; ok {
			out = append(out, sess)
		}
	}
	return out
}

// VisibleNamesInLocation returns the character names in the location,
// excluding hidden sessions and the given UID.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (r *Registry) VisibleNamesInLocation(locationID, excludeUID string) []string {
	sessions := r.SessionsInLocation(locationID)
	names := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		if sess.UID == excludeUID || sess.IsHidden() {
			continue
		}
		names = append(names, sess.Name)
	}
	return names
}

// AllSessions returns a snapshot of every connected session.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (r *Registry) AllSessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

// Count returns the number of connected sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// BroadcastToLocation pushes an event to every session in the location
// except the excluded UIDs. Sends are best-effort: a full or closed outbox
// is logged and the broadcast continues.
func (r *Registry) BroadcastToLocation(locationID string, ev protocol.Event, exclude ...string) {
	skip := make(map[string]bool, len(exclude))
	for _, uid := range exclude {
		skip[uid] = true
	}
	for _, sess := range r.SessionsInLocation(locationID) {
		if skip[sess.UID] {
			continue
		}
		if err := sess.Outbox.Push(ev); err != nil {
			r.logger.Debug("dropped event",
				zap.String("uid", sess.UID),
				zap.String("event", ev.EventType()),
				zap.Error(err))
		}
	}
}

// BroadcastToAll pushes an event to every connected session, best-effort.
func (r *Registry) BroadcastToAll(ev protocol.Event) {
	for _, sess := range r.AllSessions() {
		if err := sess.Outbox.Push(ev); err != nil {
			r.logger.Debug("dropped event",
				zap.String("uid", sess.UID),
				zap.String("event", ev.EventType()),
				zap.Error(err))
		}
	}
}
