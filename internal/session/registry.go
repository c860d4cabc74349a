// Package session tracks this client's session membership: the session
// id, the coordinator id, and the id the server assigned to this client.
package session

import (
	"errors"
	"fmt"
)

var ErrMissingKey = errors.New("session payload missing required key")

// State is the membership snapshot. Empty strings mean unset.
type State struct {
	SessionID     string
	CoordinatorID string
	ClientID      string
}

// IsCoordinator is derived, never stored. False while either id is unset.
func (s State) IsCoordinator() bool {
	return s.ClientID != "" && s.CoordinatorID != "" && s.ClientID == s.CoordinatorID
}

// Registry holds the session state and notifies observers on change.
// It is confined to the synchronization controller's goroutine and is
// not safe for concurrent use.
type Registry struct {
	state     State
	observers []func(State)
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) State() State { return r.state }

// Subscribe registers an observer invoked after every state change.
// Observers run synchronously in registration order.
func (r *Registry) Subscribe(fn func(State)) {
	r.observers = append(r.observers, fn)
}

// AssignClientID records the server-assigned id. Calling it again
// overwrites; a reconnect gets a fresh id.
func (r *Registry) AssignClientID(id string) {
	r.state.ClientID = id
	r.notify()
}

// UpdateFromSessionStart records the session and coordinator announced by
// the server. The client id is preserved.
func (r *Registry) UpdateFromSessionStart(sessionID, coordinatorID string) {
	r.state.SessionID = sessionID
	r.state.CoordinatorID = coordinatorID
	r.notify()
}

// UpdateFromJoin applies a sessionStarted payload received as a loose
// dictionary. Both session_id and coordinator_id must be present or the
// whole update fails with a decode error; client_id is optional and the
// existing one is kept when absent.
func (r *Registry) UpdateFromJoin(payload map[string]string) error {
	sessionID, ok := payload["session_id"]
	if !ok {
		return fmt.Errorf("%w: session_id", ErrMissingKey)
	}
	coordinatorID, ok := payload["coordinator_id"]
	if !ok {
		return fmt.Errorf("%w: coordinator_id", ErrMissingKey)
	}
	r.state.SessionID = sessionID
	r.state.CoordinatorID = coordinatorID
	if clientID, ok := payload["client_id"]; ok {
		r.state.ClientID = clientID
	}
	r.notify()
	return nil
}

// Clear resets everything but the client id. Used when the connection to
// the relay drops; the session is gone but the socket identity survives
// until reconnect reassigns it.
func (r *Registry) Clear() {
	r.state.SessionID = ""
	r.state.CoordinatorID = ""
	r.notify()
}

func (r *Registry) notify() {
	for _, fn := range r.observers {
		fn(r.state)
	}
}
