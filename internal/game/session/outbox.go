package session

import (
	"fmt"
	"sync"

	"github.com/cory-johannsen/realmd/internal/game/protocol"
)

// Outbox routes outbound events to a buffered channel the gateway's writer
// goroutine drains. Pushes never block: a full buffer drops the event and
// returns an error for the caller to log, so one slow client cannot stall
// the game loop.
type Outbox struct {
	uid    string
	events chan protocol.Event
	mu     sync.Mutex
	closed bool
}

// NewOutbox creates an Outbox for the given player UID.
//
// Precondition: uid must be non-empty.
// Postcondition: Returns an Outbox with an open events channel.
func NewOutbox(uid string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		uid:    uid,
		events: make(chan protocol.Event, bufferSize),
	}
}

// UID returns the owning player's unique identifier.
func (o *Outbox) UID() string {
	return o.uid
}

// Push enqueues an event without blocking.
//
// Postcondition: the event is enqueued, or an error is returned when the
// outbox is closed or full. The caller's state is already mutated either
// way; delivery is best-effort.
func (o *Outbox) Push(ev protocol.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.uid)
	}
	select {
	case o.events <- ev:
		return nil
	default:
		return fmt.Errorf("outbox %s buffer full", o.uid)
	}
}

// Events returns the read-only events channel. The gateway's writer
// goroutine reads from it until Close.
func (o *Outbox) Events() <-chan protocol.Event {
	return o.events
}

// Close marks the outbox closed and closes the events channel.
//
// Postcondition: the events channel is closed; further Push calls return an
// error. Safe to call more than once.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.events)
	}
	return nil
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
