package broadcast

import (
	"sync"

	"github.com/cwrk-planet/meeting-service/internal/session"
)

// Subscription is one live receiver. Its channel is never closed; Done
// is closed once the subscriber has been removed from the hub.
type Subscription struct {
	id string
	ch chan session.Snapshot

	sendMu sync.Mutex
	last   uint64 // highest version handed to ch

	once sync.Once
	done chan struct{}
}

func (s *Subscription) ID() string { return s.id }

func (s *Subscription) C() <-chan session.Snapshot { return s.ch }

func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) close() {
	s.once.Do(func() { close(s.done) })
}
