// Package broadcast fans committed session snapshots out to live subscribers.
//
// Publish never blocks the caller: snapshots are queued and delivered by a
// dispatcher goroutine (see Run). Each subscriber gets a bounded time to
// accept a snapshot; one that does not is evicted. Snapshots are full state
// and carry the session version, so a subscriber never receives a version
// older than or equal to one it already has.
package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/session"

	"github.com/google/uuid"
)

var ErrHubClosed = errors.New("broadcast hub is closed")

type Config struct {
	SendTimeout time.Duration // per subscriber, per snapshot
	Buffer      int           // subscriber channel capacity
	QueueSize   int           // pending snapshots awaiting dispatch
}

func (c Config) withDefaults() Config {
	if c.SendTimeout <= 0 {
		c.SendTimeout = time.Second
	}
	if c.Buffer <= 0 {
		c.Buffer = 16
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	return c
}

type Stats struct {
	Subscribers int    `json:"subscribers"`
	Published   uint64 `json:"published"`
	Delivered   uint64 `json:"delivered"`
	Superseded  uint64 `json:"superseded"` // dropped from a full queue in favour of a newer snapshot
	Evicted     uint64 `json:"evicted"`
}

type Hub struct {
	cfg Config
	log *slog.Logger

	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool

	queue chan session.Snapshot
	done  chan struct{}

	published  atomic.Uint64
	delivered  atomic.Uint64
	superseded atomic.Uint64
	evicted    atomic.Uint64
}

func NewHub(cfg Config, log *slog.Logger) *Hub {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		cfg:   cfg,
		log:   log,
		subs:  make(map[string]*Subscription),
		queue: make(chan session.Snapshot, cfg.QueueSize),
		done:  make(chan struct{}),
	}
}

// Subscribe registers a new subscriber. initial is queued on its channel
// before the subscriber becomes visible to the dispatcher.
func (h *Hub) Subscribe(initial session.Snapshot) (*Subscription, error) {
	sub := &Subscription{
		id:   uuid.NewString(),
		ch:   make(chan session.Snapshot, h.cfg.Buffer),
		done: make(chan struct{}),
	}
	sub.ch <- initial
	sub.last = initial.Version

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	h.subs[sub.id] = sub
	return sub, nil
}

// Unsubscribe removes sub. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	delete(h.subs, sub.id)
	h.mu.Unlock()
	sub.close()
}

// Publish queues snap for fan-out and returns immediately. If the queue is
// full the oldest pending snapshot is discarded; the newer one supersedes it.
func (h *Hub) Publish(snap session.Snapshot) {
	select {
	case <-h.done:
		return
	default:
	}
	h.published.Add(1)

	for {
		select {
		case h.queue <- snap:
			return
		default:
		}
		select {
		case <-h.queue:
			h.superseded.Add(1)
		default:
		}
	}
}

// Run dispatches queued snapshots until ctx is done or Close is called.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.Close()
			return
		case <-h.done:
			return
		case snap := <-h.queue:
			h.dispatch(snap)
		}
	}
}

func (h *Hub) dispatch(snap session.Snapshot) {
	// copy the set so delivery never holds the registry lock
	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range targets {
		wg.Add(1)
		go func(sub *Subscription) {
			defer wg.Done()
			h.deliver(sub, snap)
		}(sub)
	}
	wg.Wait()
}

func (h *Hub) deliver(sub *Subscription, snap session.Snapshot) {
	sub.sendMu.Lock()
	defer sub.sendMu.Unlock()

	if snap.Version <= sub.last {
		return
	}

	timer := time.NewTimer(h.cfg.SendTimeout)
	defer timer.Stop()

	select {
	case sub.ch <- snap:
		sub.last = snap.Version
		h.delivered.Add(1)
	case <-sub.done:
	case <-timer.C:
		h.evicted.Add(1)
		h.log.Warn("subscriber evicted: send timeout",
			"subscriber", sub.id, "version", snap.Version, "timeout", h.cfg.SendTimeout)
		h.Unsubscribe(sub)
	}
}

// Close stops dispatching and releases every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.done)
	subs := h.subs
	h.subs = make(map[string]*Subscription)
	h.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	n := len(h.subs)
	h.mu.RUnlock()

	return Stats{
		Subscribers: n,
		Published:   h.published.Load(),
		Delivered:   h.delivered.Load(),
		Superseded:  h.superseded.Load(),
		Evicted:     h.evicted.Load(),
	}
}
