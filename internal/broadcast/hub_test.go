package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/session"

	"github.com/stretchr/testify/require"
)

func snap(v uint64) session.Snapshot {
	return session.Snapshot{ID: "s", Version: v}
}

func startHub(t *testing.T, cfg Config) *Hub {
	t.Helper()
	h := NewHub(cfg, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func recv(t *testing.T, sub *Subscription) session.Snapshot {
	t.Helper()
	select {
	case s := <-sub.C():
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
		return session.Snapshot{}
	}
}

func TestHub_InitialSnapshotOnSubscribe(t *testing.T) {
	h := startHub(t, Config{})
	sub, err := h.Subscribe(snap(7))
	require.NoError(t, err)
	require.Equal(t, uint64(7), recv(t, sub).Version)
	require.Equal(t, 1, h.Stats().Subscribers)
}

func TestHub_FanOutInOrder(t *testing.T) {
	req := require.New(t)
	h := startHub(t, Config{})

	a, err := h.Subscribe(snap(0))
	req.NoError(err)
	b, err := h.Subscribe(snap(0))
	req.NoError(err)
	recv(t, a)
	recv(t, b)

	for v := uint64(1); v <= 3; v++ {
		h.Publish(snap(v))
	}
	for _, sub := range []*Subscription{a, b} {
		for v := uint64(1); v <= 3; v++ {
			req.Equal(v, recv(t, sub).Version)
		}
	}
}

func TestHub_SkipsStaleVersions(t *testing.T) {
	h := startHub(t, Config{})
	sub, err := h.Subscribe(snap(5))
	require.NoError(t, err)
	recv(t, sub)

	h.Publish(snap(4))
	h.Publish(snap(5))
	h.Publish(snap(6))
	require.Equal(t, uint64(6), recv(t, sub).Version)

	select {
	case s := <-sub.C():
		t.Fatalf("unexpected snapshot %d", s.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SlowSubscriberEvicted(t *testing.T) {
	req := require.New(t)
	h := startHub(t, Config{SendTimeout: 30 * time.Millisecond, Buffer: 1})

	// Given a subscriber that never reads (its buffer holds the initial snapshot)
	slow, err := h.Subscribe(snap(0))
	req.NoError(err)
	// And a live one draining its channel
	live, err := h.Subscribe(snap(0))
	req.NoError(err)
	recv(t, live)

	var (
		mu   sync.Mutex
		seen []uint64
	)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case s := <-live.C():
				mu.Lock()
				seen = append(seen, s.Version)
				mu.Unlock()
				if s.Version == 3 {
					return
				}
			case <-live.Done():
				return
			}
		}
	}()

	// When snapshots are published
	for v := uint64(1); v <= 3; v++ {
		h.Publish(snap(v))
	}

	// Then the slow subscriber is dropped and the live one gets everything
	select {
	case <-slow.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("slow subscriber not evicted")
	}
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("live subscriber starved")
	}
	mu.Lock()
	req.Equal([]uint64{1, 2, 3}, seen)
	mu.Unlock()
	req.Equal(uint64(1), h.Stats().Evicted)
	req.Equal(1, h.Stats().Subscribers)
}

func TestHub_UnsubscribeDuringBroadcast(t *testing.T) {
	h := startHub(t, Config{})
	gone, err := h.Subscribe(snap(0))
	require.NoError(t, err)
	stay, err := h.Subscribe(snap(0))
	require.NoError(t, err)
	recv(t, stay)

	h.Publish(snap(1))
	h.Unsubscribe(gone)
	h.Unsubscribe(gone)
	h.Publish(snap(2))

	require.Equal(t, uint64(1), recv(t, stay).Version)
	require.Equal(t, uint64(2), recv(t, stay).Version)
	<-gone.Done()
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	// no dispatcher running
	h := NewHub(Config{QueueSize: 2}, nil)
	done := make(chan struct{})
	go func() {
		for v := uint64(1); v <= 10; v++ {
			h.Publish(snap(v))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked")
	}
	st := h.Stats()
	require.Equal(t, uint64(10), st.Published)
	require.Equal(t, uint64(8), st.Superseded)

	// the newest snapshots survive
	require.Equal(t, uint64(9), (<-h.queue).Version)
	require.Equal(t, uint64(10), (<-h.queue).Version)
}

func TestHub_Close(t *testing.T) {
	h := NewHub(Config{}, nil)
	sub, err := h.Subscribe(snap(0))
	require.NoError(t, err)

	h.Close()
	h.Close()
	<-sub.Done()

	_, err = h.Subscribe(snap(0))
	require.ErrorIs(t, err, ErrHubClosed)
	h.Publish(snap(1))
	require.Zero(t, h.Stats().Published)
}
