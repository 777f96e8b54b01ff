// Package engine serializes every command against the meeting session.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/rules"
	"github.com/cwrk-planet/meeting-service/internal/session"
	"github.com/cwrk-planet/meeting-service/internal/whiteboard"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Publisher receives every committed snapshot. Publish must not block.
type Publisher interface {
	Publish(snap session.Snapshot)
}

// Journal records committed transitions. Record must not block.
type Journal interface {
	Record(entry Entry)
}

// Entry describes one committed transition.
type Entry struct {
	SessionID string        `json:"session_id"`
	Version   uint64        `json:"version"`
	Command   string        `json:"command"`
	Status    domain.Status `json:"status"`
	Speaker   string        `json:"speaker,omitempty"`
	Emitted   []string      `json:"emitted,omitempty"` // ids of elements created by the transition
	At        time.Time     `json:"at"`
}

type Deps struct {
	Session   *session.Session
	Rules     *rules.Table
	Publisher Publisher
	Journal   Journal
	Logger    *slog.Logger
}

type Engine struct {
	mu   sync.Mutex
	sess *session.Session

	rules   *rules.Table
	pub     Publisher
	journal Journal
	log     *slog.Logger

	now    func() time.Time
	suffix func() string
}

func New(d Deps) *Engine {
	e := &Engine{
		sess:    d.Session,
		rules:   d.Rules,
		pub:     d.Publisher,
		journal: d.Journal,
		log:     d.Logger,
		now:     time.Now,
		suffix:  uuid.NewString,
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e
}

// commit runs fn against a copy of the session and swaps it in only when fn
// succeeds. The snapshot is handed to the publisher before the lock is
// released so subscribers see versions in commit order.
func (e *Engine) commit(ctx context.Context, cmd string, fn func(s *session.Session) ([]domain.Element, error)) (session.Snapshot, []domain.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return session.Snapshot{}, nil, err
	}

	work := e.sess.Clone()
	emitted, err := fn(work)
	if err != nil {
		e.log.Debug("transition rejected", "cmd", cmd, "status", e.sess.Status, "err", err)
		return session.Snapshot{}, nil, fmt.Errorf("%s: %w", cmd, err)
	}
	if !e.sess.Status.Precedes(work.Status) {
		return session.Snapshot{}, nil, fmt.Errorf("%s: %w: %s -> %s", cmd, domain.ErrInvalidTransition, e.sess.Status, work.Status)
	}
	work.Version = e.sess.Version + 1
	e.sess = work

	snap := work.Snapshot()
	if e.pub != nil {
		e.pub.Publish(snap)
	}
	if e.journal != nil {
		e.journal.Record(Entry{
			SessionID: work.ID,
			Version:   work.Version,
			Command:   cmd,
			Status:    work.Status,
			Speaker:   work.CurrentSpeaker,
			Emitted:   lo.Map(emitted, func(el domain.Element, _ int) string { return el.ID }),
			At:        e.now(),
		})
	}
	e.log.Debug("transition committed", "cmd", cmd, "version", work.Version, "status", work.Status)
	return snap, emitted, nil
}

func (e *Engine) State() session.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Snapshot()
}

// Observe calls fn with the current snapshot while holding the session lock,
// so no transition commits between the read and whatever fn registers.
func (e *Engine) Observe(fn func(snap session.Snapshot) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.sess.Snapshot())
}

func (e *Engine) read(fn func(b *whiteboard.Store)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sess.Board)
}

func (e *Engine) Start(ctx context.Context) (session.Snapshot, error) {
	snap, _, err := e.commit(ctx, "start", func(s *session.Session) ([]domain.Element, error) {
		return nil, s.Start(e.now())
	})
	return snap, err
}

func (e *Engine) AdvanceTurn(ctx context.Context) (session.Snapshot, error) {
	snap, _, err := e.commit(ctx, "advance_turn", func(s *session.Session) ([]domain.Element, error) {
		prev := s.CurrentSpeaker
		fellBack, err := s.AdvanceTurn()
		if fellBack {
			e.log.Warn("current speaker not in participant list, turn reset to first participant",
				"session", s.ID, "previous", prev)
		}
		return nil, err
	})
	return snap, err
}

func (e *Engine) End(ctx context.Context) (session.Snapshot, error) {
	snap, _, err := e.commit(ctx, "end", func(s *session.Session) ([]domain.Element, error) {
		return nil, s.End(e.now())
	})
	return snap, err
}

// IngestTranscript attributes text to the current speaker and applies the
// keyword rules. The status check happens under the lock, so an ingest that
// loses a race with End is rejected with domain.ErrSessionEnded.
func (e *Engine) IngestTranscript(ctx context.Context, text string) (session.Snapshot, []domain.Element, error) {
	matched := lo.Map(e.rules.Match(text), func(r rules.Rule, _ int) session.Rule { return r })
	return e.commit(ctx, "ingest_transcript", func(s *session.Session) ([]domain.Element, error) {
		return s.Ingest(text, matched, e.suffix)
	})
}

func (e *Engine) AddNote(ctx context.Context, text string) (session.Snapshot, error) {
	snap, _, err := e.commit(ctx, "add_note", func(s *session.Session) ([]domain.Element, error) {
		return nil, s.AddNote(text)
	})
	return snap, err
}

// AddElement appends el, assigning an id when it has none.
func (e *Engine) AddElement(ctx context.Context, el domain.Element) (domain.Element, session.Snapshot, error) {
	if el.ID == "" {
		el.ID = fmt.Sprintf("%s-%s", el.Kind, e.suffix())
	}
	var added domain.Element
	snap, _, err := e.commit(ctx, "add_element", func(s *session.Session) ([]domain.Element, error) {
		return nil, s.EditBoard(func() (err error) {
			added, err = s.Board.Append(el)
			return err
		})
	})
	return added, snap, err
}

func (e *Engine) UpdateElement(ctx context.Context, id string, patch domain.ElementPatch) (domain.Element, session.Snapshot, error) {
	var updated domain.Element
	snap, _, err := e.commit(ctx, "update_element", func(s *session.Session) ([]domain.Element, error) {
		return nil, s.EditBoard(func() (err error) {
			updated, err = s.Board.Update(id, patch)
			return err
		})
	})
	return updated, snap, err
}

func (e *Engine) RemoveElement(ctx context.Context, id string) (session.Snapshot, error) {
	snap, _, err := e.commit(ctx, "remove_element", func(s *session.Session) ([]domain.Element, error) {
		return nil, s.EditBoard(func() error { return s.Board.Remove(id) })
	})
	return snap, err
}

func (e *Engine) Connect(ctx context.Context, connectorID, targetID string) (session.Snapshot, error) {
	snap, _, err := e.commit(ctx, "connect", func(s *session.Session) ([]domain.Element, error) {
		return nil, s.EditBoard(func() error {
			_, err := s.Board.Connect(connectorID, targetID)
			return err
		})
	})
	return snap, err
}

func (e *Engine) Disconnect(ctx context.Context, connectorID, targetID string) (session.Snapshot, error) {
	snap, _, err := e.commit(ctx, "disconnect", func(s *session.Session) ([]domain.Element, error) {
		return nil, s.EditBoard(func() error {
			removed, err := s.Board.Disconnect(connectorID, targetID)
			if err == nil && !removed {
				return fmt.Errorf("%w: %s is not an endpoint of %s", domain.ErrNotFound, targetID, connectorID)
			}
			return err
		})
	})
	return snap, err
}

func (e *Engine) ClearBoard(ctx context.Context) (session.Snapshot, error) {
	snap, _, err := e.commit(ctx, "clear_board", func(s *session.Session) ([]domain.Element, error) {
		return nil, s.EditBoard(func() error {
			s.Board.Clear()
			return nil
		})
	})
	return snap, err
}

func (e *Engine) ReplaceBoard(ctx context.Context, elements []domain.Element) (session.Snapshot, error) {
	snap, _, err := e.commit(ctx, "replace_board", func(s *session.Session) ([]domain.Element, error) {
		return nil, s.EditBoard(func() error { return s.Board.Replace(elements) })
	})
	return snap, err
}

func (e *Engine) FindElement(id string) (el domain.Element, err error) {
	e.read(func(b *whiteboard.Store) { el, err = b.Find(id) })
	return el, err
}

func (e *Engine) Search(query string) (out []domain.Element) {
	e.read(func(b *whiteboard.Store) { out = b.Search(query) })
	return out
}

func (e *Engine) Stats() (st whiteboard.Stats) {
	e.read(func(b *whiteboard.Store) { st = b.Stats() })
	return st
}
