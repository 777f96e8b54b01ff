package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/engine"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type JournalStats struct {
	Written uint64 `json:"written"`
	Dropped uint64 `json:"dropped"`
	Failed  uint64 `json:"failed"`
}

// Journal writes committed transitions to Postgres in the background.
// It is an audit trail only; the service never reads it back to restore state.
type Journal struct {
	q            querier
	entries      chan engine.Entry
	writeTimeout time.Duration
	log          *slog.Logger

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

func NewJournal(q querier, buffer int, log *slog.Logger) *Journal {
	if buffer <= 0 {
		buffer = 256
	}
	if log == nil {
		log = slog.Default()
	}
	return &Journal{
		q:            q,
		entries:      make(chan engine.Entry, buffer),
		writeTimeout: 3 * time.Second,
		log:          log,
	}
}

func (j *Journal) EnsureSchema(ctx context.Context) error {
	if _, err := j.q.Exec(ctx, queryCreateSchema); err != nil {
		return fmt.Errorf("create journal schema: %w", mapPgError(err))
	}
	return nil
}

// Record queues e for writing. When the buffer is full the entry is dropped.
func (j *Journal) Record(e engine.Entry) {
	select {
	case j.entries <- e:
	default:
		j.dropped.Add(1)
		j.log.Warn("journal buffer full, transition not recorded", "session", e.SessionID, "version", e.Version)
	}
}

// Run drains queued entries until ctx is done, then flushes what is left.
func (j *Journal) Run(ctx context.Context) {
	for {
		select {
		case e := <-j.entries:
			j.write(ctx, e)
		case <-ctx.Done():
			j.flush()
			return
		}
	}
}

func (j *Journal) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), j.writeTimeout)
	defer cancel()
	for {
		select {
		case e := <-j.entries:
			j.write(ctx, e)
		default:
			return
		}
	}
}

func (j *Journal) write(ctx context.Context, e engine.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), j.writeTimeout)
	defer cancel()

	var speaker *string
	if e.Speaker != "" {
		speaker = &e.Speaker
	}
	emitted := e.Emitted
	if emitted == nil {
		emitted = []string{}
	}

	_, err := j.q.Exec(ctx, queryInsertTransition,
		e.SessionID, int64(e.Version), e.Command, string(e.Status), speaker, emitted, e.At)
	if err != nil {
		j.failed.Add(1)
		j.log.Error("journal write failed", "session", e.SessionID, "version", e.Version, "err", mapPgError(err))
		return
	}
	j.written.Add(1)
}

// History returns up to limit transitions of a session, newest first.
func (j *Journal) History(ctx context.Context, sessionID string, limit int) ([]engine.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := j.q.Query(ctx, queryListTransitions, sessionID, limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]engine.Entry, 0, limit)
	for rows.Next() {
		var (
			e       engine.Entry
			version int64
			status  string
		)
		if err := rows.Scan(&e.SessionID, &version, &e.Command, &status, &e.Speaker, &e.Emitted, &e.At); err != nil {
			return nil, err
		}
		e.Version = uint64(version)
		e.Status = domain.Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *Journal) Stats() JournalStats {
	return JournalStats{
		Written: j.written.Load(),
		Dropped: j.dropped.Load(),
		Failed:  j.failed.Load(),
	}
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("postgres %s: %w", pgErr.Code, err)
	}
	return err
}
