package postgres

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/engine"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeQuerier struct {
	mu    sync.Mutex
	calls []execCall
	err   error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
}

func (f *fakeQuerier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func entry(v uint64) engine.Entry {
	return engine.Entry{SessionID: "s1", Version: v, Command: "advance_turn", Status: domain.StatusActive, Speaker: "2", At: time.Now()}
}

func TestJournal_WritesQueuedEntries(t *testing.T) {
	req := require.New(t)
	q := &fakeQuerier{}
	j := NewJournal(q, 8, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	j.Record(entry(1))
	j.Record(entry(2))
	req.Eventually(func() bool { return q.count() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	q.mu.Lock()
	first := q.calls[0]
	q.mu.Unlock()
	req.Equal(queryInsertTransition, first.sql)
	req.Equal("s1", first.args[0])
	req.Equal(int64(1), first.args[1])
	req.Equal([]string{}, first.args[5])
	req.EqualValues(2, j.Stats().Written)
}

func TestJournal_RecordNeverBlocks(t *testing.T) {
	req := require.New(t)
	j := NewJournal(&fakeQuerier{}, 2, slog.Default())

	// Given nobody drains the buffer
	// When more entries arrive than it holds
	// Then the extra ones are dropped and counted
	for v := uint64(1); v <= 5; v++ {
		j.Record(entry(v))
	}
	req.EqualValues(3, j.Stats().Dropped)
}

func TestJournal_FlushOnShutdown(t *testing.T) {
	req := require.New(t)
	q := &fakeQuerier{}
	j := NewJournal(q, 8, slog.Default())

	j.Record(entry(1))
	j.Record(entry(2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j.Run(ctx)

	req.Equal(2, q.count())
}

func TestJournal_Failures(t *testing.T) {
	req := require.New(t)
	q := &fakeQuerier{err: errors.New("connection refused")}
	j := NewJournal(q, 8, slog.Default())

	j.write(context.Background(), entry(1))
	req.EqualValues(1, j.Stats().Failed)
	req.Error(j.EnsureSchema(context.Background()))

	_, err := j.History(context.Background(), "s1", 10)
	var pgErr *pgconn.PgError
	req.ErrorAs(err, &pgErr)
	req.Equal("42P01", pgErr.Code)
}
