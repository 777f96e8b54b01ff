package grpcx

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/broadcast"
	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/engine"
	"github.com/cwrk-planet/meeting-service/internal/rules"
	"github.com/cwrk-planet/meeting-service/internal/service"
	"github.com/cwrk-planet/meeting-service/internal/session"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	sess, err := session.New(session.Options{Participants: []domain.Participant{
		{ID: "1", Name: "Alice"},
		{ID: "2", Name: "Bob"},
	}})
	require.NoError(t, err)
	table, err := rules.NewTable(rules.Defaults())
	require.NoError(t, err)

	hub := broadcast.NewHub(broadcast.Config{}, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	eng := engine.New(engine.Deps{Session: sess, Rules: table, Publisher: hub})
	meeting := service.NewMeetingService(eng, hub, nil, slog.Default())

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(slog.Default(), time.Second)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor(slog.Default())),
	)
	Register(srv, NewServer(meeting, slog.Default()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestUnaryLifecycle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	c := newClient(t)

	st, err := c.GetState(ctx)
	req.NoError(err)
	req.Equal("not_started", st.Fields["status"].GetStringValue())

	_, err = c.AdvanceTurn(ctx)
	req.Equal(codes.FailedPrecondition, status.Code(err))

	st, err = c.StartSession(ctx)
	req.NoError(err)
	req.Equal("1", st.Fields["current_speaker"].GetStringValue())

	st, err = c.AdvanceTurn(ctx)
	req.NoError(err)
	req.Equal("2", st.Fields["current_speaker"].GetStringValue())

	tr, err := c.SubmitTranscript(ctx, "action item: write the docs")
	req.NoError(err)
	req.Equal("Bob", tr.Fields["speaker"].GetStringValue())
	req.Len(tr.Fields["elements"].GetListValue().GetValues(), 1)

	st, err = c.EndSession(ctx)
	req.NoError(err)
	req.Equal("ended", st.Fields["status"].GetStringValue())

	_, err = c.SubmitTranscript(ctx, "late")
	req.Equal(codes.FailedPrecondition, status.Code(err))
}

func TestSubscribeStream(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := newClient(t)

	stream, err := c.Subscribe(ctx)
	req.NoError(err)

	first, err := stream.Recv()
	req.NoError(err)
	req.EqualValues(0, first.Fields["version"].GetNumberValue())

	_, err = c.StartSession(ctx)
	req.NoError(err)
	_, err = c.AdvanceTurn(ctx)
	req.NoError(err)

	for _, want := range []float64{1, 2} {
		msg, err := stream.Recv()
		req.NoError(err)
		req.Equal(want, msg.Fields["version"].GetNumberValue())
	}
}
