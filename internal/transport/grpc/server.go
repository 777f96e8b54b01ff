package grpcx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/cwrk-planet/meeting-service/internal/broadcast"
	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Server struct {
	meetingSvc *service.MeetingService
	log        *slog.Logger
}

func NewServer(meeting *service.MeetingService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{meetingSvc: meeting, log: log}
}

func Register(grpcServer *grpc.Server, s *Server) {
	grpcServer.RegisterService(&MeetingServiceDesc, s)
}

func (s *Server) GetState(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(s.meetingSvc.State())
}

func (s *Server) StartSession(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.meetingSvc.Start(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(snap)
}

func (s *Server) AdvanceTurn(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.meetingSvc.Next(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(snap)
}

func (s *Server) EndSession(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.meetingSvc.End(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(snap)
}

func (s *Server) SubmitTranscript(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	tr, err := s.meetingSvc.SubmitTranscript(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(tr)
}

// Subscribe streams the current snapshot, then one message per committed
// transition, until the client goes away or the broadcaster drops it.
func (s *Server) Subscribe(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	sub, err := s.meetingSvc.Subscribe()
	if err != nil {
		return toStatus(err)
	}
	defer s.meetingSvc.Unsubscribe(sub)

	ctx := stream.Context()
	for {
		select {
		case snap := <-sub.C():
			msg, err := toStruct(snap)
			if err != nil {
				return err
			}
			if err := stream.Send(msg); err != nil {
				s.log.Debug("grpc subscribe send failed", "subscriber", sub.ID(), "err", err)
				return err
			}
		case <-sub.Done():
			return status.Error(codes.Unavailable, "subscription closed, resubscribe to resync")
		case <-ctx.Done():
			return nil
		}
	}
}

// toStruct converts a JSON-tagged value into a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionEnded),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrDanglingReference):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateID):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrInvalidElement), errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrTranscriptionUnavailable),
		errors.Is(err, domain.ErrSynthesisUnavailable),
		errors.Is(err, broadcast.ErrHubClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
