package grpcx

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The meeting API is expressed with well-known protobuf types only, so the
// service descriptor is declared here instead of generated from a .proto file:
//
//	service MeetingService {
//	  rpc GetState(google.protobuf.Empty) returns (google.protobuf.Struct);
//	  rpc StartSession(google.protobuf.Empty) returns (google.protobuf.Struct);
//	  rpc AdvanceTurn(google.protobuf.Empty) returns (google.protobuf.Struct);
//	  rpc EndSession(google.protobuf.Empty) returns (google.protobuf.Struct);
//	  rpc SubmitTranscript(google.protobuf.StringValue) returns (google.protobuf.Struct);
//	  rpc Subscribe(google.protobuf.Empty) returns (stream google.protobuf.Struct);
//	}
const ServiceName = "meeting.v1.MeetingService"

type MeetingServiceServer interface {
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	StartSession(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	AdvanceTurn(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	EndSession(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SubmitTranscript(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Subscribe(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

var MeetingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MeetingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetState", MeetingServiceServer.GetState),
		unary("StartSession", MeetingServiceServer.StartSession),
		unary("AdvanceTurn", MeetingServiceServer.AdvanceTurn),
		unary("EndSession", MeetingServiceServer.EndSession),
		unary("SubmitTranscript", MeetingServiceServer.SubmitTranscript),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "meeting/v1/meeting.proto",
}

func unary[Req any](name string, call func(MeetingServiceServer, context.Context, *Req) (*structpb.Struct, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MeetingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(MeetingServiceServer), ctx, req.(*Req))
			})
		},
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(MeetingServiceServer).Subscribe(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// Client calls MeetingService over any connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetState(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetState", &emptypb.Empty{}, opts...)
}

func (c *Client) StartSession(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "StartSession", &emptypb.Empty{}, opts...)
}

func (c *Client) AdvanceTurn(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "AdvanceTurn", &emptypb.Empty{}, opts...)
}

func (c *Client) EndSession(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "EndSession", &emptypb.Empty{}, opts...)
}

func (c *Client) SubmitTranscript(ctx context.Context, text string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "SubmitTranscript", wrapperspb.String(text), opts...)
}

func (c *Client) Subscribe(ctx context.Context, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &MeetingServiceDesc.Streams[0], "/"+ServiceName+"/Subscribe", opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
