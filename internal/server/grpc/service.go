package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	pb "github.com/dmitrijs2005/recviewer/internal/proto"
)

type handlerFunc func(*Server, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, fn handlerFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*Server)
			if interceptor == nil {
				return fn(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: pb.FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes the catalog service. Requests and responses are
// google.protobuf.Struct documents carrying the JSON form of the models.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: pb.ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		unary(pb.MethodPing, (*Server).ping),
		unary(pb.MethodListOrganizations, (*Server).listOrganizations),
		unary(pb.MethodListDevices, (*Server).listDevices),
		unary(pb.MethodListSessions, (*Server).listSessions),
		unary(pb.MethodCalendar, (*Server).calendar),
		unary(pb.MethodGetSession, (*Server).getSession),
		unary(pb.MethodGetMetadata, (*Server).getMetadata),
		unary(pb.MethodUpdateMetadata, (*Server).updateMetadata),
		unary(pb.MethodListNotes, (*Server).listNotes),
		unary(pb.MethodAddNote, (*Server).addNote),
		unary(pb.MethodUpdateNote, (*Server).updateNote),
		unary(pb.MethodDeleteNote, (*Server).deleteNote),
		unary(pb.MethodNotesCounts, (*Server).notesCounts),
		unary(pb.MethodTranscribe, (*Server).transcribe),
		unary(pb.MethodCaptions, (*Server).captions),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "recviewer/v1/catalog",
}

