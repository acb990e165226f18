// Package rpc exposes the analysis pipeline over gRPC. Messages are
// google.protobuf.Struct values shaped like the HTTP JSON bodies.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "indisense.v1.Analyzer"

const (
	methodAnalyzeText  = "/" + ServiceName + "/AnalyzeText"
	methodAnalyzeAudio = "/" + ServiceName + "/AnalyzeAudio"
	methodAnalyzeVideo = "/" + ServiceName + "/AnalyzeVideo"
)

// AnalyzerServer is the server API of indisense.v1.Analyzer.
type AnalyzerServer interface {
	AnalyzeText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AnalyzeAudio(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AnalyzeVideo(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(AnalyzerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AnalyzerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AnalyzerServer), ctx, req.(*structpb.Struct))
		})
	}
}

// ServiceDesc describes indisense.v1.Analyzer for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalyzerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AnalyzeText",
			Handler:    unaryHandler(methodAnalyzeText, AnalyzerServer.AnalyzeText),
		},
		{
			MethodName: "AnalyzeAudio",
			Handler:    unaryHandler(methodAnalyzeAudio, AnalyzerServer.AnalyzeAudio),
		},
		{
			MethodName: "AnalyzeVideo",
			Handler:    unaryHandler(methodAnalyzeVideo, AnalyzerServer.AnalyzeVideo),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "indisense/v1/analyzer.proto",
}

// RegisterAnalyzerServer registers srv on s.
func RegisterAnalyzerServer(s grpc.ServiceRegistrar, srv AnalyzerServer) {
	s.RegisterService(&ServiceDesc, srv)
}
