package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"indisense/sentiment-gateway/internal/analysis"
	"indisense/sentiment-gateway/models"
)

// Analyzer is the pipeline served over gRPC.
type Analyzer interface {
	AnalyzeText(ctx context.Context, text string) (*models.AnalysisResult, error)
	AnalyzeMedia(ctx context.Context, in analysis.MediaInput) (*models.AnalysisResult, error)
}

// Server implements AnalyzerServer on top of an Analyzer.
type Server struct {
	analyzer Analyzer
	logger   *logrus.Logger
}

var _ AnalyzerServer = (*Server)(nil)

// MaxMessageSize caps request messages at the HTTP surface's default body
// limit. gRPC's own default of 4 MiB is too small for media.
const MaxMessageSize = 50 << 20

// NewServer returns a grpc.Server with the analyzer and health services
// registered, plus the health server so callers can flip its status on
// shutdown. Messages up to MaxMessageSize are accepted unless opts say
// otherwise.
func NewServer(analyzer Analyzer, logger *logrus.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(loggingInterceptor(logger)),
		grpc.MaxRecvMsgSize(MaxMessageSize),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterAnalyzerServer(s, &Server{analyzer: analyzer, logger: logger})

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s, hs
}

func (s *Server) AnalyzeText(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	text, ok := in.GetFields()["text"].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil, toStatus(analysis.MissingText())
	}
	result, err := s.analyzer.AnalyzeText(ctx, text.StringValue)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResult(result, false)
}

func (s *Server) AnalyzeAudio(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.analyzeMedia(ctx, analysis.MediaAudio, in)
}

func (s *Server) AnalyzeVideo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.analyzeMedia(ctx, analysis.MediaVideo, in)
}

func (s *Server) analyzeMedia(ctx context.Context, kind analysis.MediaKind, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	data := fields["audioData"].GetStringValue()
	if data == "" {
		return nil, toStatus(analysis.MissingMedia(kind))
	}
	result, err := s.analyzer.AnalyzeMedia(ctx, analysis.MediaInput{
		Kind:     kind,
		Data:     data,
		MimeType: fields["mimeType"].GetStringValue(),
		FileName: fields["fileName"].GetStringValue(),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResult(result, true)
}

// encodeResult renders the HTTP success envelope as a Struct.
func encodeResult(result *models.AnalysisResult, media bool) (*structpb.Struct, error) {
	body, err := json.Marshal(models.NewAnalysisResponse(result, media))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(body, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

// Code maps an analysis failure kind to a gRPC status code.
func Code(kind analysis.Kind) codes.Code {
	switch kind {
	case analysis.KindInvalidInput:
		return codes.InvalidArgument
	case analysis.KindTranscriptionFailed:
		return codes.FailedPrecondition
	case analysis.KindRateLimited, analysis.KindQuotaExhausted:
		return codes.ResourceExhausted
	case analysis.KindServiceUnavailable:
		return codes.Unavailable
	}
	return codes.Internal
}

func toStatus(err error) error {
	var aerr *analysis.Error
	if errors.As(err, &aerr) {
		return status.Error(Code(aerr.Kind), aerr.Message)
	}
	return status.Error(codes.Internal, "Internal server error")
}

func loggingInterceptor(logger *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		entry := logger.WithFields(logrus.Fields{
			"grpc_method": info.FullMethod,
			"grpc_code":   code.String(),
			"latency_ms":  time.Since(start).Milliseconds(),
		})
		switch code {
		case codes.OK:
			entry.Info("RPC completed successfully")
		case codes.Internal, codes.Unavailable, codes.Unknown:
			entry.WithError(err).Error("RPC completed with server error")
		default:
			entry.Warn("RPC completed with client error")
		}
		return resp, err
	}
}
