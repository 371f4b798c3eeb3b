package server

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/rfp-agent/internal/common"
	"github.com/joseph-ayodele/rfp-agent/internal/ingest"
	"github.com/joseph-ayodele/rfp-agent/internal/textextract"
)

const extractTextMethod = "/rfpagent.v1.DocumentService/ExtractText"

// DocumentServiceServer extracts the text of a document on the server's filesystem.
type DocumentServiceServer interface {
	ExtractText(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// DocumentServiceDesc is registered by hand; the messages are well-known types
// so no generated code is needed.
var DocumentServiceDesc = grpc.ServiceDesc{
	ServiceName: "rfpagent.v1.DocumentService",
	HandlerType: (*DocumentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExtractText", Handler: extractTextHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rfpagent/v1/document.proto",
}

func extractTextHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentServiceServer).ExtractText(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: extractTextMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DocumentServiceServer).ExtractText(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func RegisterDocumentService(s grpc.ServiceRegistrar, srv DocumentServiceServer) {
	s.RegisterService(&DocumentServiceDesc, srv)
}

type Extractor interface {
	ProcessDocument(ctx context.Context, path string) textextract.Result
}

type DocumentService struct {
	extractor Extractor
	roots     []string
	logger    *slog.Logger
}

// NewDocumentService serves documents under the given roots only.
func NewDocumentService(extractor Extractor, roots []string, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{extractor: extractor, roots: roots, logger: logger}
}

func (s *DocumentService) resolve(path string) (string, error) {
	var err error
	for _, root := range s.roots {
		var resolved string
		if resolved, err = ingest.ResolveWithin(root, path); err == nil {
			return resolved, nil
		}
	}
	if err == nil {
		err = errors.New("no document roots configured")
	}
	return "", err
}

// ExtractText reports extraction failures in the response body. Request
// problems and a missing file are gRPC errors.
func (s *DocumentService) ExtractText(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	v := common.NewValidator().Field("path", req.GetValue(), common.Required, common.MaxLength(4096))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	path, err := s.resolve(req.GetValue())
	if err != nil {
		s.logger.Warn("rejected document path", "path", req.GetValue(), "error", err)
		return nil, common.InvalidArgumentErrorf("path %q: %v", req.GetValue(), err)
	}

	res := s.extractor.ProcessDocument(ctx, path)
	if errors.Is(res.Err, common.ErrFileNotFound) {
		return nil, common.NotFoundError(res.Err.Error())
	}
	warnings := make([]interface{}, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, w)
	}
	fields := map[string]interface{}{
		"text":        res.Text,
		"kind":        string(res.Kind),
		"method":      res.Method,
		"pages":       res.Pages,
		"ok":          res.OK(),
		"error":       res.Reason(),
		"warnings":    warnings,
		"duration_ms": res.Duration.Milliseconds(),
	}
	if !res.OK() {
		fields["message"] = res.Err.Error()
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		s.logger.Warn("extract text response encoding failed", "path", path, "error", err)
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

// NewGRPCServer builds the gRPC server with health, reflection and the document service.
func NewGRPCServer(docs DocumentServiceServer) (*grpc.Server, *health.Server) {
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(DocumentServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s)

	RegisterDocumentService(s, docs)
	return s, hs
}
