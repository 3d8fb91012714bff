package server

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "documentanalyzer.v1.DocumentService"

// DocumentServiceServer is the server API for the document service.
type DocumentServiceServer interface {
	IngestFile(context.Context, *IngestFileRequest) (*IngestResponse, error)
	IngestDirectory(context.Context, *IngestDirectoryRequest) (*IngestDirectoryResponse, error)
	AnalyzeDocument(context.Context, *AnalyzeDocumentRequest) (*AnalyzeDocumentResponse, error)
	EnqueueAnalysis(context.Context, *AnalyzeDocumentRequest) (*EnqueueAnalysisResponse, error)
	GetDocument(context.Context, *DocumentRequest) (*GetDocumentResponse, error)
	ListDocuments(context.Context, *ListDocumentsRequest) (*ListDocumentsResponse, error)
	DeleteDocument(context.Context, *DocumentRequest) (*DeleteDocumentResponse, error)
	CompareDocuments(context.Context, *CompareDocumentsRequest) (*CompareDocumentsResponse, error)
	ExportAnalyses(context.Context, *ExportAnalysesRequest) (*ExportAnalysesResponse, error)
}

// FullMethod returns the gRPC method path for name.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Resp any](name string, call func(DocumentServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DocumentServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DocumentServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// DocumentServiceDesc describes the service for grpc.Server.RegisterService.
var DocumentServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("IngestFile", DocumentServiceServer.IngestFile),
		unary("IngestDirectory", DocumentServiceServer.IngestDirectory),
		unary("AnalyzeDocument", DocumentServiceServer.AnalyzeDocument),
		unary("EnqueueAnalysis", DocumentServiceServer.EnqueueAnalysis),
		unary("GetDocument", DocumentServiceServer.GetDocument),
		unary("ListDocuments", DocumentServiceServer.ListDocuments),
		unary("DeleteDocument", DocumentServiceServer.DeleteDocument),
		unary("CompareDocuments", DocumentServiceServer.CompareDocuments),
		unary("ExportAnalyses", DocumentServiceServer.ExportAnalyses),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "documentanalyzer/v1/document_service",
}

func RegisterDocumentServiceServer(s grpc.ServiceRegistrar, srv DocumentServiceServer) {
	s.RegisterService(&DocumentServiceDesc, srv)
}

// DocumentServiceClient calls the service with the JSON codec.
type DocumentServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewDocumentServiceClient(cc grpc.ClientConnInterface) *DocumentServiceClient {
	return &DocumentServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *DocumentServiceClient, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DocumentServiceClient) IngestFile(ctx context.Context, in *IngestFileRequest, opts ...grpc.CallOption) (*IngestResponse, error) {
	return invoke[IngestResponse](ctx, c, "IngestFile", in, opts)
}

func (c *DocumentServiceClient) IngestDirectory(ctx context.Context, in *IngestDirectoryRequest, opts ...grpc.CallOption) (*IngestDirectoryResponse, error) {
	return invoke[IngestDirectoryResponse](ctx, c, "IngestDirectory", in, opts)
}

func (c *DocumentServiceClient) AnalyzeDocument(ctx context.Context, in *AnalyzeDocumentRequest, opts ...grpc.CallOption) (*AnalyzeDocumentResponse, error) {
	return invoke[AnalyzeDocumentResponse](ctx, c, "AnalyzeDocument", in, opts)
}

func (c *DocumentServiceClient) EnqueueAnalysis(ctx context.Context, in *AnalyzeDocumentRequest, opts ...grpc.CallOption) (*EnqueueAnalysisResponse, error) {
	return invoke[EnqueueAnalysisResponse](ctx, c, "EnqueueAnalysis", in, opts)
}

func (c *DocumentServiceClient) GetDocument(ctx context.Context, in *DocumentRequest, opts ...grpc.CallOption) (*GetDocumentResponse, error) {
	return invoke[GetDocumentResponse](ctx, c, "GetDocument", in, opts)
}

func (c *DocumentServiceClient) ListDocuments(ctx context.Context, in *ListDocumentsRequest, opts ...grpc.CallOption) (*ListDocumentsResponse, error) {
	return invoke[ListDocumentsResponse](ctx, c, "ListDocuments", in, opts)
}

func (c *DocumentServiceClient) DeleteDocument(ctx context.Context, in *DocumentRequest, opts ...grpc.CallOption) (*DeleteDocumentResponse, error) {
	return invoke[DeleteDocumentResponse](ctx, c, "DeleteDocument", in, opts)
}

func (c *DocumentServiceClient) CompareDocuments(ctx context.Context, in *CompareDocumentsRequest, opts ...grpc.CallOption) (*CompareDocumentsResponse, error) {
	return invoke[CompareDocumentsResponse](ctx, c, "CompareDocuments", in, opts)
}

func (c *DocumentServiceClient) ExportAnalyses(ctx context.Context, in *ExportAnalysesRequest, opts ...grpc.CallOption) (*ExportAnalysesResponse, error) {
	return invoke[ExportAnalysesResponse](ctx, c, "ExportAnalyses", in, opts)
}
