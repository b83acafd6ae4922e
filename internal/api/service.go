// Package api is the wire contract between the lotkeeper server and its
// clients: a gRPC service whose messages are google.protobuf.Struct values
// carrying the JSON form of the types in this package.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "lotkeeper.AuctionService"

const (
	MethodPing           = "Ping"
	MethodRegisterUser   = "RegisterUser"
	MethodAdminLogin     = "AdminLogin"
	MethodCreateLot      = "CreateLot"
	MethodDeleteLot      = "DeleteLot"
	MethodGetLot         = "GetLot"
	MethodListLots       = "ListLots"
	MethodMyLots         = "MyLots"
	MethodStats          = "Stats"
	MethodPhotoUploadURL = "PhotoUploadURL"
	MethodApprove        = "Approve"
	MethodReject         = "Reject"
	MethodCloseLot       = "CloseLot"
	MethodBeginBid       = "BeginBid"
	MethodPreviewBid     = "PreviewBid"
	MethodConfirmBid     = "ConfirmBid"
	MethodCancelBid      = "CancelBid"
	MethodPendingBid     = "PendingBid"
	MethodPurchase       = "Purchase"
	MethodMarkSold       = "MarkSold"
)

// Methods lists every RPC of the service.
var Methods = []string{
	MethodPing, MethodRegisterUser, MethodAdminLogin,
	MethodCreateLot, MethodDeleteLot, MethodGetLot, MethodListLots, MethodMyLots, MethodStats, MethodPhotoUploadURL,
	MethodApprove, MethodReject, MethodCloseLot,
	MethodBeginBid, MethodPreviewBid, MethodConfirmBid, MethodCancelBid, MethodPendingBid,
	MethodPurchase, MethodMarkSold,
}

// ModeratorMethods require a moderator access token.
var ModeratorMethods = []string{MethodApprove, MethodReject, MethodCloseLot, MethodStats}

// FullMethod is the gRPC path of method, e.g. "/lotkeeper.AuctionService/Ping".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Handler serves one RPC.
type Handler func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// Server resolves RPC names to handlers. A nil handler answers Unimplemented.
type Server interface {
	Handler(method string) Handler
}

func unaryHandler(method string) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		h := srv.(Server).Handler(method)
		if h == nil {
			return nil, status.Errorf(codes.Unimplemented, "method %s not implemented", method)
		}
		if interceptor == nil {
			return h(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return h(ctx, req.(*structpb.Struct))
		})
	}
}

// ServiceDesc describes the service for grpc.Server.RegisterService.
func ServiceDesc() *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*Server)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "lotkeeper/api",
	}
	for _, m := range Methods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{MethodName: m, Handler: unaryHandler(m)})
	}
	return desc
}

func RegisterServer(r grpc.ServiceRegistrar, srv Server) {
	r.RegisterService(ServiceDesc(), srv)
}

// Client invokes the service over a connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call sends req to method and decodes the reply into resp, which may be nil.
func (c *Client) Call(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return Decode(out, resp)
}
