package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "spendkeeper.v1.SpendKeeper"

// Full method names, as seen by interceptors.
const (
	MethodSignUp            = "/" + ServiceName + "/SignUp"
	MethodSignIn            = "/" + ServiceName + "/SignIn"
	MethodLogout            = "/" + ServiceName + "/Logout"
	MethodRefresh           = "/" + ServiceName + "/Refresh"
	MethodCreateTransaction = "/" + ServiceName + "/CreateTransaction"
	MethodListTransactions  = "/" + ServiceName + "/ListTransactions"
	MethodAttachReceipt     = "/" + ServiceName + "/AttachReceipt"
	MethodListReceipts      = "/" + ServiceName + "/ListReceipts"
	MethodGetReceipt        = "/" + ServiceName + "/GetReceipt"
	MethodDeleteReceipt     = "/" + ServiceName + "/DeleteReceipt"
	MethodUpdateItem        = "/" + ServiceName + "/UpdateItem"
	MethodDeleteItem        = "/" + ServiceName + "/DeleteItem"
)

// SpendKeeperServer is implemented by the server-side handlers.
type SpendKeeperServer interface {
	SignUp(context.Context, *SignUpRequest) (*AuthResponse, error)
	SignIn(context.Context, *SignInRequest) (*AuthResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	Refresh(context.Context, *RefreshRequest) (*TokenPair, error)
	CreateTransaction(context.Context, *CreateTransactionRequest) (*CreateTransactionResponse, error)
	ListTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error)
	AttachReceipt(context.Context, *AttachReceiptRequest) (*AttachReceiptResponse, error)
	ListReceipts(context.Context, *ListReceiptsRequest) (*ListReceiptsResponse, error)
	GetReceipt(context.Context, *GetReceiptRequest) (*GetReceiptResponse, error)
	DeleteReceipt(context.Context, *DeleteReceiptRequest) (*DeleteReceiptResponse, error)
	UpdateItem(context.Context, *UpdateItemRequest) (*UpdateItemResponse, error)
	DeleteItem(context.Context, *DeleteItemRequest) (*DeleteItemResponse, error)
}

func RegisterSpendKeeperServer(s grpc.ServiceRegistrar, srv SpendKeeperServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc.MethodHandler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(SpendKeeperServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SpendKeeperServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SpendKeeperServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the SpendKeeper service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SpendKeeperServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unaryHandler(MethodSignUp, SpendKeeperServer.SignUp)},
		{MethodName: "SignIn", Handler: unaryHandler(MethodSignIn, SpendKeeperServer.SignIn)},
		{MethodName: "Logout", Handler: unaryHandler(MethodLogout, SpendKeeperServer.Logout)},
		{MethodName: "Refresh", Handler: unaryHandler(MethodRefresh, SpendKeeperServer.Refresh)},
		{MethodName: "CreateTransaction", Handler: unaryHandler(MethodCreateTransaction, SpendKeeperServer.CreateTransaction)},
		{MethodName: "ListTransactions", Handler: unaryHandler(MethodListTransactions, SpendKeeperServer.ListTransactions)},
		{MethodName: "AttachReceipt", Handler: unaryHandler(MethodAttachReceipt, SpendKeeperServer.AttachReceipt)},
		{MethodName: "ListReceipts", Handler: unaryHandler(MethodListReceipts, SpendKeeperServer.ListReceipts)},
		{MethodName: "GetReceipt", Handler: unaryHandler(MethodGetReceipt, SpendKeeperServer.GetReceipt)},
		{MethodName: "DeleteReceipt", Handler: unaryHandler(MethodDeleteReceipt, SpendKeeperServer.DeleteReceipt)},
		{MethodName: "UpdateItem", Handler: unaryHandler(MethodUpdateItem, SpendKeeperServer.UpdateItem)},
		{MethodName: "DeleteItem", Handler: unaryHandler(MethodDeleteItem, SpendKeeperServer.DeleteItem)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spendkeeper/v1/spendkeeper.json",
}

// SpendKeeperClient calls the service over a connection. Every call is sent
// with the JSON content-subtype.
type SpendKeeperClient struct {
	cc grpc.ClientConnInterface
}

func NewSpendKeeperClient(cc grpc.ClientConnInterface) *SpendKeeperClient {
	return &SpendKeeperClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SpendKeeperClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodSignUp, in, opts)
}

func (c *SpendKeeperClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodSignIn, in, opts)
}

func (c *SpendKeeperClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	return invoke[LogoutResponse](ctx, c.cc, MethodLogout, in, opts)
}

func (c *SpendKeeperClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*TokenPair, error) {
	return invoke[TokenPair](ctx, c.cc, MethodRefresh, in, opts)
}

func (c *SpendKeeperClient) CreateTransaction(ctx context.Context, in *CreateTransactionRequest, opts ...grpc.CallOption) (*CreateTransactionResponse, error) {
	return invoke[CreateTransactionResponse](ctx, c.cc, MethodCreateTransaction, in, opts)
}

func (c *SpendKeeperClient) ListTransactions(ctx context.Context, in *ListTransactionsRequest, opts ...grpc.CallOption) (*ListTransactionsResponse, error) {
	return invoke[ListTransactionsResponse](ctx, c.cc, MethodListTransactions, in, opts)
}

func (c *SpendKeeperClient) AttachReceipt(ctx context.Context, in *AttachReceiptRequest, opts ...grpc.CallOption) (*AttachReceiptResponse, error) {
	return invoke[AttachReceiptResponse](ctx, c.cc, MethodAttachReceipt, in, opts)
}

func (c *SpendKeeperClient) ListReceipts(ctx context.Context, in *ListReceiptsRequest, opts ...grpc.CallOption) (*ListReceiptsResponse, error) {
	return invoke[ListReceiptsResponse](ctx, c.cc, MethodListReceipts, in, opts)
}

func (c *SpendKeeperClient) GetReceipt(ctx context.Context, in *GetReceiptRequest, opts ...grpc.CallOption) (*GetReceiptResponse, error) {
	return invoke[GetReceiptResponse](ctx, c.cc, MethodGetReceipt, in, opts)
}

func (c *SpendKeeperClient) DeleteReceipt(ctx context.Context, in *DeleteReceiptRequest, opts ...grpc.CallOption) (*DeleteReceiptResponse, error) {
	return invoke[DeleteReceiptResponse](ctx, c.cc, MethodDeleteReceipt, in, opts)
}

func (c *SpendKeeperClient) UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*UpdateItemResponse, error) {
	return invoke[UpdateItemResponse](ctx, c.cc, MethodUpdateItem, in, opts)
}

func (c *SpendKeeperClient) DeleteItem(ctx context.Context, in *DeleteItemRequest, opts ...grpc.CallOption) (*DeleteItemResponse, error) {
	return invoke[DeleteItemResponse](ctx, c.cc, MethodDeleteItem, in, opts)
}
