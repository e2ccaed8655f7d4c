package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/api"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// rpcClient is the part of api.SpendKeeperClient used here.
type rpcClient interface {
	SignUp(ctx context.Context, in *api.SignUpRequest, opts ...grpc.CallOption) (*api.AuthResponse, error)
	SignIn(ctx context.Context, in *api.SignInRequest, opts ...grpc.CallOption) (*api.AuthResponse, error)
	Logout(ctx context.Context, in *api.LogoutRequest, opts ...grpc.CallOption) (*api.LogoutResponse, error)
	Refresh(ctx context.Context, in *api.RefreshRequest, opts ...grpc.CallOption) (*api.TokenPair, error)
	CreateTransaction(ctx context.Context, in *api.CreateTransactionRequest, opts ...grpc.CallOption) (*api.CreateTransactionResponse, error)
	ListTransactions(ctx context.Context, in *api.ListTransactionsRequest, opts ...grpc.CallOption) (*api.ListTransactionsResponse, error)
	AttachReceipt(ctx context.Context, in *api.AttachReceiptRequest, opts ...grpc.CallOption) (*api.AttachReceiptResponse, error)
	ListReceipts(ctx context.Context, in *api.ListReceiptsRequest, opts ...grpc.CallOption) (*api.ListReceiptsResponse, error)
}

// refreshable lists the methods retried once after a silent token refresh.
var refreshable = map[string]bool{
	api.MethodCreateTransaction: true,
	api.MethodListTransactions:  true,
	api.MethodAttachReceipt:     true,
	api.MethodListReceipts:      true,
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpcClient
	health      healthpb.HealthClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onChange     func(access, refresh string)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AuthorizationHeaderName)
	if token != "" {
		md.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) Tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) SetTokens(access, refresh string) {
	s.mu.Lock()
	s.accessToken, s.refreshToken = access, refresh
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(access, refresh)
	}
}

// OnTokensChanged registers fn to be called whenever the session tokens
// change, including after a silent refresh.
func (s *GRPCClient) OnTokensChanged(fn func(access, refresh string)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method == api.MethodRefresh || method == api.MethodSignIn || method == api.MethodSignUp {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, refresh := s.Tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil || !refreshable[method] || refresh == "" {
		return err
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrInvalidOrExpiredOrRevoked.Error() {
		return err
	}

	pair, rerr := s.client.Refresh(ctx, &api.RefreshRequest{RefreshToken: refresh})
	if rerr != nil {
		return err
	}
	s.SetTokens(pair.AccessToken, pair.RefreshToken)

	return invoker(withAccessToken(ctx, pair.AccessToken), method, req, reply, cc, opts...)
}

func NewSpendKeeperClientService(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewSpendKeeperClient(conn)
	s.health = healthpb.NewHealthClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.NotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

// Ping asks the server's health service whether spendkeeper is serving.
func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: api.ServiceName})
	if err != nil {
		return s.mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) SignUp(ctx context.Context, name, email string, password []byte, age *int) (*api.User, error) {
	resp, err := s.client.SignUp(ctx, &api.SignUpRequest{Name: name, Email: email, Password: string(password), Age: age})
	if err != nil {
		return nil, s.mapError(err)
	}
	s.SetTokens(resp.AccessToken, resp.RefreshToken)
	return &resp.User, nil
}

func (s *GRPCClient) SignIn(ctx context.Context, email string, password []byte) (*api.User, error) {
	resp, err := s.client.SignIn(ctx, &api.SignInRequest{Email: email, Password: string(password)})
	if err != nil {
		return nil, s.mapError(err)
	}
	s.SetTokens(resp.AccessToken, resp.RefreshToken)
	return &resp.User, nil
}

// Logout revokes the access token on the server. Local tokens are dropped
// even when the server rejects the call, since they are unusable then.
func (s *GRPCClient) Logout(ctx context.Context) error {
	if access, _ := s.Tokens(); access == "" {
		return ErrNotLoggedIn
	}

	_, err := s.client.Logout(ctx, &api.LogoutRequest{})
	if err != nil && status.Code(err) != codes.Unauthenticated {
		return s.mapError(err)
	}
	s.SetTokens("", "")
	return s.mapError(err)
}

// Refresh exchanges the stored refresh token for a new pair.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	_, refresh := s.Tokens()
	if refresh == "" {
		return ErrNotLoggedIn
	}

	pair, err := s.client.Refresh(ctx, &api.RefreshRequest{RefreshToken: refresh})
	if err != nil {
		return s.mapError(err)
	}
	s.SetTokens(pair.AccessToken, pair.RefreshToken)
	return nil
}

func (s *GRPCClient) CreateTransaction(ctx context.Context, t api.Transaction) (*api.Transaction, error) {
	resp, err := s.client.CreateTransaction(ctx, &api.CreateTransactionRequest{Transaction: t})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Transaction, nil
}

func (s *GRPCClient) ListTransactions(ctx context.Context) ([]api.Transaction, error) {
	resp, err := s.client.ListTransactions(ctx, &api.ListTransactionsRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Transactions, nil
}

func (s *GRPCClient) AttachReceipt(ctx context.Context, transactionID, fileName, mimeType string) (*api.AttachReceiptResponse, error) {
	resp, err := s.client.AttachReceipt(ctx, &api.AttachReceiptRequest{
		TransactionID: transactionID,
		FileName:      fileName,
		MimeType:      mimeType,
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ListReceipts(ctx context.Context, transactionID string) ([]api.Receipt, error) {
	resp, err := s.client.ListReceipts(ctx, &api.ListReceiptsRequest{TransactionID: transactionID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Receipts, nil
}
