package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/api"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/oklog/ulid/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	userIDKey    ctxKey = "userID"
	requestIDKey ctxKey = "requestID"
	callInfoKey  ctxKey = "callInfo"
)

// callInfo is shared by the interceptor chain. loggingInterceptor creates it
// and authInterceptor records the subject, which is otherwise only visible
// to inner handlers.
type callInfo struct {
	userID string
}

// protectedMethods require a valid bearer token. Sign-up, sign-in, logout,
// refresh and health checks do not.
var protectedMethods = map[string]bool{
	api.MethodCreateTransaction: true,
	api.MethodListTransactions:  true,
	api.MethodAttachReceipt:     true,
	api.MethodListReceipts:      true,
	api.MethodGetReceipt:        true,
	api.MethodDeleteReceipt:     true,
	api.MethodUpdateItem:        true,
	api.MethodDeleteItem:        true,
}

func userIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

func requestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

func metadataValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// loggingInterceptor tags each call with a request id (taken from the
// x-request-id metadata or a new ULID), echoes it in the response header and
// logs the outcome.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	reqID := metadataValue(ctx, common.RequestIDHeaderName)
	if reqID == "" {
		reqID = ulid.Make().String()
	}
	ci := &callInfo{}
	ctx = context.WithValue(ctx, requestIDKey, reqID)
	ctx = context.WithValue(ctx, callInfoKey, ci)
	_ = grpc.SetHeader(ctx, metadata.Pairs(common.RequestIDHeaderName, reqID))

	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start), "request_id", reqID}
	if ci.userID != "" {
		args = append(args, "user_id", ci.userID)
	}
	if code == codes.Internal {
		s.logger.Error(ctx, "request failed", append(args, "error", err)...)
	} else {
		s.logger.Info(ctx, "request", args...)
	}

	return resp, err
}

// authInterceptor authenticates protected methods from the authorization
// metadata and stores the subject in the context.
func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	userID, err := s.services.Authenticator.Authenticate(ctx, metadataValue(ctx, common.AuthorizationHeaderName))
	if err != nil {
		return nil, toStatus(err)
	}
	if ci, ok := ctx.Value(callInfoKey).(*callInfo); ok {
		ci.userID = userID
	}

	return handler(context.WithValue(ctx, userIDKey, userID), req)
}
