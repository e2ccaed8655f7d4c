package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/spendkeeper/internal/api"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/dmitrijs2005/spendkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type handler struct {
	s *GRPCServer
}

// toStatus maps service errors to gRPC status codes. Unknown errors become
// Internal without leaking their text.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrMissingHeader),
		errors.Is(err, common.ErrBadScheme),
		errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidOrExpiredOrRevoked),
		errors.Is(err, common.ErrWrongTokenType),
		errors.Is(err, common.ErrMalformedPayload),
		errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrStorageUnavailable):
		return status.Error(codes.Unavailable, common.ErrStorageUnavailable.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}

func toAPIUser(u *models.User) api.User {
	return api.User{ID: u.ID, Name: u.Name, Email: u.Email, Age: u.Age}
}

func toAPIPair(p services.TokenPair) api.TokenPair {
	return api.TokenPair{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, TokenType: p.TokenType}
}

func toAPIAuth(r *services.AuthResult) *api.AuthResponse {
	return &api.AuthResponse{User: toAPIUser(r.User), TokenPair: toAPIPair(r.TokenPair)}
}

func toAPITransaction(t *models.Transaction) api.Transaction {
	out := api.Transaction{
		ID:        t.ID,
		Name:      t.Name,
		Amount:    t.Amount,
		Category:  t.Category,
		CreatedAt: t.CreatedAt,
	}
	for _, it := range t.Items {
		out.Items = append(out.Items, api.TransactionItem{ID: it.ID, Name: it.Name, Amount: it.Amount, Quantity: it.Quantity})
	}
	return out
}

func toAPIReceipt(l *models.ReceiptLink) api.Receipt {
	return api.Receipt{
		ID:        l.Receipt.ID,
		FileName:  l.Receipt.FileName,
		MimeType:  l.Receipt.MimeType,
		URL:       l.URL,
		CreatedAt: l.Receipt.CreatedAt,
	}
}

func fromAPITransaction(t api.Transaction) *models.Transaction {
	out := &models.Transaction{Name: t.Name, Amount: t.Amount, Category: t.Category}
	for _, it := range t.Items {
		out.Items = append(out.Items, &models.TransactionItem{Name: it.Name, Amount: it.Amount, Quantity: it.Quantity})
	}
	return out
}

func (h *handler) SignUp(ctx context.Context, req *api.SignUpRequest) (*api.AuthResponse, error) {
	res, err := h.s.services.Auth.SignUp(ctx, services.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toAPIAuth(res), nil
}

func (h *handler) SignIn(ctx context.Context, req *api.SignInRequest) (*api.AuthResponse, error) {
	res, err := h.s.services.Auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return toAPIAuth(res), nil
}

func (h *handler) Logout(ctx context.Context, _ *api.LogoutRequest) (*api.LogoutResponse, error) {
	if err := h.s.services.Sessions.Logout(ctx, metadataValue(ctx, common.AuthorizationHeaderName)); err != nil {
		return nil, toStatus(err)
	}
	return &api.LogoutResponse{}, nil
}

func (h *handler) Refresh(ctx context.Context, req *api.RefreshRequest) (*api.TokenPair, error) {
	token := req.RefreshToken
	if token == "" {
		var err error
		token, err = services.ParseBearer(metadataValue(ctx, common.AuthorizationHeaderName))
		if err != nil {
			return nil, toStatus(err)
		}
	}

	pair, err := h.s.services.Sessions.Refresh(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}
	res := toAPIPair(*pair)
	return &res, nil
}

func (h *handler) CreateTransaction(ctx context.Context, req *api.CreateTransactionRequest) (*api.CreateTransactionResponse, error) {
	t, err := h.s.services.Transactions.Create(ctx, userIDFromContext(ctx), fromAPITransaction(req.Transaction))
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.CreateTransactionResponse{Transaction: toAPITransaction(t)}, nil
}

func (h *handler) ListTransactions(ctx context.Context, _ *api.ListTransactionsRequest) (*api.ListTransactionsResponse, error) {
	list, err := h.s.services.Transactions.List(ctx, userIDFromContext(ctx))
	if err != nil {
		return nil, toStatus(err)
	}

	res := &api.ListTransactionsResponse{Transactions: make([]api.Transaction, 0, len(list))}
	for _, t := range list {
		res.Transactions = append(res.Transactions, toAPITransaction(t))
	}
	return res, nil
}

func (h *handler) AttachReceipt(ctx context.Context, req *api.AttachReceiptRequest) (*api.AttachReceiptResponse, error) {
	task, err := h.s.services.Receipts.Attach(ctx, userIDFromContext(ctx), req.TransactionID, req.FileName, req.MimeType)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.AttachReceiptResponse{
		ReceiptID:  task.Receipt.ID,
		StorageKey: task.Receipt.StorageKey,
		UploadURL:  task.URL,
	}, nil
}

func (h *handler) ListReceipts(ctx context.Context, req *api.ListReceiptsRequest) (*api.ListReceiptsResponse, error) {
	links, err := h.s.services.Receipts.List(ctx, userIDFromContext(ctx), req.TransactionID)
	if err != nil {
		return nil, toStatus(err)
	}

	res := &api.ListReceiptsResponse{Receipts: make([]api.Receipt, 0, len(links))}
	for _, l := range links {
		res.Receipts = append(res.Receipts, toAPIReceipt(l))
	}
	return res, nil
}

func (h *handler) GetReceipt(ctx context.Context, req *api.GetReceiptRequest) (*api.GetReceiptResponse, error) {
	link, err := h.s.services.Receipts.Get(ctx, userIDFromContext(ctx), req.ReceiptID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.GetReceiptResponse{Receipt: toAPIReceipt(link)}, nil
}

func (h *handler) DeleteReceipt(ctx context.Context, req *api.DeleteReceiptRequest) (*api.DeleteReceiptResponse, error) {
	if err := h.s.services.Receipts.Delete(ctx, userIDFromContext(ctx), req.ReceiptID); err != nil {
		return nil, toStatus(err)
	}
	return &api.DeleteReceiptResponse{}, nil
}

func (h *handler) UpdateItem(ctx context.Context, req *api.UpdateItemRequest) (*api.UpdateItemResponse, error) {
	it, err := h.s.services.Transactions.UpdateItem(ctx, userIDFromContext(ctx), &models.TransactionItem{
		ID:       req.Item.ID,
		Name:     req.Item.Name,
		Amount:   req.Item.Amount,
		Quantity: req.Item.Quantity,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.UpdateItemResponse{Item: api.TransactionItem{ID: it.ID, Name: it.Name, Amount: it.Amount, Quantity: it.Quantity}}, nil
}

func (h *handler) DeleteItem(ctx context.Context, req *api.DeleteItemRequest) (*api.DeleteItemResponse, error) {
	if err := h.s.services.Transactions.DeleteItem(ctx, userIDFromContext(ctx), req.ItemID); err != nil {
		return nil, toStatus(err)
	}
	return &api.DeleteItemResponse{}, nil
}
