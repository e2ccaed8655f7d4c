package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/spendkeeper/internal/api"
	"github.com/dmitrijs2005/spendkeeper/internal/client/client"
	"github.com/dmitrijs2005/spendkeeper/internal/netx"
)

// uploadToPresignedURL is a seam for tests.
var uploadToPresignedURL = netx.UploadToPresignedURL

// ExpenseService records transactions and their receipt images.
type ExpenseService interface {
	Add(ctx context.Context, t api.Transaction) (*api.Transaction, error)
	List(ctx context.Context) ([]api.Transaction, error)
	AttachReceipt(ctx context.Context, transactionID, path string) (*api.AttachReceiptResponse, error)
	Receipts(ctx context.Context, transactionID string) ([]api.Receipt, error)
}

type expenseService struct {
	client client.Client
	http   *http.Client
}

func NewExpenseService(c client.Client, hc *http.Client) ExpenseService {
	return &expenseService{client: c, http: hc}
}

func (s *expenseService) Add(ctx context.Context, t api.Transaction) (*api.Transaction, error) {
	return s.client.CreateTransaction(ctx, t)
}

func (s *expenseService) List(ctx context.Context) ([]api.Transaction, error) {
	return s.client.ListTransactions(ctx)
}

func (s *expenseService) Receipts(ctx context.Context, transactionID string) ([]api.Receipt, error) {
	return s.client.ListReceipts(ctx, transactionID)
}

// detectContentType guesses from the extension first and falls back to
// sniffing the first 512 bytes. f is rewound afterwards.
func detectContentType(f *os.File) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(f.Name())); ct != "" {
		return ct, nil
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

// AttachReceipt registers the image at path with the server and uploads it
// to the returned presigned URL.
func (s *expenseService) AttachReceipt(ctx context.Context, transactionID, path string) (*api.AttachReceiptResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	contentType, err := detectContentType(f)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.AttachReceipt(ctx, transactionID, filepath.Base(path), contentType)
	if err != nil {
		return nil, err
	}

	if err := uploadToPresignedURL(ctx, s.http, resp.UploadURL, contentType, f, fi.Size()); err != nil {
		return nil, err
	}
	return resp, nil
}
