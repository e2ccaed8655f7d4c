package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	sc "github.com/dmitrijs2005/spendkeeper/internal/server/config"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 15 * time.Minute

// Column widths of the receipts table.
const (
	maxFileName     = 255
	maxMimeTypeName = 100
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}

	timeNow = time.Now
)

// ReceiptService attaches receipt images to transactions. Images go straight
// from the client to S3 through presigned URLs; only metadata is stored here.
type ReceiptService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
}

func NewReceiptService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, logger logging.Logger) *ReceiptService {
	return &ReceiptService{db: db, repomanager: m, config: cfg, logger: logger}
}

// NewStorageKey returns a unique object key under the user's prefix.
func NewStorageKey(userID string) string {
	d := timeNow()
	return fmt.Sprintf("receipts/%s/%d/%02d/%02d/%v", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ReceiptService) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *ReceiptService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	client, err := s.getS3Client(ctx)
	if err != nil {
		return nil, err
	}
	return newS3PresignClient(client), nil
}

func (s *ReceiptService) presignedPutURL(ctx context.Context, key, contentType string) (string, error) {
	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *ReceiptService) presignedGetURL(ctx context.Context, key string) (string, error) {
	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func isImage(mimeType string) bool {
	mt, _, err := mime.ParseMediaType(mimeType)
	return err == nil && strings.HasPrefix(mt, "image/")
}

// checkOwner returns common.ErrorNotFound when the transaction does not belong to userID.
func (s *ReceiptService) checkOwner(ctx context.Context, userID, transactionID string) error {
	if !isID(transactionID) {
		return common.ErrorNotFound
	}
	_, err := s.repomanager.Transactions(s.db).GetByID(ctx, userID, transactionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.StorageError(err)
	}
	return nil
}

// Attach records a receipt for the transaction and returns a presigned PUT
// URL the client uploads the image to.
func (s *ReceiptService) Attach(ctx context.Context, userID, transactionID, fileName, mimeType string) (*models.ReceiptUploadTask, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("%w: file name is required", common.ErrValidation)
	}
	if utf8.RuneCountInString(fileName) > maxFileName {
		return nil, fmt.Errorf("%w: file name must be at most %d characters", common.ErrValidation, maxFileName)
	}
	if len(mimeType) > maxMimeTypeName {
		return nil, fmt.Errorf("%w: mime type must be at most %d characters", common.ErrValidation, maxMimeTypeName)
	}
	if !isImage(mimeType) {
		return nil, fmt.Errorf("%w: receipt must be an image, got %q", common.ErrValidation, mimeType)
	}
	if err := s.checkOwner(ctx, userID, transactionID); err != nil {
		return nil, err
	}

	key := NewStorageKey(userID)
	url, err := s.presignedPutURL(ctx, key, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: presign upload: %v", common.ErrorInternal, err)
	}

	rc, err := s.repomanager.Receipts(s.db).Create(ctx, &models.Receipt{
		TransactionID: transactionID,
		UserID:        userID,
		FileName:      fileName,
		MimeType:      mimeType,
		StorageKey:    key,
	})
	if err != nil {
		return nil, common.StorageError(err)
	}

	return &models.ReceiptUploadTask{Receipt: rc, URL: url}, nil
}

// List returns the transaction's receipts with presigned download URLs.
func (s *ReceiptService) List(ctx context.Context, userID, transactionID string) ([]*models.ReceiptLink, error) {
	if err := s.checkOwner(ctx, userID, transactionID); err != nil {
		return nil, err
	}

	list, err := s.repomanager.Receipts(s.db).ListByTransaction(ctx, userID, transactionID)
	if err != nil {
		return nil, common.StorageError(err)
	}

	links := make([]*models.ReceiptLink, 0, len(list))
	for _, rc := range list {
		url, err := s.presignedGetURL(ctx, rc.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("%w: presign download: %v", common.ErrorInternal, err)
		}
		links = append(links, &models.ReceiptLink{Receipt: rc, URL: url})
	}
	return links, nil
}

func (s *ReceiptService) getReceipt(ctx context.Context, userID, receiptID string) (*models.Receipt, error) {
	if !isID(receiptID) {
		return nil, common.ErrorNotFound
	}
	rc, err := s.repomanager.Receipts(s.db).GetByID(ctx, userID, receiptID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageError(err)
	}
	return rc, nil
}

// Get returns one of the user's receipts with a presigned download URL.
func (s *ReceiptService) Get(ctx context.Context, userID, receiptID string) (*models.ReceiptLink, error) {
	rc, err := s.getReceipt(ctx, userID, receiptID)
	if err != nil {
		return nil, err
	}

	url, err := s.presignedGetURL(ctx, rc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: presign download: %v", common.ErrorInternal, err)
	}
	return &models.ReceiptLink{Receipt: rc, URL: url}, nil
}

// Delete removes the receipt record, then the stored image. A failed object
// delete leaves an orphaned object behind and is only logged.
func (s *ReceiptService) Delete(ctx context.Context, userID, receiptID string) error {
	rc, err := s.getReceipt(ctx, userID, receiptID)
	if err != nil {
		return err
	}

	if err := s.repomanager.Receipts(s.db).Delete(ctx, userID, receiptID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.StorageError(err)
	}

	client, err := s.getS3Client(ctx)
	if err == nil {
		bucket, key := s.config.S3Bucket, rc.StorageKey
		err = deleteObject(client, ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &key})
	}
	if err != nil {
		s.logger.Warn(ctx, "receipt object not deleted", "receipt_id", rc.ID, "storage_key", rc.StorageKey, "error", err)
	}
	return nil
}
