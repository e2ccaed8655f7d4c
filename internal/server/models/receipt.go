package models

import "time"

// Receipt describes an image attached to a transaction. The image itself
// lives in object storage under StorageKey.
type Receipt struct {
	ID            string
	TransactionID string
	UserID        string
	// FileName is the client-side name, kept for display only.
	FileName string
	MimeType string
	// StorageKey is the object-storage key (path) of the image.
	StorageKey string
	CreatedAt  time.Time
}

// ReceiptUploadTask instructs the client to upload the image using a presigned URL.
type ReceiptUploadTask struct {
	Receipt *Receipt
	URL     string
}

// ReceiptLink pairs receipt metadata with a temporary presigned download URL.
type ReceiptLink struct {
	Receipt *Receipt
	URL     string
}
