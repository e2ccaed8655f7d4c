package api

import "time"

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      *int   `json:"age,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   *int   `json:"age,omitempty"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AuthResponse answers SignUp and SignIn.
type AuthResponse struct {
	User User `json:"user"`
	TokenPair
}

// LogoutRequest is empty: the token to revoke travels in the authorization
// metadata.
type LogoutRequest struct{}

type LogoutResponse struct{}

// RefreshRequest carries the refresh token. When empty, the bearer token from
// the authorization metadata is used.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type TransactionItem struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Quantity int     `json:"quantity"`
}

type Transaction struct {
	ID        string            `json:"id,omitempty"`
	Name      string            `json:"name"`
	Amount    float64           `json:"amount"`
	Category  string            `json:"category"`
	Items     []TransactionItem `json:"items,omitempty"`
	CreatedAt time.Time         `json:"created_at,omitzero"`
}

type CreateTransactionRequest struct {
	Transaction Transaction `json:"transaction"`
}

type CreateTransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

type ListTransactionsRequest struct{}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type AttachReceiptRequest struct {
	TransactionID string `json:"transaction_id"`
	FileName      string `json:"file_name"`
	MimeType      string `json:"mime_type"`
}

type AttachReceiptResponse struct {
	ReceiptID  string `json:"receipt_id"`
	StorageKey string `json:"storage_key"`
	// UploadURL is a presigned PUT URL; the client uploads the image there.
	UploadURL string `json:"upload_url"`
}

type ListReceiptsRequest struct {
	TransactionID string `json:"transaction_id"`
}

type Receipt struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type ListReceiptsResponse struct {
	Receipts []Receipt `json:"receipts"`
}

type GetReceiptRequest struct {
	ReceiptID string `json:"receipt_id"`
}

type GetReceiptResponse struct {
	Receipt Receipt `json:"receipt"`
}

type DeleteReceiptRequest struct {
	ReceiptID string `json:"receipt_id"`
}

type DeleteReceiptResponse struct{}

// UpdateItemRequest replaces name, amount and quantity of an existing item.
type UpdateItemRequest struct {
	Item TransactionItem `json:"item"`
}

type UpdateItemResponse struct {
	Item TransactionItem `json:"item"`
}

type DeleteItemRequest struct {
	ItemID string `json:"item_id"`
}

type DeleteItemResponse struct{}
