package models

import "time"

type Transaction struct {
	ID        string
	UserID    string
	Name      string
	Amount    float64
	Category  string
	Items     []*TransactionItem
	CreatedAt time.Time
}

type TransactionItem struct {
	ID            string
	TransactionID string
	Name          string
	Amount        float64
	Quantity      int
}
