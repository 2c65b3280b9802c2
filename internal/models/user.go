package models

import "time"

// User is a ledger account holder. Email is the unique external
// identifier; first name and surname are optional.
type User struct {
	ID             int       `json:"id" db:"id"`
	FirstName      string    `json:"first_name,omitempty" db:"first_name"`
	Surname        string    `json:"surname,omitempty" db:"surname"`
	Email          string    `json:"email" db:"email"`
	CredentialHash string    `json:"-" db:"credential_hash"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	// Eager-loaded associations, nil unless requested.
	Balance      *Balance      `json:"balance,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
}

// Balance is the single mutable amount per user. It exists iff the user
// exists and is written only while committing a transaction, never
// directly by callers.
type Balance struct {
	UserID int     `json:"user_id" db:"user_id"`
	Amount float64 `json:"amount" db:"amount"`
}
