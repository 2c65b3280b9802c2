package models

import "time"

// TransactionStatus is derived, not stored on the transaction row: a
// transaction is New until a Resolution row exists for it, after which it
// carries the resolution's status.
type TransactionStatus string

const (
	StatusNew      TransactionStatus = "new"
	StatusCommited TransactionStatus = "commited"
	StatusRejected TransactionStatus = "rejected"
)

// Transaction is the unit of ledger activity. ReceiverID is set only for
// transfers; refills have no receiver.
type Transaction struct {
	ID         int       `json:"id" db:"id"`
	Reference  string    `json:"reference" db:"reference"`
	UserID     int       `json:"user_id" db:"user_id"`
	ReceiverID *int      `json:"receiver_id,omitempty" db:"receiver_id"`
	Amount     float64   `json:"amount" db:"amount"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	Status     TransactionStatus `json:"status"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`

	// Payer and receiver, eager-loaded on single-transaction reads.
	User     *User `json:"user,omitempty"`
	Receiver *User `json:"receiver,omitempty"`

	// Refunded is set when this transaction has been reversed by another
	// transaction; Refund is set when this transaction is the reversal.
	Refunded *RefundLink `json:"refunded,omitempty"`
	Refund   *RefundLink `json:"refund,omitempty"`
}

// IsTransfer reports whether the transaction moves amount between two
// users rather than crediting a single balance.
func (t *Transaction) IsTransfer() bool {
	return t.ReceiverID != nil
}

// Resolution is the write-once record of a transaction's disposition.
// transaction_id is the primary key, so a transaction resolves at most
// once regardless of how many resolvers race.
type Resolution struct {
	TransactionID int               `json:"transaction_id" db:"transaction_id"`
	Status        TransactionStatus `json:"status" db:"status"`
	ResolvedAt    time.Time         `json:"resolved_at" db:"resolved_at"`
}

// RefundLink connects a refunded transaction to the refill that reverses
// it. Both columns are unique: a transaction is the subject of at most one
// refund and is the payment for at most one refund.
type RefundLink struct {
	TransactionID       int `json:"transaction_id" db:"transaction_id"`
	LinkedTransactionID int `json:"linked_transaction_id" db:"linked_transaction_id"`
}
