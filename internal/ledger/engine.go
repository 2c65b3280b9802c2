package ledger

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/centledger/backend/internal/models"
)

// Engine owns the transaction state machine: it creates transactions,
// resolves them exactly once, and performs refunds. Every resolution is a
// single database transaction so the resolution row and the balance deltas
// commit or roll back together.
type Engine struct {
	db *sql.DB
}

func NewEngine(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// runner is the subset of *sql.DB / *sql.Tx the engine inserts through.
type runner interface {
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

// CreateRefill inserts a New transaction crediting (or, for negative
// amounts, debiting) a single user. No balance effect until committed.
func (e *Engine) CreateRefill(userID int, amount float64) (*models.Transaction, error) {
	return insertTransaction(e.db, userID, nil, amount)
}

// CreateTransfer inserts a New transaction moving amount from payer to
// receiver once committed. payer == receiver is not rejected here; the
// boundary layer decides whether to allow it.
func (e *Engine) CreateTransfer(userID, receiverID int, amount float64) (*models.Transaction, error) {
	return insertTransaction(e.db, userID, &receiverID, amount)
}

func insertTransaction(run runner, userID int, receiverID *int, amount float64) (*models.Transaction, error) {
	txn := &models.Transaction{
		Reference:  uuid.NewString(),
		UserID:     userID,
		ReceiverID: receiverID,
		Amount:     amount,
		CreatedAt:  time.Now(),
		Status:     models.StatusNew,
	}
	err := run.QueryRow(
		"INSERT INTO transactions (reference, user_id, receiver_id, amount, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		txn.Reference, txn.UserID, txn.ReceiverID, txn.Amount, txn.CreatedAt,
	).Scan(&txn.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return txn, nil
}

// Commit resolves a transaction as Commited and applies its balance
// effect. Of N concurrent resolvers exactly one succeeds; the others get
// ErrAlreadyResolved and leave no balance effect behind, because the
// resolution insert and the balance updates share one atomic unit.
func (e *Engine) Commit(transactionID int) error {
	return e.resolve(transactionID, models.StatusCommited)
}

// Reject resolves a transaction as Rejected. Same uniqueness guard as
// Commit, no balance effect.
func (e *Engine) Reject(transactionID int) error {
	return e.resolve(transactionID, models.StatusRejected)
}

func (e *Engine) resolve(transactionID int, status models.TransactionStatus) error {
	tx, err := e.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var userID int
	var receiverID sql.NullInt64
	var amount float64
	err = tx.QueryRow(
		"SELECT user_id, receiver_id, amount FROM transactions WHERE id = $1", transactionID,
	).Scan(&userID, &receiverID, &amount)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select transaction: %w", err)
	}

	// The primary key on resolutions is what makes the state machine safe:
	// the second resolver's insert fails here and the whole unit, balance
	// deltas included, rolls back with it.
	_, err = tx.Exec(
		"INSERT INTO resolutions (transaction_id, status, resolved_at) VALUES ($1, $2, $3)",
		transactionID, status, time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err, "resolutions_pkey") {
			return ErrAlreadyResolved
		}
		return fmt.Errorf("insert resolution: %w", err)
	}

	if status == models.StatusCommited {
		if receiverID.Valid {
			if err := applyDelta(tx, int(receiverID.Int64), amount); err != nil {
				return err
			}
			if err := applyDelta(tx, userID, -amount); err != nil {
				return err
			}
		} else {
			if err := applyDelta(tx, userID, amount); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Printf("[LEDGER] Transaction %d resolved as %s", transactionID, status)
	return nil
}

// applyDelta mutates a balance as a relative update so concurrent deltas
// on the same row compose without lost writes.
func applyDelta(tx *sql.Tx, userID int, delta float64) error {
	res, err := tx.Exec(
		"UPDATE balances SET amount = amount + $1 WHERE user_id = $2", delta, userID,
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no balance row for user %d", userID)
	}
	return nil
}

// Refund reverses a committed refill: it creates a New refill for the
// negated amount and links it to the original, both in one atomic unit.
// The returned transaction must itself be committed or rejected like any
// other. Validation failures, in order: ErrNotResolved,
// ErrRejectedTransaction, ErrTransferNotRefundable, ErrAlreadyRefunded,
// ErrRefundOfRefund.
func (e *Engine) Refund(transactionID int) (*models.Transaction, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var userID int
	var receiverID sql.NullInt64
	var amount float64
	var status sql.NullString
	var refundedBy, refundOf sql.NullInt64
	err = tx.QueryRow(`
		SELECT t.user_id, t.receiver_id, t.amount, r.status,
		       sub.linked_transaction_id, pay.transaction_id
		FROM transactions t
		LEFT JOIN resolutions r ON r.transaction_id = t.id
		LEFT JOIN refunds sub ON sub.transaction_id = t.id
		LEFT JOIN refunds pay ON pay.linked_transaction_id = t.id
		WHERE t.id = $1`, transactionID,
	).Scan(&userID, &receiverID, &amount, &status, &refundedBy, &refundOf)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select transaction: %w", err)
	}

	switch {
	case !status.Valid:
		return nil, ErrNotResolved
	case models.TransactionStatus(status.String) == models.StatusRejected:
		return nil, ErrRejectedTransaction
	case receiverID.Valid:
		return nil, ErrTransferNotRefundable
	case refundedBy.Valid:
		return nil, ErrAlreadyRefunded
	case refundOf.Valid:
		return nil, ErrRefundOfRefund
	}

	refund, err := insertTransaction(tx, userID, nil, -amount)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		"INSERT INTO refunds (transaction_id, linked_transaction_id) VALUES ($1, $2)",
		transactionID, refund.ID,
	)
	if err != nil {
		// A concurrent refund of the same original won the race.
		if isUniqueViolation(err, "refunds_pkey") {
			return nil, ErrAlreadyRefunded
		}
		return nil, fmt.Errorf("insert refund link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[LEDGER] Transaction %d refunded by transaction %d", transactionID, refund.ID)
	refund.Refund = &models.RefundLink{
		TransactionID:       transactionID,
		LinkedTransactionID: refund.ID,
	}
	return refund, nil
}
