package ledger

import (
	"database/sql"
	"fmt"

	"github.com/centledger/backend/internal/models"
)

// Query is the read side: single-transaction loads with full resolution
// and refund context, and ordered slices of a user's history.
type Query struct {
	db *sql.DB
}

func NewQuery(db *sql.DB) *Query {
	return &Query{db: db}
}

// GetTransaction loads one transaction with payer and receiver (balances
// included), its resolution and both sides of any refund link, in a single
// query. Returns ErrNotFound on a miss.
func (q *Query) GetTransaction(id int) (*models.Transaction, error) {
	txn := &models.Transaction{}
	payer := &models.User{Balance: &models.Balance{}}
	var receiverID sql.NullInt64
	var status, rcvFirst, rcvSurname, rcvEmail sql.NullString
	var resolvedAt sql.NullTime
	var rcvBalance sql.NullFloat64
	var refundedBy, refundOf sql.NullInt64

	err := q.db.QueryRow(`
		SELECT t.id, t.reference, t.user_id, t.receiver_id, t.amount, t.created_at,
		       r.status, r.resolved_at,
		       sub.linked_transaction_id, pay.transaction_id,
		       COALESCE(pu.first_name, ''), COALESCE(pu.surname, ''), pu.email, pb.amount,
		       ru.first_name, ru.surname, ru.email, rb.amount
		FROM transactions t
		JOIN users pu ON pu.id = t.user_id
		JOIN balances pb ON pb.user_id = t.user_id
		LEFT JOIN users ru ON ru.id = t.receiver_id
		LEFT JOIN balances rb ON rb.user_id = t.receiver_id
		LEFT JOIN resolutions r ON r.transaction_id = t.id
		LEFT JOIN refunds sub ON sub.transaction_id = t.id
		LEFT JOIN refunds pay ON pay.linked_transaction_id = t.id
		WHERE t.id = $1`, id,
	).Scan(
		&txn.ID, &txn.Reference, &txn.UserID, &receiverID, &txn.Amount, &txn.CreatedAt,
		&status, &resolvedAt,
		&refundedBy, &refundOf,
		&payer.FirstName, &payer.Surname, &payer.Email, &payer.Balance.Amount,
		&rcvFirst, &rcvSurname, &rcvEmail, &rcvBalance,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select transaction: %w", err)
	}

	payer.ID = txn.UserID
	payer.Balance.UserID = txn.UserID
	txn.User = payer

	if receiverID.Valid {
		rid := int(receiverID.Int64)
		txn.ReceiverID = &rid
		receiver := &models.User{
			ID:        rid,
			FirstName: rcvFirst.String,
			Surname:   rcvSurname.String,
			Email:     rcvEmail.String,
			Balance:   &models.Balance{UserID: rid, Amount: rcvBalance.Float64},
		}
		txn.Receiver = receiver
	}

	applyResolution(txn, status, resolvedAt)
	applyRefundLinks(txn, refundedBy, refundOf)
	return txn, nil
}

// ListTransactions returns the transactions where the user is payer or
// receiver, ordered by creation time ascending and sliced by offset and
// count. count <= 0 means unbounded.
func (q *Query) ListTransactions(userID, offset, count int) ([]models.Transaction, error) {
	return queryTransactions(q.db, userID, offset, count)
}

// queryer is the read subset shared by *sql.DB and *sql.Tx.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func queryTransactions(run queryer, userID, offset, count int) ([]models.Transaction, error) {
	query := `
		SELECT t.id, t.reference, t.user_id, t.receiver_id, t.amount, t.created_at,
		       r.status, r.resolved_at,
		       sub.linked_transaction_id, pay.transaction_id
		FROM transactions t
		LEFT JOIN resolutions r ON r.transaction_id = t.id
		LEFT JOIN refunds sub ON sub.transaction_id = t.id
		LEFT JOIN refunds pay ON pay.linked_transaction_id = t.id
		WHERE t.user_id = $1 OR t.receiver_id = $1
		ORDER BY t.created_at ASC, t.id ASC
		OFFSET $2`
	args := []any{userID, offset}
	if count > 0 {
		query += " LIMIT $3"
		args = append(args, count)
	}

	rows, err := run.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		txn := models.Transaction{}
		var receiverID sql.NullInt64
		var status sql.NullString
		var resolvedAt sql.NullTime
		var refundedBy, refundOf sql.NullInt64
		err := rows.Scan(
			&txn.ID, &txn.Reference, &txn.UserID, &receiverID, &txn.Amount, &txn.CreatedAt,
			&status, &resolvedAt, &refundedBy, &refundOf,
		)
		if err != nil {
			return nil, err
		}
		if receiverID.Valid {
			rid := int(receiverID.Int64)
			txn.ReceiverID = &rid
		}
		applyResolution(&txn, status, resolvedAt)
		applyRefundLinks(&txn, refundedBy, refundOf)
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

func applyResolution(txn *models.Transaction, status sql.NullString, resolvedAt sql.NullTime) {
	if !status.Valid {
		txn.Status = models.StatusNew
		return
	}
	txn.Status = models.TransactionStatus(status.String)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		txn.ResolvedAt = &t
	}
}

func applyRefundLinks(txn *models.Transaction, refundedBy, refundOf sql.NullInt64) {
	if refundedBy.Valid {
		txn.Refunded = &models.RefundLink{
			TransactionID:       txn.ID,
			LinkedTransactionID: int(refundedBy.Int64),
		}
	}
	if refundOf.Valid {
		txn.Refund = &models.RefundLink{
			TransactionID:       int(refundOf.Int64),
			LinkedTransactionID: txn.ID,
		}
	}
}
