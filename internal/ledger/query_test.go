package ledger

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/centledger/backend/internal/models"
)

// Columns of the history/list projection, shared across tests.
func transactionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "reference", "user_id", "receiver_id", "amount", "created_at",
		"status", "resolved_at", "linked_transaction_id", "transaction_id",
	})
}

func TestQuery_GetTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	query := NewQuery(db)

	fullColumns := []string{
		"id", "reference", "user_id", "receiver_id", "amount", "created_at",
		"status", "resolved_at", "linked_transaction_id", "transaction_id",
		"p_first_name", "p_surname", "p_email", "p_balance",
		"r_first_name", "r_surname", "r_email", "r_balance",
	}

	t.Run("transfer with full context", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT t.id, t.reference").
			WithArgs(12).
			WillReturnRows(sqlmock.NewRows(fullColumns).
				AddRow(12, "ref-12", 1, 2, 20.0, now,
					"commited", now, nil, nil,
					"John", "Doe", "john@example.org", 15.0,
					"Jane", "Doe", "jane@example.org", 20.0))

		txn, err := query.GetTransaction(12)
		assert.NoError(t, err)
		assert.Equal(t, models.StatusCommited, txn.Status)
		assert.NotNil(t, txn.ResolvedAt)
		assert.Equal(t, "john@example.org", txn.User.Email)
		assert.Equal(t, 15.0, txn.User.Balance.Amount)
		assert.NotNil(t, txn.Receiver)
		assert.Equal(t, 2, txn.Receiver.ID)
		assert.Equal(t, 20.0, txn.Receiver.Balance.Amount)
		assert.Nil(t, txn.Refunded)
		assert.Nil(t, txn.Refund)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refunded refill carries both link sides", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT t.id, t.reference").
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows(fullColumns).
				AddRow(10, "ref-10", 1, nil, 50.0, now,
					"commited", now, 20, nil,
					"John", "Doe", "john@example.org", 0.0,
					nil, nil, nil, nil))

		txn, err := query.GetTransaction(10)
		assert.NoError(t, err)
		assert.Nil(t, txn.Receiver)
		assert.NotNil(t, txn.Refunded)
		assert.Equal(t, 20, txn.Refunded.LinkedTransactionID)
		assert.Nil(t, txn.Refund)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT t.id, t.reference").
			WithArgs(99).
			WillReturnRows(sqlmock.NewRows(fullColumns))

		_, err := query.GetTransaction(99)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQuery_ListTransactions(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	query := NewQuery(db)

	t.Run("ordered with derived statuses", func(t *testing.T) {
		base := time.Now()
		now := time.Now()
		mock.ExpectQuery("WHERE t.user_id = \\$1 OR t.receiver_id = \\$1").
			WithArgs(1, 0).
			WillReturnRows(transactionRows().
				AddRow(10, "ref-a", 1, nil, 10.0, base, "commited", now, nil, nil).
				AddRow(11, "ref-b", 1, nil, 20.0, base.Add(time.Second), "rejected", now, nil, nil).
				AddRow(12, "ref-c", 1, nil, 30.1, base.Add(2*time.Second), nil, nil, nil, nil))

		transactions, err := query.ListTransactions(1, 0, 0)
		assert.NoError(t, err)
		assert.Len(t, transactions, 3)
		assert.Equal(t, []models.TransactionStatus{
			models.StatusCommited, models.StatusRejected, models.StatusNew,
		}, []models.TransactionStatus{
			transactions[0].Status, transactions[1].Status, transactions[2].Status,
		})
		assert.Equal(t, 30.1, transactions[2].Amount)
		assert.Nil(t, transactions[2].ResolvedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("offset and count", func(t *testing.T) {
		mock.ExpectQuery("OFFSET \\$2 LIMIT \\$3").
			WithArgs(1, 1, 2).
			WillReturnRows(transactionRows().
				AddRow(11, "ref-b", 1, nil, 20.0, time.Now(), nil, nil, nil, nil))

		transactions, err := query.ListTransactions(1, 1, 2)
		assert.NoError(t, err)
		assert.Len(t, transactions, 1)
		assert.Equal(t, 11, transactions[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty history", func(t *testing.T) {
		mock.ExpectQuery("WHERE t.user_id = \\$1 OR t.receiver_id = \\$1").
			WithArgs(2, 0).
			WillReturnRows(transactionRows())

		transactions, err := query.ListTransactions(2, 0, 0)
		assert.NoError(t, err)
		assert.Empty(t, transactions)
		assert.NotNil(t, transactions)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
