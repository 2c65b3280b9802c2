package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return fmt.Sprintf("hash(%s)", password), nil
}

func TestDirectory_CreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	directory := NewDirectory(db, fakeHasher{})

	t.Run("creates user and zero balance atomically", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO users .*RETURNING id, created_at").
			WithArgs("test@example.org", "hash(secret)", "John", "Doe").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
		mock.ExpectExec("INSERT INTO balances").
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		user, err := directory.CreateUser("Test@example.org", "secret", "John", "Doe")
		assert.NoError(t, err)
		assert.Equal(t, 1, user.ID)
		assert.Equal(t, "test@example.org", user.Email)
		assert.NotEqual(t, "secret", user.CredentialHash)
		assert.NotNil(t, user.Balance)
		assert.Equal(t, 0.0, user.Balance.Amount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO users .*RETURNING id, created_at").
			WithArgs("test@example.org", "hash(secret)", "", "").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
		mock.ExpectRollback()

		_, err := directory.CreateUser("test@example.org", "secret", "", "")
		assert.ErrorIs(t, err, ErrDuplicateEmail)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDirectory_GetUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	directory := NewDirectory(db, fakeHasher{})

	userColumns := []string{"id", "first_name", "surname", "email", "credential_hash", "created_at"}

	t.Run("requires exactly one selector", func(t *testing.T) {
		_, err := directory.GetUser(UserQuery{})
		assert.ErrorIs(t, err, ErrInvalidQuery)

		_, err = directory.GetUser(UserQuery{ID: 1, Email: "test@example.org"})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("by id with balance", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE id = \\$1").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(1, "John", "Doe", "test@example.org", "hash(secret)", time.Now()))
		mock.ExpectQuery("SELECT user_id, amount FROM balances WHERE user_id = \\$1").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount"}).AddRow(1, 42.5))

		user, err := directory.GetUser(UserQuery{ID: 1, WithBalance: true})
		assert.NoError(t, err)
		assert.Equal(t, "test@example.org", user.Email)
		assert.NotNil(t, user.Balance)
		assert.Equal(t, 42.5, user.Balance.Amount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("by email", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE email = \\$1").
			WithArgs("test@example.org").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(1, "", "", "test@example.org", "hash(secret)", time.Now()))

		user, err := directory.GetUser(UserQuery{Email: "Test@Example.org"})
		assert.NoError(t, err)
		assert.Equal(t, 1, user.ID)
		assert.Nil(t, user.Balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE id = \\$1").
			WithArgs(99).
			WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := directory.GetUser(UserQuery{ID: 99})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with transactions", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE id = \\$1").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(1, "", "", "test@example.org", "hash(secret)", time.Now()))
		mock.ExpectQuery("WHERE t.user_id = \\$1 OR t.receiver_id = \\$1").
			WithArgs(1, 0).
			WillReturnRows(transactionRows().
				AddRow(10, "ref-a", 1, nil, 50.0, time.Now(), "commited", time.Now(), nil, nil))

		user, err := directory.GetUser(UserQuery{ID: 1, WithTransactions: true})
		assert.NoError(t, err)
		assert.Len(t, user.Transactions, 1)
		assert.Equal(t, 10, user.Transactions[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
