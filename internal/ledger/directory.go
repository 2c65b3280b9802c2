package ledger

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/centledger/backend/internal/models"
)

// CredentialHasher turns a plaintext password into the opaque credential
// stored on the user row. The directory never inspects the result.
type CredentialHasher interface {
	Hash(password string) (string, error)
}

// Directory manages users and their balances. A user and its zero balance
// are created in one atomic unit; the balance row is never created or
// deleted on its own.
type Directory struct {
	db     *sql.DB
	hasher CredentialHasher
}

func NewDirectory(db *sql.DB, hasher CredentialHasher) *Directory {
	return &Directory{db: db, hasher: hasher}
}

// UserQuery selects a user by exactly one of ID or Email and names the
// associations to eager-load.
type UserQuery struct {
	ID    int
	Email string

	WithBalance      bool
	WithTransactions bool
}

// CreateUser hashes the credential, then inserts the user and a zero
// balance in a single database transaction. Returns ErrDuplicateEmail when
// the email uniqueness constraint fires.
func (d *Directory) CreateUser(email, password, firstName, surname string) (*models.User, error) {
	credential, err := d.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	user := &models.User{
		FirstName:      firstName,
		Surname:        surname,
		Email:          strings.ToLower(email),
		CredentialHash: credential,
	}
	err = tx.QueryRow(
		"INSERT INTO users (email, credential_hash, first_name, surname) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
		user.Email, credential, firstName, surname,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO balances (user_id, amount) VALUES ($1, 0)", user.ID); err != nil {
		return nil, fmt.Errorf("insert balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[ACCOUNT] User created - ID: %d, Email: %s", user.ID, user.Email)
	user.Balance = &models.Balance{UserID: user.ID}
	return user, nil
}

// GetUser fetches a user by id or email. Returns ErrInvalidQuery unless
// exactly one selector is set and ErrNotFound on a miss.
func (d *Directory) GetUser(q UserQuery) (*models.User, error) {
	if (q.ID != 0) == (q.Email != "") {
		return nil, ErrInvalidQuery
	}

	cond, arg := "id = $1", any(q.ID)
	if q.Email != "" {
		cond, arg = "email = $1", any(strings.ToLower(q.Email))
	}

	user := &models.User{}
	err := d.db.QueryRow(
		"SELECT id, COALESCE(first_name, ''), COALESCE(surname, ''), email, credential_hash, created_at FROM users WHERE "+cond,
		arg,
	).Scan(&user.ID, &user.FirstName, &user.Surname, &user.Email, &user.CredentialHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}

	if q.WithBalance {
		balance := &models.Balance{}
		err := d.db.QueryRow(
			"SELECT user_id, amount FROM balances WHERE user_id = $1", user.ID,
		).Scan(&balance.UserID, &balance.Amount)
		if err != nil {
			return nil, fmt.Errorf("select balance: %w", err)
		}
		user.Balance = balance
	}

	if q.WithTransactions {
		transactions, err := queryTransactions(d.db, user.ID, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("select transactions: %w", err)
		}
		user.Transactions = transactions
	}

	return user, nil
}
