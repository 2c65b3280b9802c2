package ledger

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors for every distinct failure the ledger surfaces. The HTTP
// layer matches them with errors.Is and translates each into its own
// response; nothing here is retried by the ledger itself.
var (
	// ErrNotFound is the normal negative-lookup outcome for users and
	// transactions.
	ErrNotFound = errors.New("not found")

	// ErrInvalidQuery is a caller error: a lookup needs exactly one of id
	// or email.
	ErrInvalidQuery = errors.New("exactly one of id or email must be given")

	// ErrDuplicateEmail is returned when user creation hits the email
	// uniqueness constraint.
	ErrDuplicateEmail = errors.New("email is already taken")

	// ErrAlreadyResolved is returned when a commit or reject loses the
	// resolution race, or targets a transaction resolved earlier.
	ErrAlreadyResolved = errors.New("transaction was resolved already")

	// Refund validation failures, in the order they are checked.
	ErrNotResolved           = errors.New("transaction is not resolved")
	ErrRejectedTransaction   = errors.New("transaction is rejected")
	ErrTransferNotRefundable = errors.New("transaction is transfer")
	ErrAlreadyRefunded       = errors.New("transaction already refunded")
	ErrRefundOfRefund        = errors.New("transaction is refund")
)

// Postgres error codes the ledger gives business meaning to.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// isUniqueViolation reports whether err is a unique-constraint violation,
// optionally restricted to the named constraints.
func isUniqueViolation(err error, constraints ...string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if pqErr.Constraint == c {
			return true
		}
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
