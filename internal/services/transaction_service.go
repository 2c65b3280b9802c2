package services

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/centledger/backend/internal/ledger"
)

// TransactionService exposes the ledger engine over HTTP: refill and
// transfer creation, resolution, refunds, and single-transaction reads.
type TransactionService struct {
	engine    *ledger.Engine
	query     *ledger.Query
	directory *ledger.Directory
	validator *ValidationHelper
}

func NewTransactionService(engine *ledger.Engine, query *ledger.Query, directory *ledger.Directory) *TransactionService {
	return &TransactionService{
		engine:    engine,
		query:     query,
		directory: directory,
		validator: NewValidationHelper(),
	}
}

// RefillRequest represents the refill creation payload. Amount must be
// nonzero; negative amounts are legal (that is how refunds debit).
// @Description Refill creation request structure
type RefillRequest struct {
	UserID int     `json:"user_id" validate:"required" example:"1"`
	Amount float64 `json:"amount" validate:"required" example:"50"`
}

// TransferRequest represents the transfer creation payload. Transfers are
// strictly positive and never to self.
// @Description Transfer creation request structure
type TransferRequest struct {
	UserID     int     `json:"user_id" validate:"required" example:"1"`
	ReceiverID int     `json:"receiver_id" validate:"required,nefield=UserID" example:"2"`
	Amount     float64 `json:"amount" validate:"required,gt=0" example:"20"`
}

func (s *TransactionService) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	if err := s.validator.ValidateStruct(dst); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

// CreateRefill handles direct transaction creation
// @Summary Create a refill transaction
// @Description Create a New transaction crediting a user's balance once committed
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body RefillRequest true "Refill request"
// @Success 201 {object} TransactionResponse "Transaction created"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /transactions/refill [post]
func (s *TransactionService) CreateRefill(w http.ResponseWriter, r *http.Request) {
	var req RefillRequest
	if !s.decode(w, r, &req) {
		return
	}

	if _, err := s.directory.GetUser(ledger.UserQuery{ID: req.UserID}); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
			return
		}
		SendErrorResponse(w, "Failed to fetch user", http.StatusInternalServerError, nil)
		return
	}

	txn, err := s.engine.CreateRefill(req.UserID, req.Amount)
	if err != nil {
		log.Printf("[LEDGER] Refill creation failed for user %d: %v", req.UserID, err)
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

// CreateTransfer handles transfer transaction creation
// @Summary Create a transfer transaction
// @Description Create a New transaction moving amount from payer to receiver once committed
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer request"
// @Success 201 {object} TransactionResponse "Transaction created"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "User or receiver not found"
// @Router /transactions/transfer [post]
func (s *TransactionService) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !s.decode(w, r, &req) {
		return
	}

	if _, err := s.directory.GetUser(ledger.UserQuery{ID: req.UserID}); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
			return
		}
		SendErrorResponse(w, "Failed to fetch user", http.StatusInternalServerError, nil)
		return
	}
	if _, err := s.directory.GetUser(ledger.UserQuery{ID: req.ReceiverID}); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			SendErrorResponse(w, "Receiver user not found", http.StatusNotFound, nil)
			return
		}
		SendErrorResponse(w, "Failed to fetch user", http.StatusInternalServerError, nil)
		return
	}

	txn, err := s.engine.CreateTransfer(req.UserID, req.ReceiverID, req.Amount)
	if err != nil {
		log.Printf("[LEDGER] Transfer creation failed for user %d: %v", req.UserID, err)
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

// GetTransaction handles single transaction reads
// @Summary Get a transaction
// @Description Get a transaction with its resolution and refund context
// @Tags transactions
// @Produce json
// @Param txId path int true "Transaction ID"
// @Success 200 {object} TransactionResponse "Transaction"
// @Failure 404 {object} ErrorResponse "Transaction not found"
// @Router /transactions/{txId} [get]
func (s *TransactionService) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txnID, ok := s.transactionID(w, r)
	if !ok {
		return
	}
	s.respondTransaction(w, txnID, http.StatusOK)
}

// CommitTransaction handles transaction commit
// @Summary Commit a transaction
// @Description Resolve a transaction as Commited and apply its balance effect
// @Tags transactions
// @Produce json
// @Param txId path int true "Transaction ID"
// @Success 201 {object} TransactionResponse "Transaction committed"
// @Failure 404 {object} ErrorResponse "Transaction not found"
// @Failure 409 {object} ErrorResponse "Transaction was resolved already"
// @Router /transactions/{txId}/commit [post]
func (s *TransactionService) CommitTransaction(w http.ResponseWriter, r *http.Request) {
	txnID, ok := s.transactionID(w, r)
	if !ok {
		return
	}
	s.resolveTransaction(w, txnID, s.engine.Commit)
}

// RejectTransaction handles transaction rejection
// @Summary Reject a transaction
// @Description Resolve a transaction as Rejected with no balance effect
// @Tags transactions
// @Produce json
// @Param txId path int true "Transaction ID"
// @Success 201 {object} TransactionResponse "Transaction rejected"
// @Failure 404 {object} ErrorResponse "Transaction not found"
// @Failure 409 {object} ErrorResponse "Transaction was resolved already"
// @Router /transactions/{txId}/reject [post]
func (s *TransactionService) RejectTransaction(w http.ResponseWriter, r *http.Request) {
	txnID, ok := s.transactionID(w, r)
	if !ok {
		return
	}
	s.resolveTransaction(w, txnID, s.engine.Reject)
}

// RefundTransaction handles refunds
// @Summary Refund a transaction
// @Description Create a New refill for the negated amount, linked to the original
// @Tags transactions
// @Produce json
// @Param txId path int true "Transaction ID"
// @Success 201 {object} TransactionResponse "Refund transaction created"
// @Failure 404 {object} ErrorResponse "Transaction not found"
// @Failure 409 {object} ErrorResponse "Refund not allowed"
// @Router /transactions/{txId}/refund [post]
func (s *TransactionService) RefundTransaction(w http.ResponseWriter, r *http.Request) {
	txnID, ok := s.transactionID(w, r)
	if !ok {
		return
	}

	refund, err := s.engine.Refund(txnID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
			return
		}
		if msg, conflict := refundConflictMessage(err); conflict {
			SendErrorResponse(w, msg, http.StatusConflict, nil)
			return
		}
		log.Printf("[LEDGER] Refund failed for transaction %d: %v", txnID, err)
		SendErrorResponse(w, "Failed to refund transaction", http.StatusInternalServerError, nil)
		return
	}

	s.respondTransaction(w, refund.ID, http.StatusCreated)
}

func refundConflictMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, ledger.ErrNotResolved):
		return "Transaction is not resolved", true
	case errors.Is(err, ledger.ErrRejectedTransaction):
		return "Transaction is rejected", true
	case errors.Is(err, ledger.ErrTransferNotRefundable):
		return "Transaction is transfer", true
	case errors.Is(err, ledger.ErrAlreadyRefunded):
		return "Transaction already refunded", true
	case errors.Is(err, ledger.ErrRefundOfRefund):
		return "Transaction is refund", true
	}
	return "", false
}

func (s *TransactionService) transactionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	txnID, err := strconv.Atoi(chi.URLParam(r, "txId"))
	if err != nil {
		SendErrorResponse(w, "Invalid transaction id", http.StatusBadRequest, nil)
		return 0, false
	}
	return txnID, true
}

func (s *TransactionService) resolveTransaction(w http.ResponseWriter, txnID int, resolve func(int) error) {
	if err := resolve(txnID); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
			return
		}
		if errors.Is(err, ledger.ErrAlreadyResolved) {
			SendErrorResponse(w, "Transaction was resolved already", http.StatusConflict, nil)
			return
		}
		log.Printf("[LEDGER] Resolution failed for transaction %d: %v", txnID, err)
		SendErrorResponse(w, "Failed to resolve transaction", http.StatusInternalServerError, nil)
		return
	}

	s.respondTransaction(w, txnID, http.StatusCreated)
}

func (s *TransactionService) respondTransaction(w http.ResponseWriter, txnID, statusCode int) {
	txn, err := s.query.GetTransaction(txnID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
			return
		}
		log.Printf("[LEDGER] Failed to fetch transaction %d: %v", txnID, err)
		SendErrorResponse(w, "Failed to fetch transaction", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, statusCode, toTransactionResponse(txn))
}
