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

// AccountService exposes the user surface: creation and lookups with their
// balance and transaction history.
type AccountService struct {
	directory *ledger.Directory
	query     *ledger.Query
	validator *ValidationHelper
}

func NewAccountService(directory *ledger.Directory, query *ledger.Query) *AccountService {
	return &AccountService{
		directory: directory,
		query:     query,
		validator: NewValidationHelper(),
	}
}

// CreateUserRequest represents the user creation payload
// @Description User creation request structure
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email" example:"user@example.com"`
	Password  string `json:"password" validate:"required,min=6" example:"password123"`
	FirstName string `json:"first_name" validate:"omitempty,max=256" example:"John"`
	Surname   string `json:"surname" validate:"omitempty,max=256" example:"Doe"`
}

// CreateUser handles user creation
// @Summary Create a new user
// @Description Create a user with a zero balance
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User creation request"
// @Success 201 {object} UserResponse "User created"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "Email is already taken"
// @Router /users [post]
func (s *AccountService) CreateUser(w http.ResponseWriter, r *http.Request) {
	log.Printf("[ACCOUNT] User creation attempt from IP: %s", r.RemoteAddr)

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req CreateUserRequest
	if err := dec.Decode(&req); err != nil {
		log.Printf("[ACCOUNT] User creation failed - invalid request: %v", err)
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		log.Printf("[ACCOUNT] User creation validation failed: %v", err)
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	user, err := s.directory.CreateUser(req.Email, req.Password, req.FirstName, req.Surname)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateEmail) {
			SendErrorResponse(w, "Email is already taken", http.StatusConflict, nil)
			return
		}
		log.Printf("[ACCOUNT] User creation failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "Failed to create user", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, toUserResponse(user))
}

// GetUser handles user lookup by id
// @Summary Get a user
// @Description Get a user with its current balance
// @Tags users
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} UserResponse "User"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /users/{userId} [get]
func (s *AccountService) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
	if err != nil {
		SendErrorResponse(w, "Invalid user id", http.StatusBadRequest, nil)
		return
	}

	s.respondUser(w, ledger.UserQuery{ID: userID, WithBalance: true})
}

// LookupUser handles user lookup by email
// @Summary Look up a user by email
// @Tags users
// @Produce json
// @Param email query string true "Email"
// @Success 200 {object} UserResponse "User"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /users [get]
func (s *AccountService) LookupUser(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		SendErrorResponse(w, "email is required", http.StatusBadRequest, nil)
		return
	}

	s.respondUser(w, ledger.UserQuery{Email: email, WithBalance: true})
}

func (s *AccountService) respondUser(w http.ResponseWriter, q ledger.UserQuery) {
	user, err := s.directory.GetUser(q)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
			return
		}
		log.Printf("[ACCOUNT] User lookup failed: %v", err)
		SendErrorResponse(w, "Failed to fetch user", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, toUserResponse(user))
}

// ListUserTransactions handles a user's transaction history
// @Summary List a user's transactions
// @Description Transactions where the user is payer or receiver, oldest first
// @Tags users
// @Produce json
// @Param userId path int true "User ID"
// @Param skip query int false "Rows to skip"
// @Param count query int false "Maximum rows to return"
// @Success 200 {array} TransactionResponse
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /users/{userId}/transactions [get]
func (s *AccountService) ListUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
	if err != nil {
		SendErrorResponse(w, "Invalid user id", http.StatusBadRequest, nil)
		return
	}

	skip := 0
	if v := r.URL.Query().Get("skip"); v != "" {
		if skip, err = strconv.Atoi(v); err != nil || skip < 0 {
			SendErrorResponse(w, "Invalid skip parameter", http.StatusBadRequest, nil)
			return
		}
	}
	count := 0
	if v := r.URL.Query().Get("count"); v != "" {
		if count, err = strconv.Atoi(v); err != nil || count < 0 {
			SendErrorResponse(w, "Invalid count parameter", http.StatusBadRequest, nil)
			return
		}
	}

	if _, err := s.directory.GetUser(ledger.UserQuery{ID: userID}); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
			return
		}
		SendErrorResponse(w, "Failed to fetch user", http.StatusInternalServerError, nil)
		return
	}

	transactions, err := s.query.ListTransactions(userID, skip, count)
	if err != nil {
		log.Printf("[ACCOUNT] Transaction listing failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	out := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		out = append(out, toTransactionResponse(&transactions[i]))
	}
	SendJSON(w, http.StatusOK, out)
}
