package services

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"

	"github.com/centledger/backend/internal/ledger"
)

const paymentRequestTTL = 5 * time.Minute

// QRService issues one-shot payment-request codes: a user asks to be paid
// an amount, the request lives in Redis until claimed, and claiming it
// creates a New transfer from the claimer to the requester.
type QRService struct {
	redis     *redis.Client
	engine    *ledger.Engine
	directory *ledger.Directory
	validator *ValidationHelper
}

func NewQRService(redisClient *redis.Client, engine *ledger.Engine, directory *ledger.Directory) *QRService {
	return &QRService{
		redis:     redisClient,
		engine:    engine,
		directory: directory,
		validator: NewValidationHelper(),
	}
}

type paymentRequest struct {
	UserID    int     `json:"user_id"`
	Amount    float64 `json:"amount"`
	Timestamp int64   `json:"timestamp"`
	Nonce     string  `json:"nonce"`
}

// PaymentRequestRequest represents the QR generation payload
// @Description Payment request generation structure
type PaymentRequestRequest struct {
	UserID int     `json:"user_id" validate:"required" example:"1"`
	Amount float64 `json:"amount" validate:"required,gt=0" example:"25"`
}

// ClaimRequest represents the QR claim payload
// @Description Payment request claim structure
type ClaimRequest struct {
	PayerID int    `json:"payer_id" validate:"required" example:"2"`
	Code    string `json:"code" validate:"required"`
}

// GeneratePaymentRequest handles payment-request QR generation
// @Summary Generate a payment-request QR code
// @Tags qr
// @Accept json
// @Produce json
// @Param request body PaymentRequestRequest true "Payment request"
// @Success 201 {object} map[string]any "Code and QR image"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 503 {object} ErrorResponse "QR service unavailable"
// @Router /qr/payment-request [post]
func (s *QRService) GeneratePaymentRequest(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		SendErrorResponse(w, "QR service unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	var req PaymentRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
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

	payload := paymentRequest{
		UserID:    req.UserID,
		Amount:    req.Amount,
		Timestamp: time.Now().Unix(),
		Nonce:     generateNonce(),
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		SendErrorResponse(w, "Failed to generate payment request", http.StatusInternalServerError, nil)
		return
	}

	code := base64.URLEncoding.EncodeToString(jsonData)
	key := fmt.Sprintf("payreq:%s", code)
	if err := s.redis.Set(r.Context(), key, jsonData, paymentRequestTTL).Err(); err != nil {
		log.Printf("[QR] Failed to store payment request: %v", err)
		SendErrorResponse(w, "Failed to generate payment request", http.StatusInternalServerError, nil)
		return
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, map[string]any{
		"code":       code,
		"qr_image":   base64.StdEncoding.EncodeToString(buf.Bytes()),
		"expires_in": int(paymentRequestTTL.Seconds()),
	})
}

// ClaimPaymentRequest handles payment-request claims
// @Summary Claim a payment-request QR code
// @Description Consume the code and create a New transfer from claimer to requester
// @Tags qr
// @Accept json
// @Produce json
// @Param request body ClaimRequest true "Claim request"
// @Success 201 {object} TransactionResponse "Transfer created"
// @Failure 400 {object} ErrorResponse "Invalid or expired code"
// @Failure 503 {object} ErrorResponse "QR service unavailable"
// @Router /qr/claim [post]
func (s *QRService) ClaimPaymentRequest(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		SendErrorResponse(w, "QR service unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	key := fmt.Sprintf("payreq:%s", req.Code)
	data, err := s.redis.Get(r.Context(), key).Bytes()
	if err == redis.Nil {
		SendErrorResponse(w, "Invalid or expired payment request", http.StatusBadRequest, nil)
		return
	}
	if err != nil {
		log.Printf("[QR] Failed to load payment request: %v", err)
		SendErrorResponse(w, "Failed to claim payment request", http.StatusInternalServerError, nil)
		return
	}

	var payload paymentRequest
	if err := json.Unmarshal(data, &payload); err != nil {
		SendErrorResponse(w, "Invalid or expired payment request", http.StatusBadRequest, nil)
		return
	}
	if payload.UserID == req.PayerID {
		SendErrorResponse(w, "Cannot pay your own payment request", http.StatusBadRequest, nil)
		return
	}

	if _, err := s.directory.GetUser(ledger.UserQuery{ID: req.PayerID}); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
			return
		}
		SendErrorResponse(w, "Failed to fetch user", http.StatusInternalServerError, nil)
		return
	}

	txn, err := s.engine.CreateTransfer(req.PayerID, payload.UserID, payload.Amount)
	if err != nil {
		log.Printf("[QR] Failed to create transfer for claim: %v", err)
		SendErrorResponse(w, "Failed to claim payment request", http.StatusInternalServerError, nil)
		return
	}

	// One shot: the code is gone whether or not the transfer gets committed.
	s.redis.Del(r.Context(), key)

	log.Printf("[QR] Payment request claimed - transfer %d from user %d to user %d", txn.ID, req.PayerID, payload.UserID)
	SendJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
