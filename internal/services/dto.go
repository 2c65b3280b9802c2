package services

import (
	"fmt"

	"github.com/centledger/backend/internal/models"
)

// UserResponse is the outward user shape: flat balance plus a self link.
type UserResponse struct {
	ID        int     `json:"id"`
	FirstName string  `json:"first_name,omitempty"`
	Surname   string  `json:"surname,omitempty"`
	Email     string  `json:"email"`
	Balance   float64 `json:"balance"`
	Href      string  `json:"href"`
}

// UserRef is a link to a user.
type UserRef struct {
	ID   int    `json:"id"`
	Href string `json:"href"`
}

// TransactionRef is a link to a transaction.
type TransactionRef struct {
	ID   int    `json:"id"`
	Href string `json:"href"`
}

// TransactionResponse is the outward transaction shape. Refunded points at
// the refund payment; Refund points back at the refunded original.
type TransactionResponse struct {
	ID       int                      `json:"id"`
	Href     string                   `json:"href"`
	User     UserRef                  `json:"user"`
	Receiver *UserRef                 `json:"receiver,omitempty"`
	Amount   float64                  `json:"amount"`
	Status   models.TransactionStatus `json:"status"`
	Refunded *TransactionRef          `json:"refunded,omitempty"`
	Refund   *TransactionRef          `json:"refund,omitempty"`
}

func userHref(userID int) string {
	return fmt.Sprintf("/api/v1/users/%d", userID)
}

func transactionHref(transactionID int) string {
	return fmt.Sprintf("/api/v1/transactions/%d", transactionID)
}

func toUserRef(userID int) UserRef {
	return UserRef{ID: userID, Href: userHref(userID)}
}

func toTransactionRef(transactionID int) TransactionRef {
	return TransactionRef{ID: transactionID, Href: transactionHref(transactionID)}
}

func toUserResponse(user *models.User) UserResponse {
	resp := UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		Surname:   user.Surname,
		Email:     user.Email,
		Href:      userHref(user.ID),
	}
	if user.Balance != nil {
		resp.Balance = user.Balance.Amount
	}
	return resp
}

func toTransactionResponse(txn *models.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:     txn.ID,
		Href:   transactionHref(txn.ID),
		User:   toUserRef(txn.UserID),
		Amount: txn.Amount,
		Status: txn.Status,
	}
	if txn.ReceiverID != nil {
		ref := toUserRef(*txn.ReceiverID)
		resp.Receiver = &ref
	}
	if txn.Refunded != nil {
		ref := toTransactionRef(txn.Refunded.LinkedTransactionID)
		resp.Refunded = &ref
	}
	if txn.Refund != nil {
		ref := toTransactionRef(txn.Refund.TransactionID)
		resp.Refund = &ref
	}
	return resp
}
