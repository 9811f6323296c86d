package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/thedevsaddam/govalidator"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodOnline       PaymentMethod = "online"
)

var PaymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodBankTransfer,
	PaymentMethodCash,
	PaymentMethodOnline,
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodBankTransfer, PaymentMethodCash, PaymentMethodOnline:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusCancelled,
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// Payment is a stored payment row.
type Payment struct {
	ID          uuid.UUID     `db:"id"`
	PolicyID    string        `db:"policy_id"`
	Amount      float64       `db:"amount"`
	Date        time.Time     `db:"payment_date"`
	Method      PaymentMethod `db:"payment_method"`
	Status      PaymentStatus `db:"status"`
	Description *string       `db:"description"`
	Created     time.Time     `db:"created"`
	Updated     time.Time     `db:"updated"`
}

// PaymentView is the public shape of a payment.
type PaymentView struct {
	ID          string        `json:"id"`
	PolicyID    string        `json:"policyId"`
	Amount      float64       `json:"amount"`
	Date        time.Time     `json:"date"`
	Method      PaymentMethod `json:"method"`
	Status      PaymentStatus `json:"status"`
	Description *string       `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func NewPaymentView(p Payment) PaymentView {
	return PaymentView{
		ID:          p.ID.String(),
		PolicyID:    p.PolicyID,
		Amount:      p.Amount,
		Date:        p.Date,
		Method:      p.Method,
		Status:      p.Status,
		Description: p.Description,
		CreatedAt:   p.Created,
		UpdatedAt:   p.Updated,
	}
}

// InsertPaymentOpts is the store input. A nil Status means the caller
// omitted it and the default applies.
type InsertPaymentOpts struct {
	PolicyID    string
	Amount      float64
	Method      PaymentMethod
	Status      *PaymentStatus
	Description *string
}

var InsertPaymentRules = govalidator.MapData{
	"policyId": []string{"required", "policy_uuid"},
	"amount":   []string{"payment_amount"},
	"method":   []string{"required", "payment_method"},
	"status":   []string{"payment_status"},
}

// NewInsertPaymentOpts converts a decoded JSON body into store input.
// An absent or null status is left unset.
func NewInsertPaymentOpts(body map[string]interface{}) (*InsertPaymentOpts, error) {
	policyID, ok := body["policyId"].(string)
	if !ok {
		return nil, NewValidationError("policyId", "should be a string")
	}
	amount, ok := body["amount"].(float64)
	if !ok {
		return nil, NewValidationError("amount", "is required and should be a number")
	}
	method, ok := body["method"].(string)
	if !ok {
		return nil, NewValidationError("method", "should be a string")
	}

	opts := &InsertPaymentOpts{
		PolicyID: policyID,
		Amount:   amount,
		Method:   PaymentMethod(method),
	}

	if raw := body["status"]; raw != nil {
		value, ok := raw.(string)
		if !ok {
			return nil, NewValidationError("status", "should be a string")
		}
		status := PaymentStatus(value)
		opts.Status = &status
	}

	if raw := body["description"]; raw != nil {
		description, ok := raw.(string)
		if !ok {
			return nil, NewValidationError("description", "should be a string")
		}
		opts.Description = &description
	}

	return opts, nil
}

type InsertPaymentResponse struct {
	ID string `json:"id"`
}

type GetPaymentsOpts struct {
	PolicyID string `schema:"policyId"`
	From     *int   `schema:"from"`
	Size     *int   `schema:"size"`
}

var GetPaymentsRules = govalidator.MapData{
	"policyId": []string{"required"},
	"from":     []string{"numeric"},
	"size":     []string{"numeric"},
}

type CountPaymentsOpts struct {
	PolicyIDs []string `json:"policyIds"`
}

// CountPaymentsRules leaves presence to the handler, govalidator's
// required rule rejects an empty list.
var CountPaymentsRules = govalidator.MapData{
	"policyIds": []string{"array_string"},
}
