package service

import (
	"context"

	"bitbucket.org/insurance/payments/db"
	"bitbucket.org/insurance/payments/helpers"
	"bitbucket.org/insurance/payments/models"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultFrom = 0
	DefaultSize = 10
)

type PolicyValidator interface {
	AssertExists(ctx context.Context, policyID string) error
}

// PaymentService checks the referenced policy before any payment is stored
// and shapes stored payments for the API.
type PaymentService struct {
	storage  db.PaymentStorage
	policies PolicyValidator
}

func NewPaymentService(storage db.PaymentStorage, policies PolicyValidator) *PaymentService {
	return &PaymentService{
		storage:  storage,
		policies: policies,
	}
}

// CreatePayment stores opts only after the policy was confirmed to exist.
// Invalid input is rejected before the policy service is asked. Validator
// errors are returned unchanged.
func (s *PaymentService) CreatePayment(ctx context.Context, opts *models.InsertPaymentOpts) (string, error) {
	if err := db.ValidateInsertPayment(opts); err != nil {
		return "", err
	}

	if err := s.policies.AssertExists(ctx, opts.PolicyID); err != nil {
		return "", err
	}

	id, err := s.storage.InsertPayment(ctx, opts)
	if err != nil {
		return "", err
	}

	helpers.LoggerFromContext(ctx).WithFields(log.Fields{
		"policy_id":  opts.PolicyID,
		"payment_id": id.String(),
	}).Info("payment created")

	return id.String(), nil
}

func (s *PaymentService) ListPayments(ctx context.Context, opts *models.GetPaymentsOpts) ([]models.PaymentView, error) {
	from, size := DefaultFrom, DefaultSize
	if opts.From != nil {
		from = *opts.From
	}
	if opts.Size != nil {
		size = *opts.Size
	}

	payments, err := s.storage.GetPaymentsByPolicyID(ctx, opts.PolicyID, from, size)
	if err != nil {
		return nil, err
	}

	views := make([]models.PaymentView, 0, len(payments))
	for _, payment := range payments {
		views = append(views, models.NewPaymentView(payment))
	}

	return views, nil
}

func (s *PaymentService) GetCounts(ctx context.Context, policyIDs []string) (map[string]int, error) {
	return s.storage.CountPaymentsByPolicyIDs(ctx, policyIDs)
}
