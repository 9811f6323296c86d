package db

import (
	"context"
	"strings"

	"bitbucket.org/insurance/payments/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PaymentStorage interface {
	InsertPayment(ctx context.Context, opts *models.InsertPaymentOpts) (uuid.UUID, error)
	GetPaymentsByPolicyID(ctx context.Context, policyID string, offset int, limit int) ([]models.Payment, error)
	CountPaymentsByPolicyIDs(ctx context.Context, policyIDs []string) (map[string]int, error)
}

const (
	insertPayment = `
	INSERT INTO payment (
		id,
		policy_id,
		amount,
		payment_date,
		payment_method,
		status,
		description,
		created,
		updated
	) VALUES (
		:id,
		:policy_id,
		:amount,
		:payment_date,
		:payment_method,
		:status,
		:description,
		:created,
		:updated
	)
	`

	getPaymentsByPolicyID = `
	SELECT
		id,
		policy_id,
		amount,
		payment_date,
		payment_method,
		status,
		description,
		created,
		updated
	FROM
		payment
	WHERE
		policy_id = :policy_id
	ORDER BY
		payment_date DESC,
		id DESC
	LIMIT :limit OFFSET :offset
	`

	countPaymentsByPolicyIDs = `
	SELECT
		policy_id,
		COUNT(id) AS total
	FROM
		payment
	WHERE
		policy_id IN (:policy_ids)
	GROUP BY
		policy_id
	`
)

type policyCount struct {
	PolicyID string `db:"policy_id"`
	Total    int    `db:"total"`
}

// ValidateInsertPayment checks the field invariants of a new payment.
func ValidateInsertPayment(opts *models.InsertPaymentOpts) error {
	if opts == nil {
		return models.NewValidationError("payment", "is required")
	}
	if strings.TrimSpace(opts.PolicyID) == "" {
		return models.NewValidationError("policyId", "should not be empty")
	}
	if opts.Amount < 0 {
		return models.NewValidationError("amount", "should be greater than or equal to 0")
	}
	if !opts.Method.Valid() {
		return models.NewValidationError("method", "%q is not one of %v", opts.Method, models.PaymentMethods)
	}
	if opts.Status != nil && !opts.Status.Valid() {
		return models.NewValidationError("status", "%q is not one of %v", *opts.Status, models.PaymentStatuses)
	}
	return nil
}

func (db *DB) InsertPayment(ctx context.Context, opts *models.InsertPaymentOpts) (uuid.UUID, error) {
	if err := ValidateInsertPayment(opts); err != nil {
		return uuid.Nil, err
	}

	status := models.PaymentStatusPending
	if opts.Status != nil {
		status = *opts.Status
	}

	now := db.timestamp()
	payment := models.Payment{
		ID:          uuid.New(),
		PolicyID:    opts.PolicyID,
		Amount:      opts.Amount,
		Date:        now,
		Method:      opts.Method,
		Status:      status,
		Description: opts.Description,
		Created:     now,
		Updated:     now,
	}

	err := withTx(ctx, db, func(tx Tx) error {
		return db.insertPaymentTx(ctx, tx, &payment)
	})
	if err != nil {
		return uuid.Nil, err
	}

	return payment.ID, nil
}

func (db *DB) insertPaymentTx(ctx context.Context, tx Tx, payment *models.Payment) error {
	stmt, err := tx.PrepareNamedContext(ctx, insertPayment)
	if err != nil {
		return errors.Wrap(err, "failed to prepare payment insert")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, payment)
	if err != nil {
		return errors.Wrap(err, "failed to insert payment")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected != 1 {
		return errors.Errorf("expected %d and inserted %d", 1, rowsAffected)
	}

	return nil
}

func (db *DB) GetPaymentsByPolicyID(ctx context.Context, policyID string, offset int, limit int) ([]models.Payment, error) {
	if offset < 0 {
		return nil, models.NewValidationError("from", "should be greater than or equal to 0")
	}
	if limit < 1 {
		return nil, models.NewValidationError("size", "should be greater than or equal to 1")
	}

	stmt, err := db.PrepareNamedContext(ctx, getPaymentsByPolicyID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare payments query")
	}
	defer stmt.Close()

	args := map[string]interface{}{
		"policy_id": policyID,
		"limit":     limit,
		"offset":    offset,
	}

	payments := []models.Payment{}
	if err := stmt.SelectContext(ctx, &payments, args); err != nil {
		return nil, errors.Wrap(err, "failed to get payments")
	}

	return payments, nil
}

func (db *DB) CountPaymentsByPolicyIDs(ctx context.Context, policyIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(policyIDs))
	for _, id := range policyIDs {
		counts[id] = 0
	}

	if len(counts) == 0 {
		return counts, nil
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}

	query, nargs, err := sqlx.Named(countPaymentsByPolicyIDs, map[string]interface{}{
		"policy_ids": ids,
	})
	if err != nil {
		return nil, err
	}

	query, nargs, err = sqlx.In(query, nargs...)
	if err != nil {
		return nil, err
	}

	query = db.Rebind(query)

	rows, err := db.QueryxContext(ctx, query, nargs...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count payments")
	}
	defer rows.Close()

	for rows.Next() {
		var count policyCount
		if err := rows.StructScan(&count); err != nil {
			return nil, err
		}
		counts[count.PolicyID] = count.Total
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed reading payment counts")
	}

	return counts, nil
}
