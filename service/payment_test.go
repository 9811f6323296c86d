package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitbucket.org/insurance/payments/db"
	"bitbucket.org/insurance/payments/models"
	"bitbucket.org/insurance/payments/policies"
	"bitbucket.org/insurance/payments/service"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const policyID = "5b0f7f5e-2a4c-4f0e-8f5a-3c9e1d2b7a10"

type validatorMock struct {
	err   error
	calls []string
}

func (v *validatorMock) AssertExists(_ context.Context, policyID string) error {
	v.calls = append(v.calls, policyID)
	return v.err
}

type storageMock struct {
	inserted []*models.InsertPaymentOpts
	payments []models.Payment
	counts   map[string]int
	err      error

	lastOffset, lastLimit int
}

func (s *storageMock) InsertPayment(_ context.Context, opts *models.InsertPaymentOpts) (uuid.UUID, error) {
	if s.err != nil {
		return uuid.Nil, s.err
	}
	s.inserted = append(s.inserted, opts)
	return uuid.New(), nil
}

func (s *storageMock) GetPaymentsByPolicyID(_ context.Context, _ string, offset int, limit int) ([]models.Payment, error) {
	s.lastOffset, s.lastLimit = offset, limit
	if s.err != nil {
		return nil, s.err
	}
	return s.payments, nil
}

func (s *storageMock) CountPaymentsByPolicyIDs(_ context.Context, _ []string) (map[string]int, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.counts, nil
}

func TestCreatePayment(t *testing.T) {
	ctx := context.Background()
	opts := &models.InsertPaymentOpts{
		PolicyID: policyID,
		Amount:   1500,
		Method:   models.PaymentMethodCreditCard,
	}

	t.Run("stores after the policy is confirmed", func(t *testing.T) {
		validator := &validatorMock{}
		storage := &storageMock{}

		id, err := service.NewPaymentService(storage, validator).CreatePayment(ctx, opts)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		assert.Equal(t, []string{policyID}, validator.calls)
		require.Len(t, storage.inserted, 1)
		assert.Same(t, opts, storage.inserted[0])
	})

	t.Run("policy not found skips the store", func(t *testing.T) {
		validator := &validatorMock{err: &models.PolicyNotFoundError{PolicyID: policyID}}
		storage := &storageMock{}

		_, err := service.NewPaymentService(storage, validator).CreatePayment(ctx, opts)
		var notFound *models.PolicyNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, policyID, notFound.PolicyID)
		assert.Empty(t, storage.inserted)
	})

	t.Run("upstream failure propagates unchanged", func(t *testing.T) {
		upstreamErr := &models.UpstreamUnavailableError{PolicyID: policyID, StatusCode: http.StatusBadGateway}
		validator := &validatorMock{err: upstreamErr}
		storage := &storageMock{}

		_, err := service.NewPaymentService(storage, validator).CreatePayment(ctx, opts)
		assert.Same(t, upstreamErr, err)

		var notFound *models.PolicyNotFoundError
		assert.False(t, errors.As(err, &notFound))
		assert.Empty(t, storage.inserted)
	})

	t.Run("invalid input is rejected before the policy check", func(t *testing.T) {
		validator := &validatorMock{err: &models.PolicyNotFoundError{PolicyID: policyID}}
		storage := &storageMock{}

		_, err := service.NewPaymentService(storage, validator).CreatePayment(ctx, &models.InsertPaymentOpts{
			PolicyID: policyID,
			Amount:   -0.01,
			Method:   models.PaymentMethodCash,
		})
		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "amount", validationErr.Field)
		assert.Empty(t, validator.calls)
		assert.Empty(t, storage.inserted)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		storage := &storageMock{err: errors.New("database is gone")}

		_, err := service.NewPaymentService(storage, &validatorMock{}).CreatePayment(ctx, opts)
		assert.EqualError(t, err, "database is gone")
	})
}

func TestListPayments(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	description := "monthly"
	payment := models.Payment{
		ID:          uuid.MustParse("2f1b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"),
		PolicyID:    policyID,
		Amount:      250.5,
		Date:        created,
		Method:      models.PaymentMethodOnline,
		Status:      models.PaymentStatusCompleted,
		Description: &description,
		Created:     created,
		Updated:     created,
	}

	t.Run("applies pagination defaults", func(t *testing.T) {
		storage := &storageMock{payments: []models.Payment{payment}}

		views, err := service.NewPaymentService(storage, &validatorMock{}).ListPayments(ctx, &models.GetPaymentsOpts{PolicyID: policyID})
		require.NoError(t, err)
		assert.Equal(t, service.DefaultFrom, storage.lastOffset)
		assert.Equal(t, service.DefaultSize, storage.lastLimit)

		require.Len(t, views, 1)
		assert.Equal(t, models.PaymentView{
			ID:          "2f1b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d",
			PolicyID:    policyID,
			Amount:      250.5,
			Date:        created,
			Method:      models.PaymentMethodOnline,
			Status:      models.PaymentStatusCompleted,
			Description: &description,
			CreatedAt:   created,
			UpdatedAt:   created,
		}, views[0])
	})

	t.Run("forwards explicit pagination without an upper bound", func(t *testing.T) {
		storage := &storageMock{}
		from, size := 20, 5000

		views, err := service.NewPaymentService(storage, &validatorMock{}).ListPayments(ctx, &models.GetPaymentsOpts{
			PolicyID: policyID,
			From:     &from,
			Size:     &size,
		})
		require.NoError(t, err)
		assert.NotNil(t, views)
		assert.Empty(t, views)
		assert.Equal(t, 20, storage.lastOffset)
		assert.Equal(t, 5000, storage.lastLimit)
	})

	t.Run("store failure is not an empty result", func(t *testing.T) {
		storage := &storageMock{err: errors.New("timeout")}

		views, err := service.NewPaymentService(storage, &validatorMock{}).ListPayments(ctx, &models.GetPaymentsOpts{PolicyID: policyID})
		assert.Error(t, err)
		assert.Nil(t, views)
	})
}

func TestGetCounts(t *testing.T) {
	storage := &storageMock{counts: map[string]int{"A": 3, "B": 0}}

	counts, err := service.NewPaymentService(storage, &validatorMock{}).GetCounts(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 3, "B": 0}, counts)
}

func newSQLiteStorage(t *testing.T) (*db.DB, *sqlx.DB) {
	t.Helper()

	conn, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	storage, err := db.New(conn)
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(context.Background()))

	return storage, conn
}

func TestPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	policyService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/policies/" + policyID:
			w.WriteHeader(http.StatusOK)
		case "/policies/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer policyService.Close()

	storage, conn := newSQLiteStorage(t)
	srv := service.NewPaymentService(storage, policies.New(policyService.URL+"/policies", time.Second))

	start := time.Now().UTC().Truncate(time.Microsecond)
	id, err := srv.CreatePayment(ctx, &models.InsertPaymentOpts{
		PolicyID: policyID,
		Amount:   1500,
		Method:   models.PaymentMethodCreditCard,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	views, err := srv.ListPayments(ctx, &models.GetPaymentsOpts{PolicyID: policyID})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, id, views[0].ID)
	assert.Equal(t, models.PaymentStatusPending, views[0].Status)
	assert.Equal(t, 1500.0, views[0].Amount)
	assert.False(t, views[0].Date.Before(start))

	_, err = srv.CreatePayment(ctx, &models.InsertPaymentOpts{
		PolicyID: "e7c1a0f2-0000-4000-8000-000000000000",
		Amount:   10,
		Method:   models.PaymentMethodCash,
	})
	var notFound *models.PolicyNotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = srv.CreatePayment(ctx, &models.InsertPaymentOpts{
		PolicyID: "broken",
		Amount:   10,
		Method:   models.PaymentMethodCash,
	})
	var upstreamErr *models.UpstreamUnavailableError
	assert.ErrorAs(t, err, &upstreamErr)

	_, err = srv.CreatePayment(ctx, &models.InsertPaymentOpts{
		PolicyID: policyID,
		Amount:   -1,
		Method:   models.PaymentMethodCash,
	})
	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	var total int
	require.NoError(t, conn.Get(&total, "SELECT COUNT(*) FROM payment"))
	assert.Equal(t, 1, total)

	counts, err := srv.GetCounts(ctx, []string{policyID, "broken"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{policyID: 1, "broken": 0}, counts)
}
