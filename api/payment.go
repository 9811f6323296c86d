package api

import (
	"net/http"

	"bitbucket.org/insurance/payments/config"
	"bitbucket.org/insurance/payments/middlewares"
	"bitbucket.org/insurance/payments/models"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
	"github.com/thedevsaddam/govalidator"
)

var queryDecoder = func() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder
}()

func InsertPayment(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{}
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.InsertPaymentRules,
		Data:    &body,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations.Message(r))
		return
	}

	opts, err := models.NewInsertPaymentOpts(body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	id, err := ctx.Payments.CreatePayment(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteJSON(http.StatusCreated, models.InsertPaymentResponse{ID: id}, nil, "")
}

func GetPayments(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.GetPaymentsRules,
	}
	v := govalidator.New(validatorOpts)
	errs := v.Validate()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations.Message(r))
		return
	}

	var opts models.GetPaymentsOpts
	if err := queryDecoder.Decode(&opts, r.URL.Query()); err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, middlewares.Responses.FailedValidations.Message(r))
		return
	}

	if (opts.From != nil && *opts.From < 0) || (opts.Size != nil && *opts.Size < 1) {
		w.WriteJSON(http.StatusBadRequest, nil, nil, middlewares.Responses.InvalidPagination.Message(r))
		return
	}

	payments, err := ctx.Payments.ListPayments(r.Context(), &opts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteJSON(http.StatusOK, payments, nil, "")
}

func CountPayments(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.CountPaymentsOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.CountPaymentsRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.WriteJSON(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations.Message(r))
		return
	}

	if opts.PolicyIDs == nil {
		w.WriteJSON(http.StatusBadRequest, nil, nil, middlewares.Responses.PolicyIDsRequired.Message(r))
		return
	}

	counts, err := ctx.Payments.GetCounts(r.Context(), opts.PolicyIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteJSON(http.StatusOK, counts, nil, "")
}

func writeServiceError(w *middlewares.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *models.ValidationError
		notFoundErr   *models.PolicyNotFoundError
		upstreamErr   *models.UpstreamUnavailableError
	)

	switch {
	case errors.As(err, &validationErr):
		w.WriteJSON(http.StatusBadRequest, map[string]interface{}{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		}, err, "")
	case errors.As(err, &notFoundErr):
		w.WriteJSON(http.StatusBadRequest, map[string]interface{}{
			"error":    middlewares.Responses.PolicyNotFound.Message(r),
			"policyId": notFoundErr.PolicyID,
		}, err, "")
	case errors.As(err, &upstreamErr):
		w.WriteJSON(http.StatusServiceUnavailable, map[string]interface{}{
			"error":    middlewares.Responses.PolicyUnavailable.Message(r),
			"policyId": upstreamErr.PolicyID,
		}, err, "")
	default:
		w.WriteJSON(http.StatusInternalServerError, nil, err, middlewares.Responses.InternalServerError.Message(r))
	}
}
