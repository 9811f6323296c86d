package middlewares

import (
	"encoding/json"
	"fmt"
	"net/http"

	"bitbucket.org/insurance/payments/helpers"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type ResponseWriter struct {
	Writer http.ResponseWriter
	Logger *log.Entry
}

func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{
		Writer: w,
		Logger: helpers.LoggerFromContext(r.Context()),
	}
}

type generalResponse struct {
	Errors  []*errorResponse `json:"errors"`
	Success bool             `json:"success"`
	Data    interface{}      `json:"data"`
}

type errorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Scope   string      `json:"scope"`
	Type    int         `json:"type"`
	Data    interface{} `json:"data"`
}

type ErrOption func(*errorResponse)

func WithErrorScope(scope string) ErrOption {
	return func(err *errorResponse) {
		err.Scope = scope
	}
}

func (r *ResponseWriter) logger() *log.Entry {
	if r.Logger == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return r.Logger
}

func (r *ResponseWriter) writeJSONResponse(code int, errors []*errorResponse, data interface{}) {
	response := &generalResponse{Errors: errors, Success: errors == nil, Data: data}
	r.writePlainJSONResponse(code, response)
}

func (r *ResponseWriter) writePlainJSONResponse(statusCode int, data interface{}) {
	b, err := json.Marshal(data)
	if err != nil {
		r.Writer.WriteHeader(http.StatusInternalServerError)
		r.Writer.Write([]byte(fmt.Sprintf("unexpected error: %v", err)))
		return
	}

	r.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	r.Writer.WriteHeader(statusCode)

	if _, err := r.Writer.Write(b); err != nil {
		r.logger().WithField("status_code", statusCode).Warn("could not write response")
	}
}

// WriteJSON writes data as the response body. Responses with a status of
// 300 or more are logged as errors, with message used when data is nil.
func (r *ResponseWriter) WriteJSON(statusCode int, data interface{}, err error, message string) {
	fields := make(log.Fields)
	fields["status_code"] = statusCode
	if statusCode >= 200 && statusCode <= 299 {
		r.logger().WithFields(fields).Info("success")
	}
	if statusCode >= 300 {
		if data == nil {
			data = map[string]interface{}{
				"error": message,
			}
		}
		if err == nil {
			err = errors.New(message)
		}
		fields["errors"] = data
		r.logger().WithFields(fields).Error(err)
	}
	r.writePlainJSONResponse(statusCode, data)
}

func (r *ResponseWriter) String(code int, msg string) {
	r.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	r.Writer.WriteHeader(code)
	if _, err := r.Writer.Write([]byte(msg)); err != nil {
		r.logger().WithField("status_code", code).Warn("could not write response")
	}
}

func (r *ResponseWriter) Error(code int, msg string, opts ...ErrOption) {
	err := &errorResponse{Code: code, Message: msg}
	for _, With := range opts {
		With(err)
	}
	r.writeJSONResponse(code, []*errorResponse{err}, nil)
}
