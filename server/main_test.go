package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bitbucket.org/insurance/payments/config"
	"bitbucket.org/insurance/payments/middlewares"
	"bitbucket.org/insurance/payments/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery(t *testing.T) {
	handler := server.NewHandler(&config.AppContext{}, []*server.Route{
		{
			Path:    "/boom",
			Methods: []string{http.MethodGet},
			Handler: func(_ *config.AppContext, _ *middlewares.ResponseWriter, _ *http.Request) {
				panic("boom")
			},
		},
		{
			Path:    "/late-boom",
			Methods: []string{http.MethodGet},
			Handler: func(_ *config.AppContext, w *middlewares.ResponseWriter, _ *http.Request) {
				w.String(http.StatusCreated, "partial")
				panic("late boom")
			},
		},
	})

	t.Run("panic before writing answers 500", func(t *testing.T) {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/boom", nil))

		require.Equal(t, http.StatusInternalServerError, res.Code)
		var body struct {
			Success bool `json:"success"`
			Errors  []struct {
				Code  int    `json:"code"`
				Scope string `json:"scope"`
			} `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
		assert.False(t, body.Success)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, http.StatusInternalServerError, body.Errors[0].Code)
		assert.Equal(t, "server", body.Errors[0].Scope)
	})

	t.Run("panic after writing keeps the response", func(t *testing.T) {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/late-boom", nil))

		assert.Equal(t, http.StatusCreated, res.Code)
		assert.Equal(t, "partial", res.Body.String())
	})
}
