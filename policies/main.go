package policies

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bitbucket.org/insurance/payments/helpers"
	"bitbucket.org/insurance/payments/models"
	"github.com/pkg/errors"
)

const DefaultTimeout = 5 * time.Second

// Existence is the outcome of a policy lookup. Indeterminate means the
// policy service gave no usable answer and must not be read as either
// Exists or Absent.
type Existence int

const (
	Indeterminate Existence = iota
	Exists
	Absent
)

func (e Existence) String() string {
	switch e {
	case Exists:
		return "exists"
	case Absent:
		return "absent"
	default:
		return "indeterminate"
	}
}

type Client struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Timeout:    timeout,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) policyURL(policyID string) string {
	return fmt.Sprintf("%s/%s", c.BaseURL, url.PathEscape(policyID))
}

// Lookup asks the policy service whether policyID exists. The returned
// error is non-nil only for Indeterminate and describes what was observed.
func (c *Client) Lookup(ctx context.Context, policyID string) (Existence, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	logger := helpers.LoggerFromContext(ctx).WithField("policy_id", policyID)
	target := c.policyURL(policyID)
	logger.WithField("url", target).Debug("validating policy existence")

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		logger.WithField("error", err).Error("failed building policy service request")
		return Indeterminate, &models.UpstreamUnavailableError{PolicyID: policyID, Err: err}
	}

	response, err := c.HTTPClient.Do(request)
	if err != nil {
		logger.WithField("error", err).Error("failed calling policy service")
		return Indeterminate, &models.UpstreamUnavailableError{
			PolicyID: policyID,
			Err:      errors.Wrap(err, "failed calling policy service"),
		}
	}
	defer response.Body.Close()
	io.Copy(ioutil.Discard, response.Body)

	switch {
	case response.StatusCode >= 200 && response.StatusCode <= 299:
		logger.Debug("policy exists")
		return Exists, nil
	case response.StatusCode == http.StatusNotFound:
		logger.Debug("policy not found")
		return Absent, nil
	}

	logger.WithField("status_code", response.StatusCode).Warn("unexpected response status from policy service")
	return Indeterminate, &models.UpstreamUnavailableError{
		PolicyID:   policyID,
		StatusCode: response.StatusCode,
	}
}

// AssertExists returns nil when the policy exists, a PolicyNotFoundError
// when it is confirmed absent and an UpstreamUnavailableError otherwise.
func (c *Client) AssertExists(ctx context.Context, policyID string) error {
	existence, err := c.Lookup(ctx, policyID)
	switch existence {
	case Exists:
		return nil
	case Absent:
		return &models.PolicyNotFoundError{PolicyID: policyID}
	}

	if err == nil {
		err = &models.UpstreamUnavailableError{PolicyID: policyID}
	}
	return err
}
