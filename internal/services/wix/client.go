package wix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/logger"

	"github.com/cenkalti/backoff/v4"
)

const (
	productsPath       = "/stores/v3/products"
	sitePropertiesPath = "/business-info/v1/site-properties"
	maxResponseBytes   = 1 << 20
	defaultInitialWait = 500 * time.Millisecond
	defaultMaxWait     = config.RetryWaitCap
)

// Client talks to the Wix REST API. Credentials, timeout and retry count
// are read from the settings store on every call.
type Client struct {
	settings    *config.Store
	httpClient  *http.Client
	logger      *logger.Logger
	initialWait time.Duration
	maxWait     time.Duration
}

func NewClient(settings *config.Store, logger *logger.Logger) *Client {
	return &Client{
		settings:    settings,
		httpClient:  &http.Client{},
		logger:      logger,
		initialWait: defaultInitialWait,
		maxWait:     defaultMaxWait,
	}
}

// CreateProduct creates a product and returns its platform id.
func (c *Client) CreateProduct(ctx context.Context, product *Product) (*ProductResponse, error) {
	raw, err := c.do(ctx, http.MethodPost, productsPath, productEnvelope{Product: *product})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	resp, err := decodeProduct(raw)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("create product: %w", &RemoteError{StatusCode: raw.status, Detail: "response is missing the product id"})
	}
	return resp, nil
}

// UpdateProduct patches an existing product.
func (c *Client) UpdateProduct(ctx context.Context, productID string, product *Product) (*ProductResponse, error) {
	path := productsPath + "/" + url.PathEscape(productID)
	raw, err := c.do(ctx, http.MethodPatch, path, productEnvelope{Product: *product})
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", productID, err)
	}

	resp, err := decodeProduct(raw)
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", productID, err)
	}
	if resp.ID == "" {
		resp.ID = productID
	}
	return resp, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, productID string) (*ProductResponse, error) {
	path := productsPath + "/" + url.PathEscape(productID)
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}
	return decodeProduct(raw)
}

// TestConnection performs a read-only call that proves the credentials and
// the network path work.
func (c *Client) TestConnection(ctx context.Context) (*SiteProperties, error) {
	raw, err := c.do(ctx, http.MethodGet, sitePropertiesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("test connection: %w", err)
	}

	var props SiteProperties
	if len(bytes.TrimSpace(raw.body)) > 0 {
		if err := json.Unmarshal(raw.body, &props); err != nil {
			return nil, fmt.Errorf("test connection: failed to decode response: %w", err)
		}
	}
	props.StatusCode = raw.status
	return &props, nil
}

type rawResponse struct {
	status int
	body   []byte
}

// retryableError marks an attempt worth repeating.
type retryableError struct {
	status int
	err    error
}

func (e *retryableError) Error() string {
	if e.status != 0 {
		return fmt.Sprintf("status %d: %v", e.status, e.err)
	}
	return e.err.Error()
}

func (e *retryableError) Unwrap() error { return e.err }

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*rawResponse, error) {
	cfg := c.settings.Current()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	endpoint := cfg.BaseURL + path
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultTimeoutSeconds) * time.Second
	}
	retries := cfg.RetryAttempts
	if retries < 0 {
		retries = 0
	}

	attempts := 0
	var result *rawResponse
	operation := func() error {
		attempts++
		resp, err := c.attempt(ctx, cfg, method, endpoint, payload, timeout)
		if err != nil {
			return &retryableError{err: err}
		}

		switch {
		case resp.status >= 200 && resp.status < 300:
			result = resp
			return nil
		case resp.status == http.StatusTooManyRequests || resp.status >= 500:
			return &retryableError{status: resp.status, err: errors.New(errorDetail(resp.body))}
		default:
			return backoff.Permanent(classify(resp))
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialWait
	policy.MaxInterval = c.maxWait
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		requestRetries.WithLabelValues(method).Inc()
		c.logger.Warn("Wix %s %s failed (attempt %d), retrying in %s: %v", method, path, attempts, wait, err)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx), notify)
	if err == nil {
		return result, nil
	}

	var retryErr *retryableError
	if errors.As(err, &retryErr) {
		return nil, &TransientError{Attempts: attempts, StatusCode: retryErr.status, Err: retryErr.err}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &TransientError{Attempts: attempts, Err: ctxErr}
	}
	return nil, err
}

func (c *Client) attempt(ctx context.Context, cfg config.Integration, method, endpoint string, payload []byte, timeout time.Duration) (*rawResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("wix-site-id", cfg.SiteID)
	req.Header.Set("wix-account-id", cfg.AccountID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestDuration.WithLabelValues(method, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	requestDuration.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Wix %s %s -> %d", method, endpoint, resp.StatusCode)
	return &rawResponse{status: resp.StatusCode, body: body}, nil
}

func classify(resp *rawResponse) error {
	detail := errorDetail(resp.body)
	switch resp.status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &CredentialError{StatusCode: resp.status, Detail: detail}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &RemoteValidationError{StatusCode: resp.status, Detail: detail}
	default:
		return &RemoteError{StatusCode: resp.status, Detail: detail}
	}
}

func decodeProduct(raw *rawResponse) (*ProductResponse, error) {
	resp := &ProductResponse{StatusCode: raw.status, Body: string(raw.body)}
	if len(bytes.TrimSpace(raw.body)) == 0 {
		return resp, nil
	}

	var result productResult
	if err := json.Unmarshal(raw.body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	resp.ID = result.Product.ID
	resp.Name = result.Product.Name
	return resp, nil
}
