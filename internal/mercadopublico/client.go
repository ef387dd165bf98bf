// =============================================================================
// OC Harvester - HTTP Client Adapter
// =============================================================================
//
// Client performs GET requests with URL-encoded query parameters and decodes
// the JSON body. It never retries: any transport, timeout, status or decode
// problem is logged and returned to the caller, which owns the retry policy.
//
// TLS:
//   Certificate verification is on unless InsecureSkipVerify is set. The
//   flag exists for hosts that cannot validate the portal's certificate
//   chain and is announced with a WARN line whenever a client is built.
//
// =============================================================================

package mercadopublico

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hbsjo/oc-harvester/internal/logging"
	"github.com/hbsjo/oc-harvester/internal/metrics"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 32 << 20

// errNoBody is returned when the API answers with an empty or null body.
var errNoBody = errors.New("empty response body")

// ClientOptions configures a Client.
type ClientOptions struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	UserAgent          string

	// HTTPClient replaces the default client when set. Timeout and
	// InsecureSkipVerify are ignored in that case.
	HTTPClient *http.Client
}

// Client is the HTTP adapter for the Mercado Público API.
type Client struct {
	http      *http.Client
	userAgent string
	logger    logging.Logger
	metrics   *metrics.Registry
}

// NewClient builds a Client. logger and reg may be nil.
func NewClient(opts ClientOptions, logger logging.Logger, reg *metrics.Registry) *Client {
	if logger == nil {
		logger = logging.Nop()
	}

	hc := opts.HTTPClient
	if hc == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			logger.Warn("TLS certificate verification is DISABLED for the Mercado Público API (insecure_skip_verify=true)")
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
		}
		hc = &http.Client{Timeout: opts.Timeout, Transport: transport}
	}

	return &Client{
		http:      hc,
		userAgent: opts.UserAgent,
		logger:    logger,
		metrics:   reg,
	}
}

// GetJSON sends GET baseURL?params and decodes the body into out.
//
// PARAMETERS:
//   - endpoint: A short label used in metrics ("listing", "detail", ...).
//   - baseURL: The endpoint URL without query string.
//   - params: Query parameters.
//   - out: A pointer to decode into.
//
// RETURNS:
//   - nil on success.
//   - An error for any failure. The error has already been logged.
func (c *Client) GetJSON(ctx context.Context, endpoint, baseURL string, params url.Values, out any) error {
	full := baseURL + "?" + params.Encode()
	c.logger.Info("      GET %s", redact(baseURL, params))

	start := time.Now()
	err := c.get(ctx, full, out)
	c.metrics.ObserveRequest(endpoint, err == nil, time.Since(start))

	if err != nil {
		c.logger.Warn("      API request failed: %v", err)
		return err
	}
	return nil
}

func (c *Client) get(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return errNoBody
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// redact returns the request URL with the ticket masked.
func redact(baseURL string, params url.Values) string {
	masked := url.Values{}
	for k, v := range params {
		if k == "ticket" {
			masked.Set(k, "****")
			continue
		}
		masked[k] = v
	}
	return baseURL + "?" + masked.Encode()
}
