package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kennethwltu/smspanel/internal/config"
)

// Response holds the gateway reply for a successful send
type Response struct {
	StatusCode int
	Body       string
}

// Client is the outbound seam to the SMS provider. Implementations must
// classify every failure as transient or permanent via the package sentinels.
type Client interface {
	Send(ctx context.Context, recipient, content string) (*Response, error)
}

// HTTPClient sends SMS through the provider's HTTP gateway
type HTTPClient struct {
	baseURL       string
	applicationID string
	senderNumber  string
	client        *http.Client
}

// NewHTTPClient creates a gateway client from the application configuration
func NewHTTPClient(cfg *config.Config) *HTTPClient {
	timeout := cfg.Gateway.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClient{
		baseURL:       cfg.Gateway.BaseURL,
		applicationID: cfg.Gateway.ApplicationID,
		senderNumber:  cfg.Gateway.SenderNumber,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send delivers one SMS to one recipient. Network failures, timeouts and
// gateway-side errors (5xx, 429) come back wrapped as transient; any other
// non-2xx status (malformed request, rejected number) is permanent.
func (c *HTTPClient) Send(ctx context.Context, recipient, content string) (*Response, error) {
	if recipient == "" {
		return nil, WrapPermanent(fmt.Errorf("recipient is required"))
	}
	if content == "" {
		return nil, WrapPermanent(fmt.Errorf("content is required"))
	}

	form := url.Values{}
	form.Set("application", c.applicationID)
	form.Set("mrt", recipient)
	form.Set("sender", c.senderNumber)
	form.Set("msg_utf8", content)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, WrapPermanent(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		// Connection refused, DNS failure, client timeout: all retryable
		return nil, WrapTransient(err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, WrapTransient(readErr)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}, nil
	}

	statusErr := fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, WrapTransient(statusErr)
	}
	return nil, WrapPermanent(statusErr)
}
