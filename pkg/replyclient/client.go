package replyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/coach/pkg/security"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultPath    = "/api/chat"

	// error bodies are only kept for diagnostics
	maxErrorBodyLen = 512
)

// Client performs the single "generate reply" operation against the reply service.
// It keeps no state between calls besides the underlying http.Client.
type Client struct {
	baseURL         string
	path            string
	httpClient      *http.Client
	allowRemoteHTTP bool
}

type Option func(*Client)

// WithHTTPClient replaces the transport. No timeout is added by this package.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func WithPath(path string) Option {
	return func(client *Client) {
		client.path = path
	}
}

// WithAllowRemoteHTTP permits a plain http base URL naming a remote host.
func WithAllowRemoteHTTP(allow bool) Option {
	return func(client *Client) {
		client.allowRemoteHTTP = allow
	}
}

func New(baseURL string, options ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	ret := &Client{
		path:       DefaultPath,
		httpClient: http.DefaultClient,
	}
	for _, o := range options {
		o(ret)
	}

	u, err := security.ValidateOutboundURL(baseURL, security.OutboundURLOptions{
		AllowRemoteHTTP: ret.allowRemoteHTTP,
	})
	if err != nil {
		return nil, errors.Wrap(err, "invalid reply service url")
	}
	ret.baseURL = strings.TrimRight(u.String(), "/")

	if !strings.HasPrefix(ret.path, "/") {
		ret.path = "/" + ret.path
	}

	return ret, nil
}

func (c *Client) Endpoint() string {
	return c.baseURL + c.path
}

// GenerateReply sends message and returns the reply text.
//
// Every failure is returned as an *Error carrying its Kind.
func (c *Client) GenerateReply(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(ReplyRequest{Message: message})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", transportError(errors.Wrap(err, "failed to create request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(errors.Wrap(err, "failed to read response body"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(resp.StatusCode, truncate(string(body), maxErrorBodyLen))
	}

	if err := ValidateResponse(body); err != nil {
		return "", malformedError(resp.StatusCode, err)
	}

	var result ReplyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", malformedError(resp.StatusCode, errors.Wrap(err, "failed to decode response"))
	}

	return result.Reply, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
