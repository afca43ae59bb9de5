package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const maxBodyBytes = 8 << 20

// Observer records call outcomes. Outcome is one of success, remote_error, timeout, transport, invalid.
type Observer interface {
	ObserveLedgerCall(action, outcome string, duration time.Duration)
}

// Config wires a Client.
type Config struct {
	URL        string
	Token      string
	HTTPClient *http.Client
	Logger     *zap.Logger
	Observer   Observer

	// QueryTimeout bounds Query calls whose context has no earlier deadline. Zero disables it.
	QueryTimeout time.Duration
}

// Client talks to the spreadsheet automation endpoint. Every call is a single attempt; deadlines
// come from the caller's context.
type Client struct {
	url          string
	token        string
	http         *http.Client
	logger       *zap.Logger
	observer     Observer
	queryTimeout time.Duration
}

// NewClient constructs a Client. A nil HTTPClient uses a client without its own timeout.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:          cfg.URL,
		token:        cfg.Token,
		http:         httpClient,
		logger:       logger,
		observer:     cfg.Observer,
		queryTimeout: cfg.QueryTimeout,
	}
}

// Send posts payload under action with the shared token merged in.
func (c *Client) Send(ctx context.Context, action string, payload interface{}) (*Response, error) {
	body, err := c.encode(action, payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, action, req)
}

// Query issues a read action as GET with the token and params in the query string.
func (c *Client) Query(ctx context.Context, action string, params url.Values) (*Response, error) {
	target, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("%w: parse url: %v", ErrTransport, err)
	}
	query := target.Query()
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	query.Set(fieldAction, action)
	query.Set(fieldToken, c.token)
	target.RawQuery = query.Encode()

	if c.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}

	return c.do(ctx, action, req)
}

func (c *Client) encode(action string, payload interface{}) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", action, err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("encode %s payload: payload must be a JSON object: %w", action, err)
		}
	}
	fields[fieldToken], _ = json.Marshal(c.token)
	fields[fieldAction], _ = json.Marshal(action)
	return json.Marshal(fields)
}

func (c *Client) do(ctx context.Context, action string, req *http.Request) (*Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		err = classifyTransportError(ctx, err)
		c.observe(action, outcomeOf(err), start)
		c.logger.Warn("ledger call failed", zap.String("action", action), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		err = classifyTransportError(ctx, err)
		c.observe(action, outcomeOf(err), start)
		return nil, err
	}

	out, skipped, err := decodeResponse(raw)
	if err != nil {
		c.observe(action, "invalid", start)
		c.logger.Warn("ledger returned a non JSON body",
			zap.String("action", action),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d: %v", ErrInvalidResponse, resp.StatusCode, err)
	}
	if len(skipped) > 0 {
		c.logger.Warn("ledger reply has malformed optional fields",
			zap.String("action", action),
			zap.Strings("fields", skipped),
		)
	}

	if !out.Success {
		message := out.Error
		if message == "" {
			message = out.Message
		}
		if message == "" && resp.StatusCode >= http.StatusBadRequest {
			message = http.StatusText(resp.StatusCode)
		}
		c.observe(action, "remote_error", start)
		return out, &RemoteError{Action: action, Message: message, StatusCode: resp.StatusCode}
	}

	c.observe(action, "success", start)
	return out, nil
}

func (c *Client) observe(action, outcome string, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveLedgerCall(action, outcome, time.Since(start))
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "invalid"
	}
}
