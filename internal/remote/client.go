package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain"
)

// API performs one HTTP verb against the remote collections. body is JSON
// encoded when non-nil; the response is decoded into out when non-nil.
type API interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

// Client is an API over net/http.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// NewClient returns a Client rooted at baseURL (e.g. http://localhost:3000).
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("remote: %s %s error=%v", method, path, err)
		return &domain.NetworkError{Method: method, Path: path, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}
	c.logger.Printf("remote: %s %s status=%d took=%s", method, path, resp.StatusCode, time.Since(start).Truncate(time.Millisecond))

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(method, path, resp.StatusCode, payload)
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &domain.NetworkError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err), Err: err}
	}
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusError(method, path string, status int, payload []byte) error {
	msg := ""
	var eb errorBody
	if json.Unmarshal(payload, &eb) == nil {
		msg = eb.Error
		if msg == "" {
			msg = eb.Message
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status code %d", status)
	}
	var cause error
	switch status {
	case http.StatusNotFound:
		cause = domain.ErrNotFound
	case http.StatusConflict:
		cause = domain.ErrAlreadyExists
	default:
		cause = errors.New(http.StatusText(status))
	}
	return &domain.NetworkError{Method: method, Path: path, StatusCode: status, Message: msg, Err: cause}
}
