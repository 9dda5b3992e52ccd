// Package client talks to the persistence API on behalf of the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"networth/internal/core"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Errors  core.ValidationErrors
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	if len(e.Errors) > 0 {
		msg += " (" + e.Errors.Error() + ")"
	}
	return msg
}

type HTTPClient struct {
	Base string
	HTTP *http.Client
}

func New(base string) *HTTPClient {
	return &HTTPClient{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{Timeout: defaultTimeout},
	}
}

// Push stores a calculation and returns the server record.
func (c *HTTPClient) Push(ctx context.Context, calc core.NewCalculation) (core.NetWorthCalculation, error) {
	var out core.NetWorthCalculation
	b, err := json.Marshal(calc)
	if err != nil {
		return out, fmt.Errorf("encode calculation: %w", err)
	}
	err = c.do(ctx, http.MethodPost, "/api/net-worth", bytes.NewReader(b), &out)
	return out, err
}

// Get fetches one stored calculation. An unknown id yields core.ErrNotFound.
func (c *HTTPClient) Get(ctx context.Context, id string) (core.NetWorthCalculation, error) {
	var out core.NetWorthCalculation
	err := c.do(ctx, http.MethodGet, "/api/net-worth/"+url.PathEscape(id), nil, &out)
	return out, err
}

// ListByUser returns the user's calculations in creation order.
func (c *HTTPClient) ListByUser(ctx context.Context, userID string) ([]core.NetWorthCalculation, error) {
	var out []core.NetWorthCalculation
	err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/net-worth", nil, &out)
	return out, err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var envelope struct {
			Message string                `json:"message"`
			Errors  core.ValidationErrors `json:"errors"`
		}
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil && envelope.Message != "" {
			apiErr.Message = envelope.Message
			apiErr.Errors = envelope.Errors
		}
		if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/api/net-worth/") {
			return fmt.Errorf("%w: %s", core.ErrNotFound, apiErr.Message)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsValidation reports whether err is a 400 with field errors.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}
