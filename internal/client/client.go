// Package client calls a compile gateway over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/iliamunaev/compile-gateway/internal/model"
)

// DefaultGatewayURL is the gateway address used by the CLI.
const DefaultGatewayURL = "http://localhost:8080"

// ErrBadReply is returned when the gateway reply is not a compile outcome.
var ErrBadReply = errors.New("gateway reply is not a compile outcome")

// Client posts compile requests to a gateway.
type Client struct {
	endpoint string
	http     *http.Client
}

// New returns a Client for the gateway at baseURL.
// A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/compile",
		http:     httpClient,
	}
}

// Compile submits code and decodes the outcome.
//
// Any HTTP status is accepted as long as the body is an outcome. An error
// means no outcome could be obtained.
func (c *Client) Compile(ctx context.Context, code string) (model.Outcome, error) {
	payload, err := json.Marshal(model.CompileRequest{Code: code})
	if err != nil {
		return model.Outcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return model.Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Outcome{}, err
	}
	defer resp.Body.Close()

	var out model.Outcome
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.Outcome{}, fmt.Errorf("%w (status %d): %w", ErrBadReply, resp.StatusCode, err)
	}
	return out, nil
}
