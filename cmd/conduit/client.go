// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// defaultHTTPClient is the package-level HTTP client used by gateway
// commands. Overridden in tests via httptest.
var defaultHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
}

// gatewayClient provides HTTP access to a running Conduit gateway.
type gatewayClient struct {
	baseURL string
	http    *http.Client
}

// newGatewayClient creates a client targeting the given host:port address.
func newGatewayClient(addr string) *gatewayClient {
	return &gatewayClient{
		baseURL: "http://" + addr,
		http:    defaultHTTPClient,
	}
}

// getJSON performs a GET request and decodes the JSON response into dest.
func (c *gatewayClient) getJSON(path string, dest any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return c.requestError(err)
	}
	return c.decodeJSON(resp, dest)
}

// postJSON performs a POST without a body and decodes the JSON response
// into dest.
func (c *gatewayClient) postJSON(path string, dest any) error {
	resp, err := c.http.Post(c.baseURL+path, "application/json", nil)
	if err != nil {
		return c.requestError(err)
	}
	return c.decodeJSON(resp, dest)
}

func (c *gatewayClient) requestError(err error) error {
	if isDialError(err) {
		return conduiterr.Wrap(err, conduiterr.CodeCLIGatewayNotRunning, "gateway is not running (connection refused)")
	}
	return conduiterr.Wrap(err, conduiterr.CodeCLIRequestFailure, "request failed")
}

func (c *gatewayClient) decodeJSON(resp *http.Response, dest any) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return conduiterr.Errorf(conduiterr.CodeCLIRequestFailure,
			"gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return conduiterr.Wrap(err, conduiterr.CodeCLIResponseInvalid, "invalid response")
	}
	return nil
}

// isDialError returns true if err is a net dial error (connection refused
// and friends).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
