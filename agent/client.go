//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package agent provides the HTTP client for the agent under evaluation.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"trpc.group/trpc-go/goaleval/log"
)

// DefaultTimeout bounds a single agent query.
const DefaultTimeout = 300 * time.Second

// queryPath is the agent query endpoint.
const queryPath = "/v1/query"

// APIError reports a failure while talking to the agent service.
type APIError struct {
	// StatusCode is the HTTP status, zero for transport failures.
	StatusCode int
	// Message describes the failure.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("agent api error: %d - %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("agent api error: %s", e.Message)
}

// Client queries the agent service.
type Client struct {
	endpoint   string
	tokenFile  string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures the agent client.
type Option func(*Client)

// WithTimeout overrides the per-query timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithTokenFile reads a bearer token from the given file at construction time.
// A missing token file is a configuration error.
func WithTokenFile(path string) Option {
	return func(c *Client) {
		c.tokenFile = path
	}
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates an agent client for the given endpoint.
func NewClient(endpoint string, opt ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("agent endpoint is empty")
	}
	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
	}
	for _, o := range opt {
		o(c)
	}
	if c.tokenFile != "" {
		token, err := readTokenFile(c.tokenFile)
		if err != nil {
			return nil, err
		}
		c.token = token
	}
	return c, nil
}

// queryRequest is the agent query payload.
type queryRequest struct {
	Query          string `json:"query"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// queryResponse is the agent reply payload.
type queryResponse struct {
	Response *string `json:"response"`
}

// Query sends the query to the agent and returns the trimmed response text.
// The conversationID may be empty for standalone evaluations.
func (c *Client) Query(ctx context.Context, query, provider, model, conversationID string) (string, error) {
	body, err := json.Marshal(&queryRequest{
		Query:          query,
		Provider:       provider,
		Model:          model,
		ConversationID: conversationID,
	})
	if err != nil {
		return "", &APIError{Message: fmt.Sprintf("marshal query: %v", err)}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+queryPath, bytes.NewReader(body))
	if err != nil {
		return "", &APIError{Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &APIError{Message: fmt.Sprintf("agent query timeout after %s", c.timeout)}
		}
		return "", &APIError{Message: fmt.Sprintf("query agent: %v", err)}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{Message: fmt.Sprintf("read agent response: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	var parsed queryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &APIError{Message: fmt.Sprintf("decode agent response: %v", err)}
	}
	if parsed.Response == nil {
		return "", &APIError{Message: "agent response missing 'response' field"}
	}
	response := strings.TrimSpace(*parsed.Response)
	log.Debugf("Agent response >\n%s", response)
	return response, nil
}

// Close releases the client resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func readTokenFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file %s: %w", path, err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return token, nil
}
