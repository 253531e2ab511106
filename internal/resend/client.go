// Package resend is a minimal client for the parts of the Resend REST API the
// MCP tools use: sending an email and listing audiences.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.resend.com"
	userAgent      = "resend-mcp-http-server/1.0"
	maxErrorBody   = 64 << 10
)

// EmailRequest is the payload of POST /emails.
type EmailRequest struct {
	From        string   `json:"from"`
	To          string   `json:"to"`
	Subject     string   `json:"subject"`
	Text        string   `json:"text"`
	HTML        string   `json:"html,omitempty"`
	ReplyTo     []string `json:"reply_to,omitempty"`
	ScheduledAt string   `json:"scheduled_at,omitempty"`
	CC          []string `json:"cc,omitempty"`
	BCC         []string `json:"bcc,omitempty"`
}

type SendEmailResponse struct {
	ID string `json:"id"`
}

type Audience struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type ListAudiencesResponse struct {
	Object string     `json:"object"`
	Data   []Audience `json:"data"`
}

// APIError is the structured failure Resend returns in a non-2xx response body.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("resend: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("resend: %d %s: %s", e.StatusCode, e.Name, e.Message)
}

type Client struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewClient(apiKey string, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) SendEmail(ctx context.Context, req EmailRequest) (SendEmailResponse, error) {
	var out SendEmailResponse
	if err := c.do(ctx, http.MethodPost, "/emails", req, &out); err != nil {
		return SendEmailResponse{}, err
	}
	return out, nil
}

func (c *Client) ListAudiences(ctx context.Context) (ListAudiencesResponse, error) {
	var out ListAudiencesResponse
	if err := c.do(ctx, http.MethodGet, "/audiences", nil, &out); err != nil {
		return ListAudiencesResponse{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method string, path string, payload any, out any) error {
	if c.APIKey == "" {
		return errors.New("resend api key not configured")
	}
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("resend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("resend %s %s: decode response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Name = "application_error"
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	if apiErr.StatusCode == 0 {
		apiErr.StatusCode = resp.StatusCode
	}
	return apiErr
}
