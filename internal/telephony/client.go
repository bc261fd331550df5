package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the Twilio REST API directly over HTTP. We intentionally
// avoid the provider SDK; the two calls we make (send a message, fetch a
// recording) are plain REST.

const defaultAPIBase = "https://api.twilio.com/2010-04-01"

type Client struct {
	httpClient *http.Client
	apiBase    string

	accountSID string
	authToken  string
	fromNumber string
}

type ClientConfig struct {
	AccountSID string
	AuthToken  string
	// FromNumber is the service's phone number, used as the SMS sender.
	FromNumber string

	// APIBase overrides the Twilio endpoint, for tests.
	APIBase string
	Timeout time.Duration
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("telephony: account sid and auth token are required")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("telephony: from number is required")
	}
	base := cfg.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiBase:    strings.TrimRight(base, "/"),
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
	}, nil
}

// SendSMS delivers a text message. The returned error is nil only when Twilio
// accepted the message.
func (c *Client) SendSMS(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.apiBase, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telephony: sms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("telephony: sms rejected: %s", apiErrorMessage(resp.Body, resp.StatusCode))
	}
	return nil
}

// FetchRecording downloads call audio. Twilio recording URLs are returned
// without an extension; appending .mp3 selects the encoding.
func (c *Client) FetchRecording(ctx context.Context, recordingURL string) ([]byte, error) {
	u := recordingURL
	if !strings.HasSuffix(u, ".mp3") && !strings.HasSuffix(u, ".wav") {
		u += ".mp3"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telephony: recording fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telephony: recording fetch returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("telephony: recording read failed: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("telephony: recording is empty")
	}
	return data, nil
}

// apiErrorMessage extracts Twilio's error message from a failed response,
// falling back to the status code.
func apiErrorMessage(body io.Reader, status int) string {
	var payload struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4<<10)).Decode(&payload); err == nil && payload.Message != "" {
		return fmt.Sprintf("%s (code %d, status %d)", payload.Message, payload.Code, status)
	}
	return fmt.Sprintf("status %d", status)
}
