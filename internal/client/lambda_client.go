package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured reports a send attempt without a function URL. Dispatch
// config is validated at send time so the service can boot without it.
var ErrNotConfigured = errors.New("lambda function url is not configured")

// LambdaClient posts rendered reports to the email-sending function's URL.
type LambdaClient struct {
	url    string
	client *http.Client
}

func NewLambdaClient(url string) *LambdaClient {
	return &LambdaClient{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 3 * time.Second,
				}).DialContext,
				// A fresh connection per invoke; the transport must never
				// replay this POST on a dead cached connection.
				DisableKeepAlives: true,
			},
		},
	}
}

type emailRequest struct {
	OrgID   string   `json:"orgId"`
	To      []string `json:"to"`
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

type emailResponse struct {
	Success      *bool  `json:"success"`
	StatusCode   int    `json:"statusCode"`
	Status       string `json:"status"`
	Message      string `json:"message"`
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
	ErrorType    string `json:"errorType"`
}

// SendReport invokes the email function once, with no retries, and returns
// its confirmation message.
func (c *LambdaClient) SendReport(ctx context.Context, orgID string, to []string, from, subject, body string) (string, error) {
	if c.url == "" {
		return "", fmt.Errorf("%w: set LAMBDA_FUNCTION_URL", ErrNotConfigured)
	}

	reqBody, err := json.Marshal(emailRequest{
		OrgID:   orgID,
		To:      to,
		From:    from,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("invoke email function: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var er emailResponse
	decoded := json.Unmarshal(respBody, &er) == nil

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decoded && (er.ErrorMessage != "" || er.ErrorType != "") {
			return "", fmt.Errorf("email function error (%s): %s",
				orDefault(er.ErrorType, "unknown"), firstNonEmpty(er.ErrorMessage, er.Error, er.Message))
		}
		return "", fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(respBody))
	}

	// Some deployments of the email function respond with a bare string.
	if !decoded {
		return fmt.Sprintf("Email sent successfully to %s", strings.Join(to, ", ")), nil
	}

	sent := (er.Success != nil && *er.Success) ||
		er.StatusCode == http.StatusOK ||
		er.StatusCode == http.StatusAccepted ||
		er.Status == "success"
	if !sent {
		return "", fmt.Errorf("email sending failed: %s",
			firstNonEmpty(er.Error, er.ErrorMessage, er.Message, "unknown error from email function"))
	}

	if er.Message != "" {
		return er.Message, nil
	}
	return fmt.Sprintf("Email sent successfully to %s", strings.Join(to, ", ")), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
