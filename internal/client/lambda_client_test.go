package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLambdaClient_SendReport_Success(t *testing.T) {
	t.Parallel()

	type gotReq struct {
		Method      string
		ContentType string
		Body        []byte
	}

	var captured gotReq

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.ContentType = r.Header.Get("Content-Type")

		b, _ := ioReadAll(r)
		captured.Body = b

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true,"message":"Email queued/sent successfully to ops@example.com"}`))
	}))
	defer srv.Close()

	c := NewLambdaClient(srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, err := c.SendReport(ctx, "org-1", []string{"ops@example.com"}, "sender@example.com", "Options Report - 1 Option Available", "OPTIONS REPORT")
	if err != nil {
		t.Fatalf("SendReport() error: %v", err)
	}
	if msg != "Email queued/sent successfully to ops@example.com" {
		t.Fatalf("unexpected message: %q", msg)
	}

	if captured.Method != http.MethodPost {
		t.Fatalf("expected method POST, got %q", captured.Method)
	}
	if captured.ContentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", captured.ContentType)
	}

	var req emailRequest
	if err := json.Unmarshal(captured.Body, &req); err != nil {
		t.Fatalf("failed to decode request json: %v body=%q", err, string(captured.Body))
	}
	if req.OrgID != "org-1" {
		t.Fatalf("expected orgId %q, got %q", "org-1", req.OrgID)
	}
	if len(req.To) != 1 || req.To[0] != "ops@example.com" {
		t.Fatalf("unexpected to list: %v", req.To)
	}
	if req.From != "sender@example.com" {
		t.Fatalf("expected from %q, got %q", "sender@example.com", req.From)
	}
	if req.Subject != "Options Report - 1 Option Available" {
		t.Fatalf("unexpected subject: %q", req.Subject)
	}
	if req.Body != "OPTIONS REPORT" {
		t.Fatalf("unexpected body: %q", req.Body)
	}
}

func TestLambdaClient_SendReport_SuccessVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		respBody string
		wantMsg  string
	}{
		{
			name:     "statusCode 200",
			respBody: `{"statusCode":200}`,
			wantMsg:  "Email sent successfully to a@example.com, b@example.com",
		},
		{
			name:     "statusCode 202",
			respBody: `{"statusCode":202}`,
			wantMsg:  "Email sent successfully to a@example.com, b@example.com",
		},
		{
			name:     "status string",
			respBody: `{"status":"success"}`,
			wantMsg:  "Email sent successfully to a@example.com, b@example.com",
		},
		{
			name:     "bare string body",
			respBody: "OK",
			wantMsg:  "Email sent successfully to a@example.com, b@example.com",
		},
		{
			name:     "success with message",
			respBody: `{"success":true,"message":"queued"}`,
			wantMsg:  "queued",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(tc.respBody))
			}))
			defer srv.Close()

			c := NewLambdaClient(srv.URL)

			msg, err := c.SendReport(context.Background(), "org-1", []string{"a@example.com", "b@example.com"}, "s@example.com", "subject", "body")
			if err != nil {
				t.Fatalf("SendReport() error: %v", err)
			}
			if msg != tc.wantMsg {
				t.Fatalf("expected message %q, got %q", tc.wantMsg, msg)
			}
		})
	}
}

func TestLambdaClient_SendReport_FailureBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		respBody string
		wantErr  string
	}{
		{
			name:     "error field",
			respBody: `{"success":false,"error":"SES rejected the message"}`,
			wantErr:  "email sending failed: SES rejected the message",
		},
		{
			name:     "errorMessage fallback",
			respBody: `{"success":false,"errorMessage":"recipient list empty"}`,
			wantErr:  "email sending failed: recipient list empty",
		},
		{
			name:     "message fallback",
			respBody: `{"success":false,"message":"throttled"}`,
			wantErr:  "email sending failed: throttled",
		},
		{
			name:     "unrecognized json",
			respBody: `{"foo":1}`,
			wantErr:  "email sending failed: unknown error from email function",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(tc.respBody))
			}))
			defer srv.Close()

			c := NewLambdaClient(srv.URL)

			_, err := c.SendReport(context.Background(), "org-1", []string{"a@example.com"}, "s@example.com", "subject", "body")
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error to contain %q, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestLambdaClient_SendReport_FunctionErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errorMessage":"Task timed out after 10.00 seconds","errorType":"Runtime.ExitError"}`))
	}))
	defer srv.Close()

	c := NewLambdaClient(srv.URL)

	_, err := c.SendReport(context.Background(), "org-1", []string{"a@example.com"}, "s@example.com", "subject", "body")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	want := "email function error (Runtime.ExitError): Task timed out after 10.00 seconds"
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to contain %q, got: %v", want, err)
	}
}

func TestLambdaClient_SendReport_Non2xxRawBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("Bad Gateway"))
	}))
	defer srv.Close()

	c := NewLambdaClient(srv.URL)

	_, err := c.SendReport(context.Background(), "org-1", []string{"a@example.com"}, "s@example.com", "subject", "body")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	msg := err.Error()
	if !strings.Contains(msg, "unexpected status code: 502") {
		t.Fatalf("expected error to mention status code, got: %v", err)
	}
	if !strings.Contains(msg, `body="Bad Gateway"`) {
		t.Fatalf("expected error to include body, got: %v", err)
	}
}

func TestLambdaClient_SendReport_NotConfigured(t *testing.T) {
	t.Parallel()

	c := NewLambdaClient("")

	_, err := c.SendReport(context.Background(), "org-1", []string{"a@example.com"}, "s@example.com", "subject", "body")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got: %v", err)
	}
}

func TestLambdaClient_SendReport_ContextCanceled(t *testing.T) {
	t.Parallel()

	// Server that intentionally blocks longer than our context deadline.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewLambdaClient(srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.SendReport(ctx, "org-1", []string{"a@example.com"}, "s@example.com", "subject", "body")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	// On cancellation, net/http returns context deadline exceeded.
	if !strings.Contains(strings.ToLower(err.Error()), "context") &&
		!strings.Contains(strings.ToLower(err.Error()), "deadline") {
		t.Fatalf("expected context/deadline error, got: %v", err)
	}
}

func ioReadAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}
