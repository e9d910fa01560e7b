package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/erin-happyrobot/pepsi-options-emails/internal/cache"
	"github.com/erin-happyrobot/pepsi-options-emails/internal/model"
	"github.com/erin-happyrobot/pepsi-options-emails/internal/report"
)

type OptionsSource interface {
	OptionsForAvailableLoads(ctx context.Context, orgID string, now time.Time) ([]model.OptionDetail, error)
}

type ReportDispatcher interface {
	SendReport(ctx context.Context, orgID string, to []string, from, subject, body string) (string, error)
}

type SendGate interface {
	CanSend(now time.Time) (bool, string)
	RecordSent(now time.Time) error
}

const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Outcome is the result of one send attempt. Status is always one of the
// Status constants; OptionsCount is populated even for skipped and failed
// attempts so callers can report what would have been sent.
type Outcome struct {
	Status       string
	OptionsCount int
	Reason       string
	Message      string
	Detail       string
	Error        string
}

// Settings carries the send-time configuration. EmailTo and SenderEmail are
// validated here rather than at boot so the service can run without them.
type Settings struct {
	DefaultOrgID string
	EmailTo      string
	SenderEmail  string
}

// Sender owns one send attempt end to end: query, cooldown gate, render,
// dispatch, record. Attempts are serialized; scheduled runs skip instead of
// queueing behind a manual send.
type Sender struct {
	source     OptionsSource
	gate       SendGate
	dispatcher ReportDispatcher
	settings   Settings

	reports cache.ReportCache

	mu sync.Mutex
}

func NewSender(source OptionsSource, gate SendGate, dispatcher ReportDispatcher, settings Settings) *Sender {
	return &Sender{
		source:     source,
		gate:       gate,
		dispatcher: dispatcher,
		settings:   settings,
	}
}

// WithReportCache enables the best-effort last-report record.
func (s *Sender) WithReportCache(rc cache.ReportCache) *Sender {
	s.reports = rc
	return s
}

func (s *Sender) Send(ctx context.Context, orgID string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send(ctx, orgID)
}

// RunScheduled is the scheduler's tick callback. A manual send already in
// flight wins; the cycle is skipped rather than queued.
func (s *Sender) RunScheduled(ctx context.Context) {
	if !s.mu.TryLock() {
		slog.Info("scheduled send skipped; previous attempt still running")
		return
	}
	defer s.mu.Unlock()

	outcome, err := s.send(ctx, "")
	if err != nil {
		slog.Error("scheduled send failed", "error", err)
		return
	}

	switch outcome.Status {
	case StatusSuccess:
		slog.Info("scheduled send completed", "options_count", outcome.OptionsCount, "detail", outcome.Detail)
	case StatusError:
		slog.Error("scheduled send failed", "error", outcome.Error, "options_count", outcome.OptionsCount)
	}
}

func (s *Sender) send(ctx context.Context, orgID string) (Outcome, error) {
	if orgID == "" {
		orgID = s.settings.DefaultOrgID
	}
	if orgID == "" {
		return Outcome{}, errors.New("org id must be provided, either in the request or via ORG_ID")
	}

	now := time.Now().UTC()

	options, err := s.source.OptionsForAvailableLoads(ctx, orgID, now)
	if err != nil {
		return Outcome{}, fmt.Errorf("query options: %w", err)
	}

	if ok, reason := s.gate.CanSend(now); !ok {
		slog.Info("send blocked by cooldown", "reason", reason, "options_count", len(options))
		return Outcome{
			Status:       StatusSkipped,
			OptionsCount: len(options),
			Reason:       reason,
			Message:      "Email not sent due to cooldown period",
		}, nil
	}

	if s.settings.EmailTo == "" {
		return s.configError(len(options), "EMAIL_TO environment variable is not set"), nil
	}
	if s.settings.SenderEmail == "" {
		return s.configError(len(options), "SENDER_EMAIL environment variable is not set"), nil
	}
	recipients := splitRecipients(s.settings.EmailTo)
	if len(recipients) == 0 {
		return s.configError(len(options), "No valid email recipients found"), nil
	}

	subject := report.Subject(len(options))
	body := report.Text(options, now)

	detail, err := s.dispatcher.SendReport(ctx, orgID, recipients, s.settings.SenderEmail, subject, body)
	if err != nil {
		slog.Error("dispatch options report", "error", err, "options_count", len(options))
		return Outcome{
			Status:       StatusError,
			OptionsCount: len(options),
			Error:        err.Error(),
			Message:      "Failed to send email",
		}, nil
	}

	// A sent email that fails to persist its cooldown mark is still sent.
	if err := s.gate.RecordSent(now); err != nil {
		slog.Error("record cooldown state", "error", err)
	}

	if s.reports != nil {
		rec := cache.SentReport{
			Subject:     subject,
			Recipients:  recipients,
			OptionCount: len(options),
			SentAt:      now,
		}
		if err := s.reports.StoreLastReport(ctx, orgID, rec); err != nil {
			slog.Warn("store last report record", "error", err)
		}
	}

	slog.Info("options report sent",
		"org_id", orgID,
		"options_count", len(options),
		"recipients", len(recipients))

	return Outcome{
		Status:       StatusSuccess,
		OptionsCount: len(options),
		Message:      fmt.Sprintf("Email sent successfully with %d option(s)", len(options)),
		Detail:       detail,
	}, nil
}

// Preview is a rendered report that was never dispatched.
type Preview struct {
	Subject      string
	Text         string
	HTML         string
	OptionsCount int
}

// Preview renders the report a send would produce right now, without
// consulting the gate or dispatching anything.
func (s *Sender) Preview(ctx context.Context, orgID string) (Preview, error) {
	if orgID == "" {
		orgID = s.settings.DefaultOrgID
	}

	now := time.Now().UTC()

	options, err := s.source.OptionsForAvailableLoads(ctx, orgID, now)
	if err != nil {
		return Preview{}, fmt.Errorf("query options: %w", err)
	}

	return Preview{
		Subject:      report.Subject(len(options)),
		Text:         report.Text(options, now),
		HTML:         report.HTML(options, now),
		OptionsCount: len(options),
	}, nil
}

func (s *Sender) configError(optionsCount int, msg string) Outcome {
	slog.Error("send aborted by configuration", "error", msg, "options_count", optionsCount)
	return Outcome{
		Status:       StatusError,
		OptionsCount: optionsCount,
		Error:        msg,
		Message:      "Failed to send email",
	}
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
