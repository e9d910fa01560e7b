package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/erin-happyrobot/pepsi-options-emails/internal/scheduler"
	"github.com/erin-happyrobot/pepsi-options-emails/internal/service"
)

type SendService interface {
	Send(ctx context.Context, orgID string) (service.Outcome, error)
	Preview(ctx context.Context, orgID string) (service.Preview, error)
}

type Handler struct {
	svc              SendService
	sched            *scheduler.Scheduler
	gate             scheduler.CooldownChecker
	schedulerEnabled bool
}

func NewHandler(svc SendService, sched *scheduler.Scheduler, gate scheduler.CooldownChecker, schedulerEnabled bool) *Handler {
	return &Handler{
		svc:              svc,
		sched:            sched,
		gate:             gate,
		schedulerEnabled: schedulerEnabled,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type sendEmailRequest struct {
	OrgID string `json:"org_id"`
}

func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	// The body is optional; an absent or empty body means the default org.
	var req sendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	outcome, err := h.svc.Send(r.Context(), req.OrgID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	switch outcome.Status {
	case service.StatusSkipped:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        outcome.Status,
			"reason":        outcome.Reason,
			"options_count": outcome.OptionsCount,
			"message":       outcome.Message,
		})
	case service.StatusError:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":        outcome.Status,
			"options_count": outcome.OptionsCount,
			"error":         outcome.Error,
			"message":       outcome.Message,
		})
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        outcome.Status,
			"options_count": outcome.OptionsCount,
			"message":       outcome.Message,
			"detail":        outcome.Detail,
		})
	}
}

func (h *Handler) SchedulerStart(w http.ResponseWriter, r *http.Request) {
	if h.sched.IsRunning() {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "already_running",
			"message": "Scheduler is already running",
		})
		return
	}

	h.sched.Start()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "started",
		"message": fmt.Sprintf("Scheduler started with %d minute interval", int(h.sched.Interval().Minutes())),
	})
}

func (h *Handler) SchedulerStop(w http.ResponseWriter, r *http.Request) {
	if !h.sched.IsRunning() {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "not_running",
			"message": "Scheduler is not running",
		})
		return
	}

	h.sched.Stop()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "stopped",
		"message": "Scheduler stopped",
	})
}

func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	canSend, reason := h.gate.CanSend(time.Now().UTC())
	if canSend {
		reason = "Ready to send"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scheduler_running": h.sched.IsRunning(),
		"interval_minutes":  int(h.sched.Interval().Minutes()),
		"enabled":           h.schedulerEnabled,
		"cooldown_check": map[string]any{
			"can_send": canSend,
			"reason":   reason,
		},
	})
}

func (h *Handler) ReportPreview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.svc.Preview(r.Context(), r.URL.Query().Get("org_id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, preview.Text)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, preview.HTML)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
