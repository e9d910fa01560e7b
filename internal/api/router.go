package api

import "net/http"

func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	// The bare POST / and POST /webhook aliases exist for callers wired to
	// the previous deployment of this service.
	mux.HandleFunc("POST /send-email", h.SendEmail)
	mux.HandleFunc("POST /webhook", h.SendEmail)
	mux.HandleFunc("POST /{$}", h.SendEmail)

	mux.HandleFunc("POST /scheduler/start", h.SchedulerStart)
	mux.HandleFunc("POST /scheduler/stop", h.SchedulerStop)
	mux.HandleFunc("GET /scheduler/status", h.SchedulerStatus)

	mux.HandleFunc("GET /report/preview", h.ReportPreview)

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pepsi-options-emails"))
	})

	return mux
}
