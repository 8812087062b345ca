package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// notReady gates readiness during shutdown; zero value means ready.
var notReady atomic.Bool

// SetReady toggles the process-wide readiness gate. Flip it to false before
// draining connections so load balancers stop routing new traffic.
func SetReady(ready bool) {
	notReady.Store(!ready)
}

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingMail(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker     Checker
	MailTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the shutdown gate and a mail transport probe.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if notReady.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}

	mailStatus := "ok"
	if err := h.Checker.PingMail(r.Context(), h.mailTimeout()); err != nil {
		mailStatus = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if mailStatus != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"mail": mailStatus})
}

func (h Handler) mailTimeout() time.Duration {
	if h.MailTimeout <= 0 {
		return 5 * time.Second
	}
	return h.MailTimeout
}
