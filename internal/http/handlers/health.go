package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/fruit-scanner-be/internal/http/respond"
)

// HealthHandler reports liveness and uptime.
type HealthHandler struct {
	startedAt  time.Time
	classifier string
	log        logrus.FieldLogger
}

// NewHealthHandler creates a health endpoint handler. classifier names the
// configured backend and is echoed for operators.
func NewHealthHandler(startedAt time.Time, classifier string, log logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, classifier: classifier, log: log}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, h.log, http.StatusOK, map[string]string{
		"status":     "ok",
		"uptime":     time.Since(h.startedAt).Truncate(time.Second).String(),
		"classifier": h.classifier,
	})
}
