package respond

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes payload with the given status. Encode failures go to log; the
// status line is already on the wire by then.
func JSON(w http.ResponseWriter, log logrus.FieldLogger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).WithField("status_code", status).Warn("encode response payload")
	}
}

// Error writes an error response with the shared body shape.
func Error(w http.ResponseWriter, log logrus.FieldLogger, status int, message string) {
	JSON(w, log, status, ErrorBody{Error: message})
}

// Unauthorized writes a 401 with a Bearer challenge.
func Unauthorized(w http.ResponseWriter, log logrus.FieldLogger, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	Error(w, log, http.StatusUnauthorized, message)
}
