package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/fruit-scanner-be/internal/detection"
	"github.com/hongminglow/fruit-scanner-be/internal/http/respond"
)

// respondDetectionError maps pipeline failures to statuses. The pipeline logs
// known failures itself; unknown errors are logged here and hidden behind a 500.
func respondDetectionError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, detection.ErrInvalidImage):
		respond.Error(w, log, http.StatusBadRequest, detection.ErrInvalidImage.Error())
	case errors.Is(err, detection.ErrClassificationFailed):
		respond.Error(w, log, http.StatusUnprocessableEntity, "could not identify the food in the image")
	case errors.Is(err, detection.ErrUpstreamUnavailable):
		respond.Error(w, log, http.StatusBadGateway, "nutrition service unavailable")
	default:
		log.WithError(err).Error("fruit detection failed")
		respond.Error(w, log, http.StatusInternalServerError, "internal server error")
	}
}
