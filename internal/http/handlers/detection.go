package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/fruit-scanner-be/internal/detection"
	"github.com/hongminglow/fruit-scanner-be/internal/http/respond"
	"github.com/hongminglow/fruit-scanner-be/internal/middleware"
	"github.com/hongminglow/fruit-scanner-be/internal/models"
)

// multipartOverhead leaves room for boundaries and part headers around the image.
const multipartOverhead = 64 << 10

// Analyzer runs the classify and nutrition lookup flow for one image.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, user models.User) (detection.Result, error)
}

// DetectionHandler accepts image uploads from authenticated users.
type DetectionHandler struct {
	analyzer Analyzer
	maxBytes int64
	log      logrus.FieldLogger
}

// NewDetectionHandler constructs the handler. maxBytes caps the image size.
func NewDetectionHandler(analyzer Analyzer, maxBytes int64, log logrus.FieldLogger) *DetectionHandler {
	return &DetectionHandler{analyzer: analyzer, maxBytes: maxBytes, log: log}
}

// Register attaches the upload routes, both behind requireUser.
func (h *DetectionHandler) Register(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	handler := requireUser(http.HandlerFunc(h.handleDetect))
	mux.Handle("POST /api/fruit-detection", handler)
	mux.Handle("POST /predict", handler)
}

func (h *DetectionHandler) handleDetect(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Unauthorized(w, h.log, "not authenticated")
		return
	}

	image, status, msg := h.readImage(w, r)
	if status != 0 {
		respond.Error(w, h.log, status, msg)
		return
	}

	log := h.log.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"request_id": middleware.RequestIDFrom(r.Context()),
	})
	result, err := h.analyzer.Analyze(r.Context(), image, user)
	if err != nil {
		respondDetectionError(w, log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, result)
}

// readImage pulls the upload from the "file" part, or "image" as a fallback.
// A non-zero status means the request was rejected.
func (h *DetectionHandler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, int, string) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		if isTooLarge(err) {
			return nil, http.StatusRequestEntityTooLarge, "image too large"
		}
		return nil, http.StatusBadRequest, "expected multipart/form-data with an image file"
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, err := openPart(r.MultipartForm, "file", "image")
	if err != nil {
		return nil, http.StatusBadRequest, "missing image file"
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		if isTooLarge(err) {
			return nil, http.StatusRequestEntityTooLarge, "image too large"
		}
		return nil, http.StatusBadRequest, "could not read image"
	}
	if int64(len(image)) > h.maxBytes {
		return nil, http.StatusRequestEntityTooLarge, "image too large"
	}
	return image, 0, ""
}

func openPart(form *multipart.Form, names ...string) (multipart.File, error) {
	for _, name := range names {
		if headers := form.File[name]; len(headers) > 0 {
			return headers[0].Open()
		}
	}
	return nil, http.ErrMissingFile
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge)
}
