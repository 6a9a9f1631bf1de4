// Package detection runs the upload-and-analyse flow: classify the image,
// turn the best label into a food query and attach nutrition facts.
package detection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/fruit-scanner-be/internal/classifier"
	"github.com/hongminglow/fruit-scanner-be/internal/labels"
	"github.com/hongminglow/fruit-scanner-be/internal/models"
	"github.com/hongminglow/fruit-scanner-be/internal/nutrition"
	"github.com/hongminglow/fruit-scanner-be/internal/uploads"
)

var (
	// ErrInvalidImage rejects empty payloads and anything but JPEG or PNG.
	ErrInvalidImage = errors.New("image must be a non-empty JPEG or PNG")
	// ErrClassificationFailed means no usable label came back.
	ErrClassificationFailed = errors.New("could not recognise food in image")
	// ErrUpstreamUnavailable is the nutrition provider failing, not missing data.
	ErrUpstreamUnavailable = nutrition.ErrUpstreamUnavailable
)

// Result is the per-request answer. Nutrients is empty, never nil, when the
// food was recognised but the provider had no data for it.
type Result struct {
	Label       string                      `json:"label"`
	Confidence  float64                     `json:"confidence"`
	Query       string                      `json:"query"`
	MatchedFood string                      `json:"matched_food,omitempty"`
	Nutrients   map[string]nutrition.Amount `json:"nutrients"`
}

// Pipeline wires a classifier, the label resolver and a nutrition provider.
type Pipeline struct {
	classifier    classifier.Classifier
	provider      nutrition.Provider
	archive       uploads.Archive
	minConfidence float64
	log           logrus.FieldLogger
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithArchive stores every accepted image before classification.
func WithArchive(a uploads.Archive) Option {
	return func(p *Pipeline) { p.archive = a }
}

// WithMinConfidence drops predictions below min.
func WithMinConfidence(min float64) Option {
	return func(p *Pipeline) { p.minConfidence = min }
}

// NewPipeline constructs a Pipeline.
func NewPipeline(c classifier.Classifier, provider nutrition.Provider, log logrus.FieldLogger, opts ...Option) *Pipeline {
	p := &Pipeline{classifier: c, provider: provider, log: log.WithField("component", "detection")}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analyze runs the whole flow for an authenticated user.
func (p *Pipeline) Analyze(ctx context.Context, image []byte, user models.User) (Result, error) {
	contentType, err := sniffImage(image)
	if err != nil {
		return Result{}, err
	}
	log := p.log.WithField("user_id", user.ID)

	if p.archive != nil {
		if location, err := p.archive.Save(ctx, user.ID, image, contentType); err != nil {
			log.WithError(err).Warn("archive upload failed")
		} else {
			log.WithField("location", location).Debug("upload archived")
		}
	}

	preds, err := p.classify(ctx, image)
	if err != nil {
		log.WithError(err).Error("classifier failed")
		return Result{}, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}
	best, ok := p.best(preds)
	if !ok {
		return Result{}, ErrClassificationFailed
	}

	res := Result{
		Label:      best.Label,
		Confidence: best.Confidence,
		Query:      labels.Resolve(best.Label),
		Nutrients:  map[string]nutrition.Amount{},
	}
	log = log.WithFields(logrus.Fields{"label": res.Label, "confidence": res.Confidence, "query": res.Query})

	rec, err := p.lookup(ctx, res.Query)
	switch {
	case err == nil:
		res.MatchedFood = rec.FoodName
		res.Nutrients = rec.Nutrients()
		log.WithField("matched_food", rec.FoodName).Info("food analysed")
	case errors.Is(err, nutrition.ErrNotFound):
		log.Info("food analysed without nutrition match")
	case errors.Is(err, nutrition.ErrUpstreamUnavailable):
		log.WithError(err).Error("nutrition provider unavailable")
		return Result{}, err
	default:
		log.WithError(err).Error("nutrition lookup failed")
		return Result{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return res, nil
}

func (p *Pipeline) best(preds []classifier.Prediction) (classifier.Prediction, bool) {
	var (
		best  classifier.Prediction
		found bool
	)
	for _, pred := range preds {
		if strings.TrimSpace(pred.Label) == "" || pred.Confidence < p.minConfidence {
			continue
		}
		if !found || pred.Confidence > best.Confidence {
			best, found = pred, true
		}
	}
	return best, found
}

func (p *Pipeline) classify(ctx context.Context, image []byte) (preds []classifier.Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	return p.classifier.Classify(ctx, image)
}

func (p *Pipeline) lookup(ctx context.Context, query string) (rec nutrition.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: provider panic: %v", ErrUpstreamUnavailable, r)
		}
	}()
	return p.provider.Lookup(ctx, query)
}

// sniffImage accepts JPEG and PNG payloads by content, not by filename.
func sniffImage(image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrInvalidImage
	}
	switch ct := http.DetectContentType(image); ct {
	case "image/jpeg", "image/png":
		return ct, nil
	}
	return "", ErrInvalidImage
}
