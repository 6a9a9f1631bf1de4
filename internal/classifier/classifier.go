// Package classifier exposes image classification as a black-box capability:
// image bytes in, labels ranked by confidence out.
package classifier

import (
	"context"
	"sort"
)

// Prediction is one label with a confidence in [0, 1].
type Prediction struct {
	Label      string
	Confidence float64
}

// Classifier labels an image. Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, image []byte) ([]Prediction, error)
}

// Rank sorts predictions by descending confidence, keeping input order on ties.
func Rank(preds []Prediction) []Prediction {
	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Confidence > preds[j].Confidence
	})
	return preds
}
