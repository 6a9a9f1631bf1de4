package classifier

import (
	"context"
	"crypto/sha256"
	"math"
)

var demoLabels = []string{"Apple", "Banana", "Orange"}

// Demo is a deterministic stand-in for a real model: the same image bytes
// always yield the same fruit. It needs no weights or cloud credentials.
type Demo struct{}

// Classify hashes the image to pick a fruit.
func (Demo) Classify(_ context.Context, image []byte) ([]Prediction, error) {
	if len(image) == 0 {
		return nil, nil
	}
	sum := sha256.Sum256(image)
	idx := int(sum[0]) % len(demoLabels)
	confidence := math.Round((0.86+0.03*float64(idx))*100) / 100
	return []Prediction{{Label: demoLabels[idx], Confidence: confidence}}, nil
}
