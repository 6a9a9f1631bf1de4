package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// LabelDetector is the slice of the Rekognition API used here.
type LabelDetector interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Rekognition classifies images with AWS Rekognition DetectLabels.
type Rekognition struct {
	client        LabelDetector
	maxLabels     int32
	minConfidence float32
}

// NewRekognition wraps a DetectLabels client. minConfidence is in [0, 1].
func NewRekognition(client LabelDetector, maxLabels int32, minConfidence float64) *Rekognition {
	if maxLabels <= 0 {
		maxLabels = 10
	}
	return &Rekognition{client: client, maxLabels: maxLabels, minConfidence: float32(minConfidence * 100)}
}

// RekognitionLoader resolves AWS credentials for region and builds the client.
func RekognitionLoader(region string, minConfidence float64) Loader {
	return func(ctx context.Context) (Classifier, error) {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return NewRekognition(rekognition.NewFromConfig(cfg), 10, minConfidence), nil
	}
}

// Classify returns the most specific labels first. Labels that only appear as
// a parent of another returned label ("Fruit" for "Apple") are dropped.
func (r *Rekognition) Classify(ctx context.Context, image []byte) ([]Prediction, error) {
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(r.maxLabels),
		MinConfidence: aws.Float32(r.minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}

	parents := make(map[string]bool)
	for _, l := range out.Labels {
		for _, p := range l.Parents {
			parents[strings.ToLower(aws.ToString(p.Name))] = true
		}
	}

	preds := make([]Prediction, 0, len(out.Labels))
	for _, l := range out.Labels {
		name := aws.ToString(l.Name)
		if name == "" || parents[strings.ToLower(name)] {
			continue
		}
		preds = append(preds, Prediction{Label: name, Confidence: float64(aws.ToFloat32(l.Confidence)) / 100})
	}
	return Rank(preds), nil
}
