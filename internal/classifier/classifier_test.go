package classifier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticClassifier []Prediction

func (s staticClassifier) Classify(context.Context, []byte) ([]Prediction, error) {
	return s, nil
}

func TestLazy_LoadsOnceUnderConcurrency(t *testing.T) {
	var loads atomic.Int32
	gate := make(chan struct{})
	lazy := NewLazy(func(context.Context) (Classifier, error) {
		loads.Add(1)
		<-gate
		return staticClassifier{{Label: "apple", Confidence: 0.9}}, nil
	})

	var wg sync.WaitGroup
	results := make([][]Prediction, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			preds, err := lazy.Classify(context.Background(), []byte("img"))
			assert.NoError(t, err)
			results[i] = preds
		}(i)
	}
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for _, preds := range results {
		require.Len(t, preds, 1)
		assert.Equal(t, "apple", preds[0].Label)
	}
}

func TestLazy_SharesLoadFailure(t *testing.T) {
	var loads atomic.Int32
	lazy := NewLazy(func(context.Context) (Classifier, error) {
		loads.Add(1)
		return nil, errors.New("weights missing")
	})

	require.ErrorContains(t, lazy.Warm(context.Background()), "weights missing")
	_, err := lazy.Classify(context.Background(), []byte("img"))
	require.ErrorContains(t, err, "load classifier")
	assert.Equal(t, int32(1), loads.Load())
}

func TestLazy_LoadSurvivesCancelledTrigger(t *testing.T) {
	lazy := NewLazy(func(ctx context.Context) (Classifier, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return staticClassifier{}, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, lazy.Warm(ctx))
}

func TestDemo_IsDeterministic(t *testing.T) {
	img := []byte("\x89PNG fake image bytes")
	first, err := Demo{}.Classify(context.Background(), img)
	require.NoError(t, err)
	second, err := Demo{}.Classify(context.Background(), img)
	require.NoError(t, err)

	require.Len(t, first, 1)
	assert.Equal(t, first, second)
	assert.Contains(t, demoLabels, first[0].Label)
	assert.GreaterOrEqual(t, first[0].Confidence, 0.86)
	assert.LessOrEqual(t, first[0].Confidence, 0.92)

	empty, err := Demo{}.Classify(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

type fakeDetector struct {
	input *rekognition.DetectLabelsInput
	out   *rekognition.DetectLabelsOutput
	err   error
}

func (f *fakeDetector) DetectLabels(_ context.Context, in *rekognition.DetectLabelsInput, _ ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	f.input = in
	return f.out, f.err
}

func label(name string, confidence float32, parents ...string) types.Label {
	l := types.Label{Name: aws.String(name), Confidence: aws.Float32(confidence)}
	for _, p := range parents {
		l.Parents = append(l.Parents, types.Parent{Name: aws.String(p)})
	}
	return l
}

func TestRekognition_PrefersSpecificLabels(t *testing.T) {
	det := &fakeDetector{out: &rekognition.DetectLabelsOutput{Labels: []types.Label{
		label("Food", 99.5),
		label("Fruit", 99.1, "Food", "Plant"),
		label("Plant", 98),
		label("Banana", 91.2, "Fruit", "Food", "Plant"),
		label("Granny_Smith", 95, "Fruit", "Food", "Plant"),
	}}}
	c := NewRekognition(det, 0, 0.25)

	preds, err := c.Classify(context.Background(), []byte("img"))
	require.NoError(t, err)

	require.Len(t, preds, 2)
	assert.Equal(t, "Granny_Smith", preds[0].Label)
	assert.InDelta(t, 0.95, preds[0].Confidence, 1e-6)
	assert.Equal(t, "Banana", preds[1].Label)

	assert.Equal(t, int32(10), aws.ToInt32(det.input.MaxLabels))
	assert.InDelta(t, 25, aws.ToFloat32(det.input.MinConfidence), 1e-4)
	assert.Equal(t, []byte("img"), det.input.Image.Bytes)
}

func TestRekognition_WrapsErrors(t *testing.T) {
	c := NewRekognition(&fakeDetector{err: errors.New("throttled")}, 5, 0.5)
	_, err := c.Classify(context.Background(), []byte("img"))
	require.ErrorContains(t, err, "detect labels: throttled")
}

func TestRank_StableDescending(t *testing.T) {
	got := Rank([]Prediction{{"a", 0.1}, {"b", 0.9}, {"c", 0.5}, {"d", 0.9}})
	assert.Equal(t, []string{"b", "d", "c", "a"}, []string{got[0].Label, got[1].Label, got[2].Label, got[3].Label})
}
