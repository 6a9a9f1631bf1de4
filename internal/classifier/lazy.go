package classifier

import (
	"context"
	"fmt"
	"sync"
)

// Loader builds the underlying classifier. It runs at most once per Lazy.
type Loader func(ctx context.Context) (Classifier, error)

// Lazy defers the expensive load until the first Classify call. Concurrent
// first callers wait for the same single load and share its outcome,
// including a failure.
type Lazy struct {
	load Loader

	once  sync.Once
	inner Classifier
	err   error
}

// NewLazy wraps load.
func NewLazy(load Loader) *Lazy {
	return &Lazy{load: load}
}

// Warm triggers the load without classifying anything.
func (l *Lazy) Warm(ctx context.Context) error {
	_, err := l.get(ctx)
	return err
}

// Classify loads the classifier if needed and delegates to it.
func (l *Lazy) Classify(ctx context.Context, image []byte) ([]Prediction, error) {
	inner, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return inner.Classify(ctx, image)
}

func (l *Lazy) get(ctx context.Context) (Classifier, error) {
	l.once.Do(func() {
		// The load outlives the request that happened to trigger it.
		l.inner, l.err = l.load(context.WithoutCancel(ctx))
		if l.err != nil {
			l.err = fmt.Errorf("load classifier: %w", l.err)
		}
	})
	return l.inner, l.err
}
