// Package predict defines the predictor contract and a seeded random stub
// standing in for a real extraction model.
package predict

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/okian/attreval/internal/domain/units"
	"github.com/okian/attreval/pkg/logger"
)

const (
	defaultSeed     = 42
	defaultHitRate  = 0.5
	defaultMinValue = 1.0
	defaultMaxValue = 100.0
)

// Request identifies what to extract.
type Request struct {
	Index      string
	ImageLink  string
	GroupID    string
	EntityName string
}

// Predictor returns a predicted value for a request, or "" when it has no
// answer. An error is a predictor failure; callers treat it as "".
type Predictor interface {
	Predict(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to Predictor.
type Func func(ctx context.Context, req Request) (string, error)

// Predict implements Predictor.
func (f Func) Predict(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Fetcher retrieves images into a directory.
type Fetcher interface {
	FetchOne(ctx context.Context, uri, dir string) error
}

// Option configures a RandomPredictor.
type Option func(*RandomPredictor)

// WithSeed sets the base seed.
func WithSeed(seed int64) Option {
	return func(p *RandomPredictor) {
		p.seed = seed
	}
}

// WithHitRate sets the probability of producing a value. Values outside
// [0,1] are ignored.
func WithHitRate(rate float64) Option {
	return func(p *RandomPredictor) {
		if rate >= 0 && rate <= 1 {
			p.hitRate = rate
		}
	}
}

// WithValueRange sets the range numbers are drawn from.
func WithValueRange(minValue, maxValue float64) Option {
	return func(p *RandomPredictor) {
		if minValue < maxValue {
			p.minValue = minValue
			p.maxValue = maxValue
		}
	}
}

// WithFetcher makes the predictor fetch each image into dir first.
func WithFetcher(f Fetcher, dir string) Option {
	return func(p *RandomPredictor) {
		p.fetcher = f
		p.imageDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *RandomPredictor) {
		if l != nil {
			p.logger = l
		}
	}
}

// RandomPredictor picks a random permitted unit and value. Its output for a
// given item depends only on the seed and the item, so concurrent callers get
// reproducible results.
type RandomPredictor struct {
	vocab    units.Vocabulary
	seed     int64
	hitRate  float64
	minValue float64
	maxValue float64
	fetcher  Fetcher
	imageDir string
	logger   logger.Logger
}

// NewRandomPredictor creates a RandomPredictor over vocab.
func NewRandomPredictor(vocab units.Vocabulary, opts ...Option) *RandomPredictor {
	p := &RandomPredictor{
		vocab:    vocab,
		seed:     defaultSeed,
		hitRate:  defaultHitRate,
		minValue: defaultMinValue,
		maxValue: defaultMaxValue,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("predictor")
	}
	return p
}

// Predict implements Predictor.
func (p *RandomPredictor) Predict(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("predict %s: %w", req.Index, err)
	}

	if p.fetcher != nil && req.ImageLink != "" {
		if err := p.fetcher.FetchOne(ctx, req.ImageLink, p.imageDir); err != nil {
			p.logger.Warn(ctx, "image fetch failed",
				logger.String("index", req.Index),
				logger.String("imageLink", req.ImageLink),
				logger.Error(err),
			)
		}
	}

	allowed := p.vocab.Units(req.EntityName)
	rng := rand.New(rand.NewSource(p.itemSeed(req))) //nolint:gosec // reproducible stub output
	if rng.Float64() >= p.hitRate || len(allowed) == 0 {
		return "", nil
	}
	unit := allowed[rng.Intn(len(allowed))]
	value := p.minValue + rng.Float64()*(p.maxValue-p.minValue)
	return fmt.Sprintf("%.2f %s", value, unit), nil
}

func (p *RandomPredictor) itemSeed(req Request) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(req.Index))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(req.EntityName))
	return p.seed ^ int64(h.Sum64()) //nolint:gosec // wraparound is fine for a seed
}
