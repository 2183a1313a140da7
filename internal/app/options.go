package service

import (
	"github.com/okian/attreval/internal/adapters/sanity"
	"github.com/okian/attreval/internal/adapters/table"
	"github.com/okian/attreval/internal/config"
	"github.com/okian/attreval/internal/domain/predict"
	"github.com/okian/attreval/internal/domain/units"
	"github.com/okian/attreval/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration the service derives its defaults from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithWorkerCount sets the number of prediction workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the prediction job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithVocabulary replaces the unit vocabulary.
func WithVocabulary(v units.Vocabulary) Option {
	return func(s *Service) {
		if v.Len() > 0 {
			s.vocab = &v
		}
	}
}

// WithPredictor replaces the random predictor.
func WithPredictor(p predict.Predictor) Option {
	return func(s *Service) {
		if p != nil {
			s.predictor = p
		}
	}
}

// WithFetcher sets the image fetcher used when image fetching is enabled.
func WithFetcher(f ImageFetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithReader sets the table reader.
func WithReader(r *table.Reader) Option {
	return func(s *Service) {
		if r != nil {
			s.reader = r
		}
	}
}

// WithChecker sets the output sanity checker.
func WithChecker(c *sanity.Checker) Option {
	return func(s *Service) {
		if c != nil {
			s.checker = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
