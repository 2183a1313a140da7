// Package config defines the attreval configuration and its loading.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Loading and validation errors wrap this package's sentinels.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DatasetDir holds the default input and output tables.
	DatasetDir string `koanf:"dataset_dir"`

	// TestFile is the test table read by predict and sanity.
	TestFile string `koanf:"test_file"`

	// ResultsFile is the table scored by evaluate when no file is given.
	ResultsFile string `koanf:"results_file"`

	// OutputFile, FailFile and CombinedFile are written by predict.
	OutputFile   string `koanf:"output_file"`
	FailFile     string `koanf:"fail_file"`
	CombinedFile string `koanf:"combined_file"`

	// ImageDir receives downloaded images.
	ImageDir string `koanf:"image_dir"`

	// FetchImages enables image downloads before predicting.
	FetchImages       bool `koanf:"fetch_images"`
	FetchConcurrency  int  `koanf:"fetch_concurrency"`
	FetchAttempts     int  `koanf:"fetch_attempts"`
	FetchRetryDelayMS int  `koanf:"fetch_retry_delay_ms"`
	FetchTimeoutMS    int  `koanf:"fetch_timeout_ms"`

	// WorkerCount sets the number of prediction workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize bounds the set of image links already fetched.
	DedupeSize int `koanf:"dedupe_size"`

	// Predictor stub parameters.
	PredictorSeed     int64   `koanf:"predictor_seed"`
	PredictorHitRate  float64 `koanf:"predictor_hit_rate"`
	PredictorMinValue float64 `koanf:"predictor_min_value"`
	PredictorMaxValue float64 `koanf:"predictor_max_value"`

	// GroundTruthColumn and PredictionColumn name the scored columns.
	GroundTruthColumn string `koanf:"ground_truth_column"`
	PredictionColumn  string `koanf:"prediction_column"`

	// MissingMarkers replaces the default NA cell markers when set.
	MissingMarkers []string `koanf:"missing_markers"`

	// UnitVocabulary replaces the default attribute -> units map when set.
	UnitVocabulary map[string][]string `koanf:"unit_vocabulary"`

	// ScorePrecision is the number of decimals printed for scores.
	ScorePrecision int `koanf:"score_precision"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	const dataset = "dataset"
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		DatasetDir:        dataset,
		TestFile:          filepath.Join(dataset, "test.csv"),
		ResultsFile:       filepath.Join(dataset, "results.csv"),
		OutputFile:        filepath.Join(dataset, "test_out.csv"),
		FailFile:          filepath.Join(dataset, "test_fail.csv"),
		CombinedFile:      filepath.Join(dataset, "test_combined.csv"),
		ImageDir:          "temp_images",
		FetchImages:       false,
		FetchConcurrency:  16,
		FetchAttempts:     3,
		FetchRetryDelayMS: 3000,
		FetchTimeoutMS:    30_000,
		WorkerCount:       runtime.NumCPU(),
		QueueSize:         1024,
		DedupeSize:        100_000,
		PredictorSeed:     42,
		PredictorHitRate:  0.5,
		PredictorMinValue: 1,
		PredictorMaxValue: 100,
		GroundTruthColumn: "ground_truth",
		PredictionColumn:  "prediction",
		ScorePrecision:    4,
	}
}

// FetchRetryDelay returns the delay between download attempts.
func (c *Config) FetchRetryDelay() time.Duration {
	return time.Duration(c.FetchRetryDelayMS) * time.Millisecond
}

// FetchTimeout returns the per-request download timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.GroundTruthColumn == "" || c.PredictionColumn == "":
		return fmt.Errorf("%w: column names must not be empty", ErrInvalidConfig)
	case c.GroundTruthColumn == c.PredictionColumn:
		return fmt.Errorf("%w: ground truth and prediction columns must differ", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.FetchConcurrency < 1 || c.FetchAttempts < 1:
		return fmt.Errorf("%w: fetch_concurrency and fetch_attempts must be positive", ErrInvalidConfig)
	case c.FetchRetryDelayMS < 0 || c.FetchTimeoutMS < 0:
		return fmt.Errorf("%w: fetch delays must not be negative", ErrInvalidConfig)
	case c.PredictorHitRate < 0 || c.PredictorHitRate > 1:
		return fmt.Errorf("%w: predictor_hit_rate must be in [0,1], got %v", ErrInvalidConfig, c.PredictorHitRate)
	case c.PredictorMinValue >= c.PredictorMaxValue:
		return fmt.Errorf("%w: predictor_min_value must be below predictor_max_value", ErrInvalidConfig)
	case c.ScorePrecision < 0 || c.ScorePrecision > 12:
		return fmt.Errorf("%w: score_precision must be in [0,12], got %d", ErrInvalidConfig, c.ScorePrecision)
	}
	return nil
}
