// Package service wires the table adapter, normalizer, scorers and the
// prediction pipeline into the operations used by the CLI and HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/attreval/internal/adapters/fetcher"
	"github.com/okian/attreval/internal/adapters/mq/queue"
	"github.com/okian/attreval/internal/adapters/mq/worker"
	"github.com/okian/attreval/internal/adapters/sanity"
	"github.com/okian/attreval/internal/adapters/table"
	"github.com/okian/attreval/internal/config"
	"github.com/okian/attreval/internal/domain/dedupe"
	"github.com/okian/attreval/internal/domain/model"
	"github.com/okian/attreval/internal/domain/normalize"
	"github.com/okian/attreval/internal/domain/predict"
	"github.com/okian/attreval/internal/domain/scoring"
	"github.com/okian/attreval/internal/domain/units"
	"github.com/okian/attreval/pkg/logger"
	"github.com/okian/attreval/pkg/metrics"
)

// Inputs at or above this size are counted on partitions in parallel.
const parallelThreshold = 50_000

const dirPermission = 0o750

// ImageFetcher downloads a batch of images into a directory.
type ImageFetcher interface {
	Fetch(ctx context.Context, uris []string, dir string) (fetcher.Result, error)
}

// Summary is the outcome of one scoring run. Both scorers are reported; they
// are computed from the same normalized records.
type Summary struct {
	RunID      uuid.UUID             `json:"run_id"`
	Records    int                   `json:"records"`
	Counts     scoring.OutcomeCounts `json:"counts"`
	Precision  float64               `json:"precision"`
	Recall     float64               `json:"recall"`
	BinaryF1   float64               `json:"binary_f1"`
	WeightedF1 float64               `json:"weighted_f1"`
	Classes    []scoring.ClassScore  `json:"classes,omitempty"`
}

// PredictSummary is the outcome of one prediction run.
type PredictSummary struct {
	RunID        uuid.UUID      `json:"run_id"`
	Items        int            `json:"items"`
	Predicted    int            `json:"predicted"`
	Failed       int            `json:"failed"`
	Errors       int            `json:"errors"`
	OutputFile   string         `json:"output_file"`
	FailFile     string         `json:"fail_file"`
	CombinedFile string         `json:"combined_file,omitempty"`
	Images       fetcher.Result `json:"images"`
	Sanity       sanity.Report  `json:"sanity"`
	Score        *Summary       `json:"score,omitempty"`
}

// Service implements evaluation and prediction.
type Service struct {
	mu sync.RWMutex

	cfg       *config.Config
	reader    *table.Reader
	vocab     *units.Vocabulary
	predictor predict.Predictor
	fetcher   ImageFetcher
	checker   *sanity.Checker

	workerCount int
	queueSize   int

	started   bool
	startedAt time.Time
	runs      int
	last      *Summary

	logger logger.Logger
}

// New constructs a Service. Components not given as options are built from
// the configuration.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}

	if s.cfg == nil {
		s.cfg = config.New(context.Background())
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.workerCount == 0 {
		s.workerCount = s.cfg.WorkerCount
	}
	if s.queueSize == 0 {
		s.queueSize = s.cfg.QueueSize
	}
	if s.vocab == nil {
		v := units.Default()
		if len(s.cfg.UnitVocabulary) > 0 {
			v = units.New(s.cfg.UnitVocabulary)
		}
		s.vocab = &v
	}
	if s.reader == nil {
		var readerOpts []table.Option
		if s.cfg.MissingMarkers != nil {
			readerOpts = append(readerOpts, table.WithMissingMarkers(s.cfg.MissingMarkers))
		}
		s.reader = table.NewReader(readerOpts...)
	}
	if s.checker == nil {
		s.checker = sanity.NewChecker(sanity.WithReader(s.reader))
	}
	if s.predictor == nil {
		s.predictor = predict.NewRandomPredictor(*s.vocab,
			predict.WithSeed(s.cfg.PredictorSeed),
			predict.WithHitRate(s.cfg.PredictorHitRate),
			predict.WithValueRange(s.cfg.PredictorMinValue, s.cfg.PredictorMaxValue),
		)
	}
	if s.fetcher == nil {
		s.fetcher = fetcher.New(
			fetcher.WithTimeout(s.cfg.FetchTimeout()),
			fetcher.WithAttempts(s.cfg.FetchAttempts),
			fetcher.WithRetryDelay(s.cfg.FetchRetryDelay()),
			fetcher.WithConcurrency(s.cfg.FetchConcurrency),
			fetcher.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.cfg.DedupeSize))),
		)
	}
	return s
}

// Vocabulary returns the unit vocabulary in use.
func (s *Service) Vocabulary() units.Vocabulary {
	return *s.vocab
}

// Evaluate scores the results table at path. An empty path uses the
// configured results file.
func (s *Service) Evaluate(ctx context.Context, path string) (Summary, error) {
	if path == "" {
		path = s.cfg.ResultsFile
	}
	if err := table.CheckCSVPath(path); err != nil {
		return Summary{}, err
	}
	records, err := s.reader.ReadRecords(ctx, path, table.Columns{
		GroundTruth: s.cfg.GroundTruthColumn,
		Prediction:  s.cfg.PredictionColumn,
	})
	if err != nil {
		metrics.RecordErrorByComponent("service", "read_error")
		return Summary{}, fmt.Errorf("evaluate %s: %w", path, err)
	}

	sum := s.score(ctx, records, "file")
	s.logger.Info(ctx, "evaluated results file",
		logger.String("file", path),
		logger.String("run_id", sum.RunID.String()),
		logger.Int("records", sum.Records),
		logger.Float64("binary_f1", sum.BinaryF1),
		logger.Float64("weighted_f1", sum.WeightedF1),
	)
	return sum, nil
}

// ScoreRecords scores in-memory records.
func (s *Service) ScoreRecords(ctx context.Context, records []model.ValueRecord) Summary {
	return s.score(ctx, records, "records")
}

func (s *Service) score(ctx context.Context, records []model.ValueRecord, source string) Summary {
	pairs := normalize.Records(records)

	var counts scoring.OutcomeCounts
	if len(pairs) >= parallelThreshold {
		counts = scoring.CountParallel(pairs, s.workerCount)
	} else {
		counts = scoring.Count(pairs)
	}
	// Lengths always match here, so the error is unreachable.
	weighted, _ := scoring.WeightedReport(scoring.Split(pairs))

	sum := Summary{
		RunID:      uuid.New(),
		Records:    len(pairs),
		Counts:     counts,
		Precision:  counts.Precision(),
		Recall:     counts.Recall(),
		BinaryF1:   counts.F1(),
		WeightedF1: weighted.F1,
		Classes:    weighted.Classes,
	}

	metrics.RecordScoringRun(source)
	metrics.RecordRecordsScored("binary", sum.Records)
	metrics.RecordRecordsScored("weighted", sum.Records)
	metrics.RecordOutcomes(counts.TruePositive, counts.FalsePositive, counts.FalseNegative, counts.TrueNegative)
	metrics.UpdateLastScore("binary", sum.BinaryF1)
	metrics.UpdateLastScore("weighted", sum.WeightedF1)

	s.mu.Lock()
	s.runs++
	s.last = &sum
	s.mu.Unlock()

	s.logger.Debug(ctx, "scored records",
		logger.String("source", source),
		logger.Int("records", sum.Records),
		logger.Any("counts", counts),
	)
	return sum
}

// Predict runs the predictor over the configured test table. Items with a
// value go to the output file, the rest to the fail file. The output file is
// then sanity checked. When the test table carries ground truth a combined
// table is written and scored.
func (s *Service) Predict(ctx context.Context) (PredictSummary, error) {
	testPath := s.cfg.TestFile
	if err := table.CheckCSVPath(testPath); err != nil {
		return PredictSummary{}, err
	}

	cols := table.DefaultItemColumns()
	cols.GroundTruth = s.cfg.GroundTruthColumn
	items, err := s.reader.ReadItems(ctx, testPath, cols)
	if err != nil {
		return PredictSummary{}, fmt.Errorf("read test file: %w", err)
	}
	hasTruth, err := s.reader.HasColumn(testPath, cols.GroundTruth)
	if err != nil {
		return PredictSummary{}, fmt.Errorf("read test header: %w", err)
	}

	sum := PredictSummary{
		RunID:      uuid.New(),
		Items:      len(items),
		OutputFile: s.cfg.OutputFile,
		FailFile:   s.cfg.FailFile,
	}
	s.logger.Info(ctx, "starting prediction run",
		logger.String("run_id", sum.RunID.String()),
		logger.String("file", testPath),
		logger.Int("items", len(items)),
		logger.Int("workers", s.workerCount),
	)

	if err := os.MkdirAll(s.cfg.ImageDir, dirPermission); err != nil {
		return sum, fmt.Errorf("create image dir: %w", err)
	}
	if s.cfg.FetchImages {
		links := make([]string, 0, len(items))
		for i := range items {
			if items[i].ImageLink != "" {
				links = append(links, items[i].ImageLink)
			}
		}
		res, err := s.fetcher.Fetch(ctx, links, s.cfg.ImageDir)
		if err != nil {
			return sum, err
		}
		sum.Images = res
		s.logger.Info(ctx, "fetched images",
			logger.Int("fetched", res.Fetched),
			logger.Int("skipped", res.Skipped),
			logger.Int("failed", res.Failed),
		)
	}

	preds, err := s.runPredictions(ctx, items)
	if err != nil {
		return sum, err
	}

	var ok, failed []model.Prediction
	for _, p := range preds {
		if p.Err != nil {
			sum.Errors++
		}
		if p.Value == "" {
			failed = append(failed, p)
		} else {
			ok = append(ok, p)
		}
	}
	sum.Predicted, sum.Failed = len(ok), len(failed)

	if err := table.WritePredictions(s.cfg.OutputFile, ok); err != nil {
		return sum, fmt.Errorf("write output file: %w", err)
	}
	if err := table.WritePredictions(s.cfg.FailFile, failed); err != nil {
		return sum, fmt.Errorf("write fail file: %w", err)
	}

	rep, err := s.checker.Check(ctx, testPath, s.cfg.OutputFile, *s.vocab)
	sum.Sanity = rep
	if err != nil {
		return sum, fmt.Errorf("sanity check: %w", err)
	}

	if hasTruth {
		combined := make([]model.CombinedRow, len(items))
		records := make([]model.ValueRecord, len(items))
		for i := range items {
			combined[i] = model.CombinedRow{
				Index:       items[i].Index,
				GroundTruth: items[i].GroundTruth.String(),
				Prediction:  preds[i].Value,
			}
			records[i] = model.ValueRecord{
				GroundTruth: items[i].GroundTruth,
				Prediction:  textOf(preds[i].Value),
			}
		}
		if err := table.WriteCombined(s.cfg.CombinedFile, combined); err != nil {
			return sum, fmt.Errorf("write combined file: %w", err)
		}
		sum.CombinedFile = s.cfg.CombinedFile
		score := s.score(ctx, records, "predict")
		sum.Score = &score
	}

	s.logger.Info(ctx, "prediction run finished",
		logger.String("run_id", sum.RunID.String()),
		logger.Int("predicted", sum.Predicted),
		logger.Int("failed", sum.Failed),
		logger.Int("errors", sum.Errors),
	)
	return sum, nil
}

// Sanity checks outputPath against testPath with the service vocabulary.
func (s *Service) Sanity(ctx context.Context, testPath, outputPath string) (sanity.Report, error) {
	return s.checker.Check(ctx, testPath, outputPath, *s.vocab)
}

// runPredictions fans items through a bounded queue and a worker pool.
// Results are placed by sequence number so output order follows the input.
func (s *Service) runPredictions(ctx context.Context, items []model.Item) ([]model.Prediction, error) {
	preds := make([]model.Prediction, len(items))
	if len(items) == 0 {
		return preds, nil
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	sink := worker.SinkFunc(func(_ context.Context, p model.Prediction) { //nolint:gocritic // hugeParam
		preds[p.Seq] = p
	})
	pool := worker.NewPool(s.workerCount, q, s.predictor, sink)
	pool.Start(ctx)

	var enqueueErr error
	for i := range items {
		if err := q.EnqueueWait(ctx, items[i]); err != nil {
			enqueueErr = err
			break
		}
	}
	_ = q.Close()

	if err := pool.Wait(ctx); err != nil {
		return nil, err
	}
	if enqueueErr != nil {
		return nil, fmt.Errorf("enqueue prediction jobs: %w", enqueueErr)
	}
	if got := pool.Processed(); got != int64(len(items)) {
		return nil, fmt.Errorf("prediction run incomplete: %d of %d items", got, len(items))
	}
	return preds, nil
}

func textOf(s string) model.Text {
	if s == "" {
		return model.Absent()
	}
	return model.Present(s)
}

// Start marks the service as serving.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "attreval service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("attributes", s.vocab.Len()),
	)
	return nil
}

// Stop marks the service as stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "attreval service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"attributes":  s.vocab.Len(),
		"runs":        s.runs,
	}
	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	if s.last != nil {
		stats["lastRunId"] = s.last.RunID.String()
		stats["lastRecords"] = s.last.Records
		stats["lastBinaryF1"] = s.last.BinaryF1
		stats["lastWeightedF1"] = s.last.WeightedF1
	}
	return stats
}

// IsNotFound reports whether err means a missing input file.
func IsNotFound(err error) bool {
	return errors.Is(err, table.ErrNotFound)
}
