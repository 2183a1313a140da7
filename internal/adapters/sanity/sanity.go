// Package sanity validates a prediction output file against its test file.
package sanity

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/attreval/internal/adapters/table"
	"github.com/okian/attreval/internal/domain/units"
	"github.com/okian/attreval/pkg/logger"
	"github.com/okian/attreval/pkg/metrics"
)

var predictionFormat = regexp.MustCompile(`^-?\d+(\.\d+)?\s+[a-zA-Z\s]+$`)

// Report lists index mismatches between test and output files.
type Report struct {
	Rows    int      `json:"rows"`
	Missing []string `json:"missing,omitempty"`
	Extra   []string `json:"extra,omitempty"`
}

// OK reports whether both index sets line up.
func (r Report) OK() bool {
	return len(r.Missing) == 0 && len(r.Extra) == 0
}

// Option applies a configuration option to the Checker.
type Option func(*Checker)

// WithReader sets the table reader.
func WithReader(r *table.Reader) Option {
	return func(c *Checker) {
		if r != nil {
			c.reader = r
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// Checker validates output files.
type Checker struct {
	reader *table.Reader
	logger logger.Logger
}

// NewChecker creates a Checker.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{reader: table.NewReader()}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("sanity")
	}
	return c
}

// Check runs the sanity checker with a default Checker.
func Check(ctx context.Context, testPath, outputPath string, vocab units.Vocabulary) (Report, error) {
	return NewChecker().Check(ctx, testPath, outputPath, vocab)
}

// Check validates outputPath against testPath. Missing and extra indices are
// reported and logged but do not fail the check; a malformed prediction does.
func (c *Checker) Check(ctx context.Context, testPath, outputPath string, vocab units.Vocabulary) (Report, error) {
	for _, p := range []string{testPath, outputPath} {
		if err := table.CheckCSVPath(p); err != nil {
			return Report{}, err
		}
	}

	testIdx, err := c.reader.ReadColumn(ctx, testPath, "index")
	if err != nil {
		return Report{}, fmt.Errorf("read test file: %w", err)
	}
	rows, err := c.reader.ReadIndexed(ctx, outputPath)
	if err != nil {
		return Report{}, fmt.Errorf("read output file: %w", err)
	}

	want := make(map[string]struct{}, len(testIdx))
	for _, t := range testIdx {
		want[t.String()] = struct{}{}
	}
	got := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		got[r.Index] = struct{}{}
	}

	rep := Report{
		Rows:    len(rows),
		Missing: difference(want, got),
		Extra:   difference(got, want),
	}
	if len(rep.Missing) > 0 {
		metrics.RecordSanityViolation("missing", len(rep.Missing))
		c.logger.Warn(ctx, "missing index values in output", logger.Any("index", rep.Missing))
	}
	if len(rep.Extra) > 0 {
		metrics.RecordSanityViolation("extra", len(rep.Extra))
		c.logger.Warn(ctx, "unknown index values in output", logger.Any("index", rep.Extra))
	}

	for _, r := range rows {
		if !r.Prediction.Valid || r.Prediction.Value == "" {
			continue
		}
		if _, _, _, err := ParsePrediction(r.Prediction.Value, vocab); err != nil {
			metrics.RecordSanityViolation("invalid", 1)
			return rep, fmt.Errorf("row index=%s prediction=%q: %w", r.Index, r.Prediction.Value, err)
		}
	}

	c.logger.Info(ctx, "parsing successful", logger.String("file", outputPath), logger.Int("rows", rep.Rows))
	return rep, nil
}

// ParsePrediction splits a "<number> <unit>" prediction. An empty s is not an
// error and yields ok=false.
func ParsePrediction(s string, vocab units.Vocabulary) (float64, string, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, "", false, nil
	}
	if !predictionFormat.MatchString(s) {
		return 0, "", false, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	fields := strings.Fields(s)
	number, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, "", false, fmt.Errorf("%w: %q: %w", ErrInvalidFormat, s, err)
	}
	unit := vocab.Canonical(strings.Join(fields[1:], " "))
	if !vocab.Allowed(unit) {
		return 0, "", false, fmt.Errorf("%w: %q (allowed: %s)", ErrInvalidUnit, unit, strings.Join(vocab.AllowedUnits(), ", "))
	}
	return number, unit, true, nil
}

func difference(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
