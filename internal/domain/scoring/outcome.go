// Package scoring computes match statistics between normalized ground-truth
// and predicted attribute values.
//
// Two scorers live here and they are not interchangeable. BinaryF1 scores
// each record as a true/false positive/negative and derives a single F1.
// WeightedF1 treats every distinct value as a class and averages per-class
// F1 weighted by ground-truth support.
package scoring

import (
	"sync"

	"github.com/okian/attreval/internal/domain/normalize"
)

// Pair is one normalized (ground truth, prediction) record.
type Pair = normalize.Pair

// Outcome is the record-level classification used by BinaryF1.
type Outcome int

// Record outcomes.
const (
	TruePositive Outcome = iota
	FalsePositive
	FalseNegative
	TrueNegative
)

// String returns the snake_case name of the outcome.
func (o Outcome) String() string {
	switch o {
	case TruePositive:
		return "true_positive"
	case FalsePositive:
		return "false_positive"
	case FalseNegative:
		return "false_negative"
	case TrueNegative:
		return "true_negative"
	default:
		return "unknown"
	}
}

// Classify assigns exactly one outcome to a record. A non-empty prediction is
// a true positive when it equals a non-empty ground truth and a false positive
// otherwise; an empty prediction is a false negative against a non-empty
// ground truth and a true negative against an empty one.
func Classify(groundTruth, prediction string) Outcome {
	switch {
	case prediction != "" && groundTruth != "" && prediction == groundTruth:
		return TruePositive
	case prediction != "" && groundTruth != "":
		return FalsePositive
	case prediction != "":
		return FalsePositive
	case groundTruth != "":
		return FalseNegative
	default:
		return TrueNegative
	}
}

// OutcomeCounts accumulates record outcomes. The four counters always sum to
// the number of records added.
type OutcomeCounts struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	FalseNegative int `json:"false_negative"`
	TrueNegative  int `json:"true_negative"`
}

// Add records one outcome.
func (c *OutcomeCounts) Add(o Outcome) {
	switch o {
	case TruePositive:
		c.TruePositive++
	case FalsePositive:
		c.FalsePositive++
	case FalseNegative:
		c.FalseNegative++
	case TrueNegative:
		c.TrueNegative++
	}
}

// Merge adds the counters of other into c.
func (c *OutcomeCounts) Merge(other OutcomeCounts) {
	c.TruePositive += other.TruePositive
	c.FalsePositive += other.FalsePositive
	c.FalseNegative += other.FalseNegative
	c.TrueNegative += other.TrueNegative
}

// Total returns the number of records counted.
func (c OutcomeCounts) Total() int {
	return c.TruePositive + c.FalsePositive + c.FalseNegative + c.TrueNegative
}

// Precision returns TP/(TP+FP), or 0 without positive predictions.
func (c OutcomeCounts) Precision() float64 {
	return ratio(c.TruePositive, c.TruePositive+c.FalsePositive)
}

// Recall returns TP/(TP+FN), or 0 when nothing could be recalled.
func (c OutcomeCounts) Recall() float64 {
	return ratio(c.TruePositive, c.TruePositive+c.FalseNegative)
}

// F1 returns the harmonic mean of precision and recall, or 0 when both are 0.
func (c OutcomeCounts) F1() float64 {
	return harmonic(c.Precision(), c.Recall())
}

// Count classifies every record.
func Count(records []Pair) OutcomeCounts {
	var c OutcomeCounts
	for _, r := range records {
		c.Add(Classify(r.GroundTruth, r.Prediction))
	}
	return c
}

// CountParallel splits records into at most partitions chunks, counts each
// chunk on its own goroutine and merges the results. The result equals Count.
func CountParallel(records []Pair, partitions int) OutcomeCounts {
	if partitions < 2 || len(records) < partitions {
		return Count(records)
	}

	chunk := (len(records) + partitions - 1) / partitions
	parts := make([]OutcomeCounts, partitions)

	var wg sync.WaitGroup
	for i := 0; i < partitions; i++ {
		lo := i * chunk
		if lo >= len(records) {
			break
		}
		hi := min(lo+chunk, len(records))
		wg.Add(1)
		go func(i int, part []Pair) {
			defer wg.Done()
			parts[i] = Count(part)
		}(i, records[lo:hi])
	}
	wg.Wait()

	var total OutcomeCounts
	for _, p := range parts {
		total.Merge(p)
	}
	return total
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func harmonic(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
