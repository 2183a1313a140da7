package scoring

import (
	"fmt"
	"sort"
)

// ClassScore is the per-label breakdown of WeightedReport.
type ClassScore struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// WeightedResult is the full output of the label-level scorer.
type WeightedResult struct {
	F1      float64      `json:"f1"`
	Support int          `json:"support"`
	Classes []ClassScore `json:"classes"`
}

type labelStats struct {
	truePos   int
	predicted int
	actual    int
}

// WeightedReport treats each distinct value, "" included, as a class label.
// It computes precision, recall and F1 per label over the union of labels
// seen in truth and pred, then averages F1 weighted by each label's support
// in truth. Classes are sorted by label.
func WeightedReport(truth, pred []string) (WeightedResult, error) {
	if len(truth) != len(pred) {
		return WeightedResult{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(truth), len(pred))
	}

	stats := make(map[string]*labelStats)
	get := func(label string) *labelStats {
		s, ok := stats[label]
		if !ok {
			s = &labelStats{}
			stats[label] = s
		}
		return s
	}
	for i := range truth {
		get(truth[i]).actual++
		get(pred[i]).predicted++
		if truth[i] == pred[i] {
			stats[truth[i]].truePos++
		}
	}

	labels := make([]string, 0, len(stats))
	for label := range stats {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	res := WeightedResult{Classes: make([]ClassScore, 0, len(labels))}
	var weighted float64
	for _, label := range labels {
		s := stats[label]
		p := ratio(s.truePos, s.predicted)
		r := ratio(s.truePos, s.actual)
		f := harmonic(p, r)
		res.Classes = append(res.Classes, ClassScore{
			Label:     label,
			Precision: p,
			Recall:    r,
			F1:        f,
			Support:   s.actual,
		})
		weighted += f * float64(s.actual)
		res.Support += s.actual
	}
	if res.Support > 0 {
		res.F1 = weighted / float64(res.Support)
	}
	return res, nil
}

// WeightedF1 returns the support-weighted multi-class F1 of truth vs pred.
func WeightedF1(truth, pred []string) (float64, error) {
	res, err := WeightedReport(truth, pred)
	if err != nil {
		return 0, err
	}
	return res.F1, nil
}

// WeightedF1Pairs is WeightedF1 over normalized records.
func WeightedF1Pairs(records []Pair) float64 {
	truth, pred := Split(records)
	// Split always yields equal lengths.
	f1, _ := WeightedF1(truth, pred)
	return f1
}

// Split returns the ground-truth and prediction columns of records.
func Split(records []Pair) (truth, pred []string) {
	truth = make([]string, len(records))
	pred = make([]string, len(records))
	for i, r := range records {
		truth[i] = r.GroundTruth
		pred[i] = r.Prediction
	}
	return truth, pred
}
