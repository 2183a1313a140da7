package scoring

// BinaryResult is the full output of the record-level scorer.
type BinaryResult struct {
	Counts    OutcomeCounts `json:"counts"`
	Precision float64       `json:"precision"`
	Recall    float64       `json:"recall"`
	F1        float64       `json:"f1"`
}

// BinaryReport classifies every record and derives precision, recall and F1.
func BinaryReport(records []Pair) BinaryResult {
	c := Count(records)
	return BinaryResult{
		Counts:    c,
		Precision: c.Precision(),
		Recall:    c.Recall(),
		F1:        c.F1(),
	}
}

// BinaryF1 returns the record-level F1 of normalized records. Empty or fully
// degenerate input scores 0.
func BinaryF1(records []Pair) float64 {
	return Count(records).F1()
}
