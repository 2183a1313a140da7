// Package model contains domain models passed between layers.
package model

// Text is a free-form text cell that may be absent (null, missing column
// cell, or a missing-value marker). An absent Text is treated as empty.
type Text struct {
	Value string
	Valid bool
}

// Present wraps s as a present Text.
func Present(s string) Text {
	return Text{Value: s, Valid: true}
}

// Absent returns the absent Text.
func Absent() Text {
	return Text{}
}

// TextFromPtr maps nil to Absent and any other pointer to a present Text.
func TextFromPtr(s *string) Text {
	if s == nil {
		return Absent()
	}
	return Present(*s)
}

// String returns the text, or "" when absent.
func (t Text) String() string {
	if !t.Valid {
		return ""
	}
	return t.Value
}

// ValueRecord pairs a ground-truth value with a prediction for one item.
type ValueRecord struct {
	GroundTruth Text
	Prediction  Text
}

// Item is one row of the test table handed to the predictor.
type Item struct {
	Seq         int    // position in the source table
	Index       string // item identifier, the "index" column
	ImageLink   string
	GroupID     string // product category identifier
	EntityName  string // attribute to extract, e.g. "item_weight"
	GroundTruth Text   // reference value when the table carries one
}

// Prediction is the predictor output for one item.
type Prediction struct {
	Seq        int
	Index      string
	Value      string // "" on failed prediction
	Err        error  // predictor failure, if any
	LatencyMs  int64
	EntityName string
}

// CombinedRow is one line of a combined results table.
type CombinedRow struct {
	Index       string
	GroundTruth string
	Prediction  string
}
