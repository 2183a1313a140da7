package table

// Columns names the value columns of a results table.
type Columns struct {
	GroundTruth string
	Prediction  string
}

// DefaultColumns returns the ground_truth/prediction column names.
func DefaultColumns() Columns {
	return Columns{GroundTruth: "ground_truth", Prediction: "prediction"}
}

// ItemColumns names the columns of a test table.
type ItemColumns struct {
	Index      string
	ImageLink  string
	GroupID    string
	EntityName string
	// GroundTruth is optional; when the column is absent items carry no reference value.
	GroundTruth string
}

// DefaultItemColumns returns the column names of the challenge test table.
func DefaultItemColumns() ItemColumns {
	return ItemColumns{
		Index:       "index",
		ImageLink:   "image_link",
		GroupID:     "group_id",
		EntityName:  "entity_name",
		GroundTruth: "ground_truth",
	}
}

// DefaultMissingMarkers are the cell values read as missing, the same set
// pandas treats as NA by default. The empty cell is always missing.
func DefaultMissingMarkers() []string {
	return []string{
		"#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
		"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
		"n/a", "nan", "null",
	}
}

// Option configures a Reader.
type Option func(*Reader)

// WithMissingMarkers replaces the set of cell values read as missing.
func WithMissingMarkers(markers []string) Option {
	return func(r *Reader) {
		if markers != nil {
			r.missing = toSet(markers)
		}
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
