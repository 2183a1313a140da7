package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/attreval/internal/domain/model"
)

const (
	dirPermission  = 0o750
	filePermission = 0o644
)

// WritePredictions writes an index,prediction table.
func WritePredictions(path string, preds []model.Prediction) error {
	rows := make([][]string, len(preds))
	for i, p := range preds {
		rows[i] = []string{p.Index, p.Value}
	}
	return write(path, []string{"index", "prediction"}, rows)
}

// WriteCombined writes an index,ground_truth,prediction table that can be
// scored with ReadRecords.
func WriteCombined(path string, combined []model.CombinedRow) error {
	rows := make([][]string, len(combined))
	for i, c := range combined {
		rows[i] = []string{c.Index, c.GroundTruth, c.Prediction}
	}
	return write(path, []string{"index", "ground_truth", "prediction"}, rows)
}

func write(path string, head []string, rows [][]string) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirPermission); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(head); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
