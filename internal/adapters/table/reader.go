// Package table reads and writes the CSV tables of the evaluation pipeline.
package table

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/okian/attreval/internal/domain/model"
)

// Reader reads CSV tables with a header row.
type Reader struct {
	missing map[string]struct{}
}

// NewReader creates a Reader using the default missing-value markers.
func NewReader(opts ...Option) *Reader {
	r := &Reader{missing: toSet(DefaultMissingMarkers())}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IndexedRow is one row of a predictions output table.
type IndexedRow struct {
	Index      string
	Prediction model.Text
}

// CheckCSVPath verifies that path names an existing .csv file.
func CheckCSVPath(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return fmt.Errorf("%w: %s", ErrNotCSV, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}
	return nil
}

// ReadRecords loads the ground-truth and prediction columns of path.
func (r *Reader) ReadRecords(ctx context.Context, path string, cols Columns) ([]model.ValueRecord, error) {
	var out []model.ValueRecord
	err := r.scan(ctx, path, func(h header) ([]int, error) {
		return h.require(cols.GroundTruth, cols.Prediction)
	}, func(cells []model.Text) {
		out = append(out, model.ValueRecord{GroundTruth: cells[0], Prediction: cells[1]})
	})
	return out, err
}

// ReadItems loads the test table at path.
func (r *Reader) ReadItems(ctx context.Context, path string, cols ItemColumns) ([]model.Item, error) {
	var out []model.Item
	err := r.scan(ctx, path, func(h header) ([]int, error) {
		idx, err := h.require(cols.Index, cols.ImageLink, cols.GroupID, cols.EntityName)
		if err != nil {
			return nil, err
		}
		return append(idx, h.optional(cols.GroundTruth)), nil
	}, func(cells []model.Text) {
		out = append(out, model.Item{
			Seq:         len(out),
			Index:       cells[0].String(),
			ImageLink:   cells[1].String(),
			GroupID:     cells[2].String(),
			EntityName:  cells[3].String(),
			GroundTruth: cells[4],
		})
	})
	return out, err
}

// HasColumn reports whether the header of path contains name.
func (r *Reader) HasColumn(path, name string) (bool, error) {
	f, cr, err := open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()
	h, err := readHeader(cr, path)
	if err != nil {
		return false, err
	}
	_, ok := h[name]
	return ok, nil
}

// ReadIndexed loads the index and prediction columns of an output table.
func (r *Reader) ReadIndexed(ctx context.Context, path string) ([]IndexedRow, error) {
	var out []IndexedRow
	err := r.scan(ctx, path, func(h header) ([]int, error) {
		return h.require("index", "prediction")
	}, func(cells []model.Text) {
		out = append(out, IndexedRow{Index: cells[0].String(), Prediction: cells[1]})
	})
	return out, err
}

// ReadColumn loads a single column of path.
func (r *Reader) ReadColumn(ctx context.Context, path, column string) ([]model.Text, error) {
	var out []model.Text
	err := r.scan(ctx, path, func(h header) ([]int, error) {
		return h.require(column)
	}, func(cells []model.Text) {
		out = append(out, cells[0])
	})
	return out, err
}

type header map[string]int

func (h header) require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	var missing []string
	for i, name := range names {
		pos, ok := h[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[i] = pos
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func (h header) optional(name string) int {
	if pos, ok := h[name]; ok && name != "" {
		return pos
	}
	return -1
}

// scan opens path, resolves column positions with pick and hands each row's
// selected cells to emit. Position -1 always yields an absent cell.
func (r *Reader) scan(ctx context.Context, path string, pick func(header) ([]int, error), emit func([]model.Text)) error {
	f, cr, err := open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	h, err := readHeader(cr, path)
	if err != nil {
		return err
	}
	positions, err := pick(h)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	cells := make([]model.Text, len(positions))
	for line := 2; ; line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s line %d: %w", path, line, err)
		}
		for i, pos := range positions {
			cells[i] = r.cell(row, pos)
		}
		emit(cells)
	}
}

func (r *Reader) cell(row []string, pos int) model.Text {
	if pos < 0 || pos >= len(row) {
		return model.Absent()
	}
	v := row[pos]
	if v == "" {
		return model.Absent()
	}
	if _, ok := r.missing[v]; ok {
		return model.Absent()
	}
	return model.Present(v)
}

// open opens path for CSV reading. A UTF-8 or UTF-16 byte order mark is
// honored and stripped; input without one is read as UTF-8.
func open(path string) (io.Closer, *csv.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	decoded := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return f, cr, nil
}

func readHeader(cr *csv.Reader, path string) (header, error) {
	row, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	h := make(header, len(row))
	for i, name := range row {
		name = strings.TrimSpace(name)
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h, nil
}
