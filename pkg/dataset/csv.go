package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadCSV parses CSV content into a typed dataset. The first record is
// the header; column types are inferred from the remaining records.
func ReadCSV(r io.Reader, name, separator string) (*Dataset, error) {
	cr := csv.NewReader(r)
	if separator != "" {
		runes := []rune(separator)
		if len(runes) != 1 {
			return nil, fmt.Errorf("separator must be a single character, got %q", separator)
		}
		cr.Comma = runes[0]
	}
	cr.TrimLeadingSpace = true
	// tolerate ragged rows; short records are padded with empty cells
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	raw := make([][]string, len(header))
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		for i := range header {
			cell := ""
			if i < len(record) {
				cell = record[i]
			}
			raw[i] = append(raw[i], cell)
		}
	}

	ds := New(name)
	if separator != "" {
		ds.Separator = separator
	}
	for i, h := range header {
		col := InferColumn(strings.TrimSpace(h), raw[i])
		if col.Name == "" {
			col.Name = fmt.Sprintf("column_%d", i+1)
		}
		if err := ds.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// WriteCSV renders the dataset back to CSV using its separator.
func WriteCSV(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)
	if d.Separator != "" {
		cw.Comma = []rune(d.Separator)[0]
	}
	if err := cw.Write(d.ColumnNames()); err != nil {
		return err
	}
	record := make([]string, len(d.Columns))
	for i := 0; i < d.Rows(); i++ {
		for j, c := range d.Columns {
			record[j] = c.Values[i].Render(c.Type)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSVFile loads a dataset from disk, naming it after the file.
func ReadCSVFile(path, separator string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, filepath.Base(path), separator)
}

// WriteCSVFile saves the dataset to disk, creating parent directories.
func WriteCSVFile(path string, d *Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
