package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrPathNotFound is returned when a JSON path selects nothing.
	ErrPathNotFound = errors.New("json path not found")
	// ErrColumnNotFound is returned when a CSV header lacks the requested column.
	ErrColumnNotFound = errors.New("csv column not found")
)

// LoadJSON pushes every number selected by path into a new Accumulator.
// The path uses gjson syntax and may carry a leading "$." or be a bare "$"
// for the whole document. It may select a single number or an array of numbers.
func LoadJSON(data []byte, path string) (*Accumulator, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON document")
	}
	path = normalizePath(path)

	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}

	a := New()
	if !result.IsArray() {
		v, err := number(result)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		a.Push(v)
		return a, nil
	}

	var loadErr error
	idx := 0
	result.ForEach(func(_, item gjson.Result) bool {
		v, err := number(item)
		if err != nil {
			loadErr = fmt.Errorf("%s[%d]: %w", path, idx, err)
			return false
		}
		a.Push(v)
		idx++
		return true
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return a, nil
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == "$" {
		return "@this"
	}
	return strings.TrimPrefix(path, "$.")
}

func number(r gjson.Result) (float64, error) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), nil
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", r.Str)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("not a number: %s", r.Raw)
	}
}

// LoadCSV reads one column of a CSV stream into a new Accumulator.
// The first row is the header. An empty column name selects the first column.
func LoadCSV(r io.Reader, column string) (*Accumulator, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("CSV input is empty")
		}
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	col := 0
	if column != "" {
		col = -1
		for i, name := range header {
			if strings.EqualFold(strings.TrimSpace(name), column) {
				col = i
				break
			}
		}
		if col < 0 {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
		}
	}

	a := New()
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		field := strings.TrimSpace(row[col])
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: not a number: %q", line, field)
		}
		a.Push(v)
	}
	return a, nil
}
