package covariate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCSV ingests a covariate series from CSV. The header row names the
// columns; a leading "year" column (case-insensitive) is read as the
// sample year, every other column as a covariate. Returns the samples
// in file order plus the covariate names in column order.
//
// Rows must be rectangular and numeric; violations surface ErrBadCSV
// with the offending line.
func ReadCSV(r io.Reader) ([]Sample, []string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: empty input", ErrBadCSV)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadCSV, err)
	}

	yearCol := -1
	var names []string
	for j, h := range header {
		h = strings.TrimSpace(h)
		if strings.EqualFold(h, "year") && yearCol < 0 {
			yearCol = j
			continue
		}
		if h == "" {
			return nil, nil, fmt.Errorf("%w: empty header column %d", ErrBadCSV, j+1)
		}
		names = append(names, h)
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("%w: no covariate columns", ErrBadCSV)
	}

	var samples []Sample
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", ErrBadCSV, line, err)
		}
		if len(rec) != len(header) {
			return nil, nil, fmt.Errorf("%w: line %d: %d fields, want %d",
				ErrBadCSV, line, len(rec), len(header))
		}

		s := Sample{Values: make(map[string]float64, len(names))}
		k := 0
		for j, field := range rec {
			field = strings.TrimSpace(field)
			if j == yearCol {
				y, err := strconv.Atoi(field)
				if err != nil {
					return nil, nil, fmt.Errorf("%w: line %d: year %q", ErrBadCSV, line, field)
				}
				s.Year = y
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: line %d: value %q", ErrBadCSV, line, field)
			}
			s.Values[names[k]] = v
			k++
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("%w: header but no rows", ErrBadCSV)
	}

	return samples, names, nil
}
