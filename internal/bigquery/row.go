package bigquery

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one result row keyed by column name. BigQuery's JSON encoding
// transports every scalar as a string, so the getters parse on access.
type Row map[string]any

func (r Row) Str(col string) (string, error) {
	v, ok := r[col]
	if !ok || v == nil {
		return "", fmt.Errorf("column %q missing", col)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("column %q is not a string: %T", col, v)
	}
	return s, nil
}

func (r Row) Float(col string) (float64, error) {
	s, err := r.Str(col)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q is not numeric: %w", col, err)
	}
	// ParseFloat accepts "NaN" and "Inf". Neither is a usable value for any
	// consumer here, and NaN would slip through range clamps downstream.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("column %q is not finite: %q", col, s)
	}
	return f, nil
}

func (r Row) Int(col string) (int64, error) {
	s, err := r.Str(col)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q is not an integer: %w", col, err)
	}
	return n, nil
}

// Decimal parses NUMERIC columns without float rounding; balance columns go
// through here.
func (r Row) Decimal(col string) (decimal.Decimal, error) {
	s, err := r.Str(col)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("column %q is not a decimal: %w", col, err)
	}
	return d, nil
}

// Time parses TIMESTAMP columns, which arrive as epoch seconds with a
// fractional part (e.g. "1.7224512E9" or "1722451200.5").
func (r Row) Time(col string) (time.Time, error) {
	f, err := r.Float(col)
	if err != nil {
		return time.Time{}, err
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), nil
}
