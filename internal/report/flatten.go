package report

import (
	"math"
	"strconv"
	"strings"
)

// Flatten turns the parallel header/value arrays of t into one Row per
// upstream row, in upstream order. Missing dimensions become null and
// missing or non-numeric metrics become 0.
func Flatten(t *Table) []Row {
	if t == nil {
		return []Row{}
	}
	rows := make([]Row, 0, len(t.Rows))
	for _, raw := range t.Rows {
		row := Row{
			Dimensions: make(map[string]*string, len(t.DimensionHeaders)),
			Metrics:    make(map[string]float64, len(t.MetricHeaders)),
		}
		for i, name := range t.DimensionHeaders {
			var v *string
			if i < len(raw.Dimensions) && raw.Dimensions[i] != nil {
				s := *raw.Dimensions[i]
				v = &s
			}
			row.Dimensions[name] = v
		}
		for i, name := range t.MetricHeaders {
			var v float64
			if i < len(raw.Metrics) && raw.Metrics[i] != nil {
				v = toNumber(*raw.Metrics[i])
			}
			row.Metrics[name] = v
		}
		rows = append(rows, row)
	}
	return rows
}

func toNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
