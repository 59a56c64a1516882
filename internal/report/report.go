// Package report builds analytics report requests and reshapes the columnar
// results into flat rows and dashboard views.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DateRange is an inclusive window of ISO dates (YYYY-MM-DD).
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Spec describes one report request.
type Spec struct {
	DateRanges []DateRange
	Dimensions []string
	Metrics    []string
}

// ErrFieldCollision is returned for a spec that names the same field as both
// a dimension and a metric.
var ErrFieldCollision = errors.New("report: field requested as both dimension and metric")

// Validate rejects specs whose flattened rows would have ambiguous keys.
func (s Spec) Validate() error {
	dims := make(map[string]struct{}, len(s.Dimensions))
	for _, d := range s.Dimensions {
		dims[d] = struct{}{}
	}
	for _, m := range s.Metrics {
		if _, ok := dims[m]; ok {
			return fmt.Errorf("%w: %q", ErrFieldCollision, m)
		}
	}
	return nil
}

// Table is the raw tabular result returned by the upstream service. A nil
// entry in RawRow means the upstream omitted that value.
type Table struct {
	DimensionHeaders []string
	MetricHeaders    []string
	Rows             []RawRow
	RowCount         int64
	Sampling         []SamplingMetadata
}

type RawRow struct {
	Dimensions []*string
	Metrics    []*string
}

type SamplingMetadata struct {
	SamplesReadCount  int64 `json:"samplesReadCount"`
	SamplingSpaceSize int64 `json:"samplingSpaceSize"`
}

type Meta struct {
	RowCount          int64              `json:"rowCount"`
	SamplesReadCount  int64              `json:"samplesReadCount"`
	SamplingMetadatas []SamplingMetadata `json:"samplingMetadatas"`
}

type Result struct {
	Meta Meta  `json:"meta"`
	Rows []Row `json:"rows"`
}

func metaOf(t *Table) Meta {
	m := Meta{SamplingMetadatas: []SamplingMetadata{}}
	if t == nil {
		return m
	}
	m.RowCount = t.RowCount
	for _, s := range t.Sampling {
		m.SamplesReadCount += s.SamplesReadCount
		m.SamplingMetadatas = append(m.SamplingMetadatas, s)
	}
	return m
}

// Row is one flattened report row. Dimension and metric values are kept
// apart; they only meet when the row is serialized.
type Row struct {
	Dimensions map[string]*string
	Metrics    map[string]float64
}

// Dimension returns the named dimension value; ok is false when it is null or
// was not requested.
func (r Row) Dimension(name string) (string, bool) {
	v := r.Dimensions[name]
	if v == nil {
		return "", false
	}
	return *v, true
}

// Metric returns the named metric, 0 when absent.
func (r Row) Metric(name string) float64 {
	return r.Metrics[name]
}

func (r Row) renameDimension(from, to string) Row {
	v, ok := r.Dimensions[from]
	if !ok {
		return r
	}
	dims := make(map[string]*string, len(r.Dimensions))
	for k, d := range r.Dimensions {
		if k != from {
			dims[k] = d
		}
	}
	dims[to] = v
	return Row{Dimensions: dims, Metrics: r.Metrics}
}

func (r Row) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Dimensions)+len(r.Metrics))
	for k, v := range r.Dimensions {
		if v == nil {
			flat[k] = nil
			continue
		}
		flat[k] = *v
	}
	for k, v := range r.Metrics {
		flat[k] = v
	}
	return json.Marshal(flat)
}

// UpstreamError is the single failure class for anything the reporting
// service rejects or cannot answer. Its message is the upstream message.
type UpstreamError struct {
	View string
	Err  error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return "upstream report failed"
	}
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }
