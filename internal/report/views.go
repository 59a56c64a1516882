package report

import (
	"context"
	"sort"
)

const (
	ViewOverview   = "overview"
	ViewTimeSeries = "timeseries"
	ViewTopPages   = "top-pages"
	ViewSources    = "sources"
	ViewDevices    = "devices"
)

const (
	DefaultTimeSeriesMetric = "activeUsers"
	DefaultLimit            = 10
	channelDimension        = "sessionDefaultChannelGroup"
)

var overviewMetrics = []string{
	"activeUsers",
	"newUsers",
	"sessions",
	"engagedSessions",
	"screenPageViews",
	"averageSessionDuration",
	"engagementRate",
	"bounceRate",
}

// Query carries the caller's optional date bounds.
type Query struct {
	Start string
	End   string
}

type OverviewKPIs struct {
	ActiveUsers            float64 `json:"activeUsers"`
	NewUsers               float64 `json:"newUsers"`
	Sessions               float64 `json:"sessions"`
	EngagedSessions        float64 `json:"engagedSessions"`
	ScreenPageViews        float64 `json:"screenPageViews"`
	AverageSessionDuration float64 `json:"averageSessionDuration"`
	EngagementRate         float64 `json:"engagementRate"`
	BounceRate             float64 `json:"bounceRate"`
}

type OverviewView struct {
	Range DateRange    `json:"range"`
	KPIs  OverviewKPIs `json:"kpis"`
	Meta  Meta         `json:"meta"`
}

type TimeSeriesView struct {
	Range  DateRange `json:"range"`
	Metric string    `json:"metric"`
	Rows   []Row     `json:"rows"`
}

type RowsView struct {
	Range DateRange `json:"range"`
	Rows  []Row     `json:"rows"`
}

// Overview requests the headline metrics with no dimensions. Every KPI is 0
// when the upstream returns no row.
func (s *Service) Overview(ctx context.Context, q Query) (*OverviewView, error) {
	dr := s.Range(q)
	res, err := s.Run(ctx, ViewOverview, Spec{
		DateRanges: []DateRange{dr},
		Metrics:    overviewMetrics,
	})
	if err != nil {
		return nil, err
	}
	var row Row
	if len(res.Rows) > 0 {
		row = res.Rows[0]
	}
	return &OverviewView{
		Range: dr,
		KPIs: OverviewKPIs{
			ActiveUsers:            row.Metric("activeUsers"),
			NewUsers:               row.Metric("newUsers"),
			Sessions:               row.Metric("sessions"),
			EngagedSessions:        row.Metric("engagedSessions"),
			ScreenPageViews:        row.Metric("screenPageViews"),
			AverageSessionDuration: row.Metric("averageSessionDuration"),
			EngagementRate:         row.Metric("engagementRate"),
			BounceRate:             row.Metric("bounceRate"),
		},
		Meta: res.Meta,
	}, nil
}

// TimeSeries returns metric per date in upstream order.
func (s *Service) TimeSeries(ctx context.Context, q Query, metric string) (*TimeSeriesView, error) {
	if metric == "" {
		metric = DefaultTimeSeriesMetric
	}
	dr := s.Range(q)
	res, err := s.Run(ctx, ViewTimeSeries, Spec{
		DateRanges: []DateRange{dr},
		Dimensions: []string{"date"},
		Metrics:    []string{metric},
	})
	if err != nil {
		return nil, err
	}
	return &TimeSeriesView{Range: dr, Metric: metric, Rows: res.Rows}, nil
}

// TopPages ranks pages by screenPageViews.
func (s *Service) TopPages(ctx context.Context, q Query, limit int) (*RowsView, error) {
	dr := s.Range(q)
	res, err := s.Run(ctx, ViewTopPages, Spec{
		DateRanges: []DateRange{dr},
		Dimensions: []string{"pageTitle", "pagePath"},
		Metrics:    []string{"screenPageViews", "activeUsers"},
	})
	if err != nil {
		return nil, err
	}
	return &RowsView{Range: dr, Rows: TopN(res.Rows, "screenPageViews", limit)}, nil
}

// Sources ranks default channel groups by sessions. The channel group is
// exposed as "channel".
func (s *Service) Sources(ctx context.Context, q Query, limit int) (*RowsView, error) {
	dr := s.Range(q)
	res, err := s.Run(ctx, ViewSources, Spec{
		DateRanges: []DateRange{dr},
		Dimensions: []string{channelDimension},
		Metrics:    []string{"sessions", "activeUsers", "engagedSessions"},
	})
	if err != nil {
		return nil, err
	}
	rows := TopN(res.Rows, "sessions", limit)
	for i := range rows {
		rows[i] = rows[i].renameDimension(channelDimension, "channel")
	}
	return &RowsView{Range: dr, Rows: rows}, nil
}

// Devices returns every device category unsorted.
func (s *Service) Devices(ctx context.Context, q Query) (*RowsView, error) {
	dr := s.Range(q)
	res, err := s.Run(ctx, ViewDevices, Spec{
		DateRanges: []DateRange{dr},
		Dimensions: []string{"deviceCategory"},
		Metrics:    []string{"activeUsers", "sessions"},
	})
	if err != nil {
		return nil, err
	}
	return &RowsView{Range: dr, Rows: res.Rows}, nil
}

// TopN stable-sorts rows descending by metric and keeps the first limit.
// A negative limit drops that many rows from the tail instead.
func TopN(rows []Row, metric string, limit int) []Row {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Metric(metric) > sorted[j].Metric(metric)
	})
	n := limit
	if n < 0 {
		n = len(sorted) + n
	}
	if n < 0 {
		n = 0
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
