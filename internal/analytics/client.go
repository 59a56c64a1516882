// Package analytics talks to the Google Analytics Data API (GA4).
package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/navantesolutions/gagateway/internal/report"
)

// Config configures the GA4 Data API client.
type Config struct {
	PropertyID      string
	CredentialsFile string
	// Endpoint overrides the API base URL; it must end with a slash.
	Endpoint string
	// HTTPClient replaces the authenticated transport entirely.
	HTTPClient *http.Client
}

// Client runs reports for a single GA4 property. It is safe for concurrent use.
type Client struct {
	svc      *analyticsdata.Service
	property string
}

// APIError is a structured rejection from the Data API. Its message is the
// one the API returned.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.PropertyID == "" {
		return nil, fmt.Errorf("analytics: property id is required")
	}
	var opts []option.ClientOption
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	} else if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := analyticsdata.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("analytics: create service: %w", err)
	}
	return &Client{svc: svc, property: propertyName(cfg.PropertyID)}, nil
}

func propertyName(id string) string {
	if strings.HasPrefix(id, "properties/") {
		return id
	}
	return "properties/" + id
}

// RunReport implements report.Backend.
func (c *Client) RunReport(ctx context.Context, spec report.Spec) (*report.Table, error) {
	resp, err := c.svc.Properties.RunReport(c.property, buildRequest(spec)).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			msg := gerr.Message
			if msg == "" {
				msg = gerr.Error()
			}
			return nil, &APIError{Code: gerr.Code, Message: msg}
		}
		return nil, err
	}
	return toTable(resp), nil
}

func buildRequest(spec report.Spec) *analyticsdata.RunReportRequest {
	req := &analyticsdata.RunReportRequest{}
	for _, dr := range spec.DateRanges {
		req.DateRanges = append(req.DateRanges, &analyticsdata.DateRange{
			StartDate: dr.StartDate,
			EndDate:   dr.EndDate,
		})
	}
	for _, name := range spec.Dimensions {
		req.Dimensions = append(req.Dimensions, &analyticsdata.Dimension{Name: name})
	}
	for _, name := range spec.Metrics {
		req.Metrics = append(req.Metrics, &analyticsdata.Metric{Name: name})
	}
	return req
}

func toTable(resp *analyticsdata.RunReportResponse) *report.Table {
	t := &report.Table{RowCount: resp.RowCount}
	for _, h := range resp.DimensionHeaders {
		t.DimensionHeaders = append(t.DimensionHeaders, h.Name)
	}
	for _, h := range resp.MetricHeaders {
		t.MetricHeaders = append(t.MetricHeaders, h.Name)
	}
	t.Rows = make([]report.RawRow, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		raw := report.RawRow{
			Dimensions: make([]*string, len(r.DimensionValues)),
			Metrics:    make([]*string, len(r.MetricValues)),
		}
		for i, v := range r.DimensionValues {
			if v != nil {
				s := v.Value
				raw.Dimensions[i] = &s
			}
		}
		for i, v := range r.MetricValues {
			if v != nil {
				s := v.Value
				raw.Metrics[i] = &s
			}
		}
		t.Rows = append(t.Rows, raw)
	}
	if resp.Metadata != nil {
		for _, s := range resp.Metadata.SamplingMetadatas {
			if s == nil {
				continue
			}
			t.Sampling = append(t.Sampling, report.SamplingMetadata{
				SamplesReadCount:  s.SamplesReadCount,
				SamplingSpaceSize: s.SamplingSpaceSize,
			})
		}
	}
	return t
}
