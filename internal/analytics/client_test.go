package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navantesolutions/gagateway/internal/report"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), Config{
		PropertyID: "123456",
		Endpoint:   server.URL + "/",
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)
	return client
}

func TestRunReport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/properties/123456:runReport" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			DateRanges []struct {
				StartDate string `json:"startDate"`
				EndDate   string `json:"endDate"`
			} `json:"dateRanges"`
			Dimensions []struct {
				Name string `json:"name"`
			} `json:"dimensions"`
			Metrics []struct {
				Name string `json:"name"`
			} `json:"metrics"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.DateRanges) != 1 || body.DateRanges[0].StartDate != "2024-01-01" {
			t.Errorf("unexpected date ranges %+v", body.DateRanges)
		}
		if len(body.Dimensions) != 1 || body.Dimensions[0].Name != "date" {
			t.Errorf("unexpected dimensions %+v", body.Dimensions)
		}
		if len(body.Metrics) != 1 || body.Metrics[0].Name != "sessions" {
			t.Errorf("unexpected metrics %+v", body.Metrics)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"dimensionHeaders": [{"name": "date"}],
			"metricHeaders": [{"name": "sessions", "type": "TYPE_INTEGER"}],
			"rows": [
				{"dimensionValues": [{"value": "20240101"}], "metricValues": [{"value": "14"}]},
				{"dimensionValues": [{"value": "20240102"}], "metricValues": [{"value": "9"}]}
			],
			"rowCount": 2,
			"metadata": {"samplingMetadatas": [{"samplesReadCount": "500", "samplingSpaceSize": "1000"}]}
		}`))
	})

	table, err := client.RunReport(context.Background(), report.Spec{
		DateRanges: []report.DateRange{{StartDate: "2024-01-01", EndDate: "2024-01-02"}},
		Dimensions: []string{"date"},
		Metrics:    []string{"sessions"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"date"}, table.DimensionHeaders)
	assert.Equal(t, []string{"sessions"}, table.MetricHeaders)
	assert.Equal(t, int64(2), table.RowCount)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "20240101", *table.Rows[0].Dimensions[0])
	assert.Equal(t, "14", *table.Rows[0].Metrics[0])
	require.Len(t, table.Sampling, 1)
	assert.Equal(t, int64(500), table.Sampling[0].SamplesReadCount)

	rows := report.Flatten(table)
	assert.Equal(t, 9.0, rows[1].Metric("sessions"))
}

func TestRunReportAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "Field foo is not a valid metric.", "status": "INVALID_ARGUMENT"}}`))
	})

	_, err := client.RunReport(context.Background(), report.Spec{Metrics: []string{"foo"}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	assert.Equal(t, "Field foo is not a valid metric.", err.Error())
}

func TestNewClientRequiresProperty(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	assert.Error(t, err)
}

func TestPropertyName(t *testing.T) {
	assert.Equal(t, "properties/1", propertyName("1"))
	assert.Equal(t, "properties/1", propertyName("properties/1"))
}
