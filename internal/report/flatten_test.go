package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestFlattenEmpty(t *testing.T) {
	rows := Flatten(&Table{DimensionHeaders: []string{"date"}, MetricHeaders: []string{"sessions"}})
	require.NotNil(t, rows)
	assert.Empty(t, rows)

	assert.Empty(t, Flatten(nil))
}

func TestFlattenMissingValues(t *testing.T) {
	table := &Table{
		DimensionHeaders: []string{"pageTitle", "pagePath"},
		MetricHeaders:    []string{"screenPageViews", "activeUsers"},
		Rows: []RawRow{
			{Dimensions: []*string{str("Home")}, Metrics: []*string{str("12")}},
			{Dimensions: []*string{nil, str("/b")}, Metrics: []*string{nil, str("3")}},
		},
	}

	rows := Flatten(table)
	require.Len(t, rows, 2)

	title, ok := rows[0].Dimension("pageTitle")
	assert.True(t, ok)
	assert.Equal(t, "Home", title)
	_, ok = rows[0].Dimension("pagePath")
	assert.False(t, ok)
	assert.Contains(t, rows[0].Dimensions, "pagePath")
	assert.Equal(t, 12.0, rows[0].Metric("screenPageViews"))
	assert.Contains(t, rows[0].Metrics, "activeUsers")
	assert.Equal(t, 0.0, rows[0].Metric("activeUsers"))

	_, ok = rows[1].Dimension("pageTitle")
	assert.False(t, ok)
	assert.Equal(t, 0.0, rows[1].Metric("screenPageViews"))
	assert.Equal(t, 3.0, rows[1].Metric("activeUsers"))
}

func TestFlattenKeysFollowHeaderOrder(t *testing.T) {
	table := &Table{
		DimensionHeaders: []string{"country", "city"},
		MetricHeaders:    []string{"sessions"},
		Rows: []RawRow{
			{Dimensions: []*string{str("city"), str("country")}, Metrics: []*string{str("1")}},
		},
	}
	rows := Flatten(table)
	require.Len(t, rows, 1)

	country, _ := rows[0].Dimension("country")
	city, _ := rows[0].Dimension("city")
	assert.Equal(t, "city", country)
	assert.Equal(t, "country", city)
}

func TestFlattenCoercesMetrics(t *testing.T) {
	table := &Table{
		MetricHeaders: []string{"a", "b", "c", "d", "e"},
		Rows: []RawRow{
			{Metrics: []*string{str("42"), str("0.375"), str(" 7 "), str("n/a"), str("")}},
		},
	}
	rows := Flatten(table)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]float64{"a": 42, "b": 0.375, "c": 7, "d": 0, "e": 0}, rows[0].Metrics)
}

func TestRowMarshalJSON(t *testing.T) {
	row := Row{
		Dimensions: map[string]*string{"date": str("20240101"), "pagePath": nil},
		Metrics:    map[string]float64{"sessions": 5},
	}
	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"20240101","pagePath":null,"sessions":5}`, string(b))
}

func TestSpecValidateCollision(t *testing.T) {
	err := Spec{Dimensions: []string{"date"}, Metrics: []string{"sessions", "date"}}.Validate()
	assert.ErrorIs(t, err, ErrFieldCollision)

	assert.NoError(t, Spec{Dimensions: []string{"date"}, Metrics: []string{"sessions"}}.Validate())
}
