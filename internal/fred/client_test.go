package fred

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key")
	c.client.SetBaseURL(srv.URL)
	c.client.SetRetryCount(0)
	return c
}

func TestGetSeries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "VIXCLS", r.URL.Query().Get("series_id"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort_order"))
		w.Write([]byte(`{"observations": [
			{"date": "2025-08-22", "value": "16.40"},
			{"date": "2025-08-21", "value": "17.10"}
		]}`))
	})

	ind := c.GetSeries(context.Background(), "VIXCLS")

	assert.Empty(t, ind.Err)
	require.NotNil(t, ind.Value)
	assert.Equal(t, 16.40, *ind.Value)
	assert.Equal(t, "2025-08-22", ind.Date)
	require.NotNil(t, ind.PriorValue)
	assert.Equal(t, 17.10, *ind.PriorValue)
	require.NotNil(t, ind.Change)
	assert.InDelta(t, -0.7, *ind.Change, 0.0001)
	assert.Equal(t, "FRED (series: VIXCLS)", ind.Source)
}

func TestGetSeriesMissingObservation(t *testing.T) {
	// FRED reports a missing data point as ".".
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"observations": [
			{"date": "2025-08-22", "value": "."},
			{"date": "2025-08-21", "value": "17.10"}
		]}`))
	})

	ind := c.GetSeries(context.Background(), "VIXCLS")

	assert.Empty(t, ind.Err)
	assert.Nil(t, ind.Value)
	assert.NotNil(t, ind.PriorValue)
	// No change without both readings.
	assert.Nil(t, ind.Change)
}

func TestGetSeriesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	ind := c.GetSeries(context.Background(), "GDP")

	assert.Equal(t, "FRED API returned 403", ind.Err)
	assert.Nil(t, ind.Value)
}

func TestGetSeriesNoObservations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"observations": []}`))
	})

	ind := c.GetSeries(context.Background(), "GDP")
	assert.Equal(t, "No observations", ind.Err)
}

func TestFetchAllCarriesNames(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"observations": [{"date": "2025-08-22", "value": "1.0"}]}`))
	})

	out := c.RiskIndicators(context.Background())

	require.Len(t, out, len(RiskSeries))
	for _, s := range RiskSeries {
		assert.Contains(t, out, s.ID)
		assert.Equal(t, s.Name, out[s.ID].Name)
	}
}

func TestParseObservation(t *testing.T) {
	assert.Nil(t, parseObservation("."))
	assert.Nil(t, parseObservation(""))
	assert.Nil(t, parseObservation("abc"))
	require.NotNil(t, parseObservation("3.14"))
	assert.Equal(t, 3.14, *parseObservation("3.14"))
}
