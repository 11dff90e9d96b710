package cot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantbrief/oracle/internal/models"
)

const feedBody = `"Market and Exchange Names","As of Date in Form YYMMDD","As of Date in Form YYYY-MM-DD",...
"GOLD - COMMODITY EXCHANGE INC.","250819","2025-08-19","25","COMEX","088691","GC","400000","250000","100000","0","100000","200000"
"GOLD - COMMODITY EXCHANGE INC.","250819","2025-08-19","25","COMEX","088691","GC","999999","1000","2000","0","3000","4000"
"E-MINI S&P 500 - CHICAGO MERCANTILE EXCHANGE","250819","2025-08-19","25","CME","13874A","ES","2000000","500000","600000","0","700000","650000"
"WHEAT-SRW - CHICAGO BOARD OF TRADE","250819","2025-08-19","25","CBT","001602","ZW","300000","100000","50000","0","60000","90000"
`

type memStore struct {
	data        map[string]models.PositioningRecord
	refreshedAt time.Time
	saves       int
}

func (m *memStore) LoadPositioningCache(ctx context.Context) (map[string]models.PositioningRecord, time.Time, error) {
	return m.data, m.refreshedAt, nil
}

func (m *memStore) SavePositioningCache(ctx context.Context, data map[string]models.PositioningRecord, refreshedAt time.Time) error {
	m.data = data
	m.refreshedAt = refreshedAt
	m.saves++
	return nil
}

func newTestClient(t *testing.T, body string, store CacheStore) (*Client, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(store, week)
	c.url = srv.URL
	c.now = func() time.Time { return time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC) }
	return c, &hits
}

func TestLatestReportRefresh(t *testing.T) {
	c, hits := newTestClient(t, feedBody, nil)

	report, err := c.LatestReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, *hits)

	// Tracked assets only; wheat is dropped.
	require.Len(t, report, 2)

	gold := report["Gold"]
	// First row per asset wins.
	assert.Equal(t, int64(400000), gold.OpenInterest)
	assert.Equal(t, int64(150000), gold.NoncommercialNet)
	assert.InDelta(t, 37.5, gold.SpecNetPct, 0.0001)
	assert.Equal(t, "BEARISH - Contrarian", gold.Signal)

	es := report["S&P 500"]
	assert.Equal(t, int64(-100000), es.NoncommercialNet)
	assert.InDelta(t, -5.0, es.SpecNetPct, 0.0001)
}

func TestLatestReportUsesMemoryCache(t *testing.T) {
	c, hits := newTestClient(t, feedBody, nil)

	_, err := c.LatestReport(context.Background())
	require.NoError(t, err)
	_, err = c.LatestReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, *hits)
}

func TestLatestReportLoadsDurableCache(t *testing.T) {
	store := &memStore{
		data: map[string]models.PositioningRecord{
			"Gold": {Asset: "Gold", OpenInterest: 1, Signal: "NEUTRAL"},
		},
		refreshedAt: time.Date(2025, 8, 25, 9, 0, 0, 0, time.UTC),
	}
	c, hits := newTestClient(t, feedBody, store)

	report, err := c.LatestReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, *hits, "valid durable cache should prevent a fetch")
	assert.Contains(t, report, "Gold")
}

func TestLatestReportRefreshPersists(t *testing.T) {
	store := &memStore{}
	c, _ := newTestClient(t, feedBody, store)

	_, err := c.LatestReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
	assert.Contains(t, store.data, "Gold")
}

func TestLatestReportZeroRowsFatal(t *testing.T) {
	c, _ := newTestClient(t, "no usable rows here\n", nil)

	_, err := c.LatestReport(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse any COT data")
}

func TestSnapshotDoesNotAliasCache(t *testing.T) {
	c, _ := newTestClient(t, feedBody, nil)

	first, err := c.LatestReport(context.Background())
	require.NoError(t, err)
	delete(first, "Gold")

	second, err := c.LatestReport(context.Background())
	require.NoError(t, err)
	assert.Contains(t, second, "Gold")
}

func TestCrowdedTrades(t *testing.T) {
	c, _ := newTestClient(t, feedBody, nil)

	crowded, err := c.CrowdedTrades(context.Background())
	require.NoError(t, err)
	require.Len(t, crowded, 1)
	assert.Equal(t, "Gold", crowded[0].Asset)
	assert.Equal(t, "HIGH - Vulnerable to reversal", crowded[0].Risk)
}
