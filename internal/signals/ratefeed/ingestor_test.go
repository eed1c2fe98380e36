package ratefeed

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/amitpo23/medici-pricing/internal/signals"
	"github.com/amitpo23/medici-pricing/pkg/logger"
)

func feedServer(t *testing.T, rates []Rate) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/rates", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("ref"))
		json.NewEncoder(w).Encode(ratesResponse{Rates: rates})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, signals.InitSchema(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSyncStoresFetchedRates(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	rates := []Rate{
		{SupplierRef: "HTL-1", StayDate: "2026-06-15", Competitor: "booking", Price: 150, Available: true},
		{SupplierRef: "HTL-1", StayDate: "2026-06-16", Competitor: "expedia", Price: 160, Available: false},
	}
	srv := feedServer(t, rates)
	db := newTestDB(t)

	ing := NewIngestor(db, NewClient(srv.URL, log), log)

	checkIn := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 6, 18, 0, 0, 0, 0, time.UTC)

	stored, err := ing.Sync(context.Background(), "HTL-1", checkIn, checkOut)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM competitor_rates WHERE supplier_ref = 'HTL-1'`).Scan(&count))
	assert.Equal(t, 2, count)

	// A second sync replaces, not accumulates
	stored, err = ing.Sync(context.Background(), "HTL-1", checkIn, checkOut)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM competitor_rates WHERE supplier_ref = 'HTL-1'`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestSyncFeedFailure(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	ing := NewIngestor(newTestDB(t), NewClient(srv.URL, log), log)

	_, err := ing.Sync(context.Background(), "HTL-1", time.Now(), time.Now().AddDate(0, 0, 3))
	assert.Error(t, err)
}

func TestDropOutliers(t *testing.T) {
	rates := []Rate{
		{Price: 150}, {Price: 155}, {Price: 148}, {Price: 152},
		{Price: 151}, {Price: 149}, {Price: 153},
		{Price: 15000}, // price-in-cents mistake
	}

	kept := dropOutliers(rates)
	require.Len(t, kept, 7)
	for _, r := range kept {
		assert.Less(t, r.Price, 1000.0)
	}
}

func TestDropOutliersKeepsSmallBatches(t *testing.T) {
	rates := []Rate{{Price: 100}, {Price: 99999}}
	assert.Len(t, dropOutliers(rates), 2)
}

func TestDropOutliersUniformPrices(t *testing.T) {
	rates := []Rate{{Price: 150}, {Price: 150}, {Price: 150}, {Price: 150}, {Price: 150}}
	assert.Len(t, dropOutliers(rates), 5)
}
