package health

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestProcessProbe_ReportsProcessComponent(t *testing.T) {
	result := ProcessProbe()(context.Background())
	assert.Equal(t, "process", result.Component)
	assert.Contains(t, []Status{StatusHealthy, StatusDegraded, StatusUnhealthy}, result.Status)
}

func TestMemoryPressureProbe_HealthyWithHighCeiling(t *testing.T) {
	result := MemoryPressureProbe(1 << 40)(context.Background())
	assert.Equal(t, "memory_pressure", result.Component)
	assert.Equal(t, StatusHealthy, result.Status)
}

func TestMemoryPressureProbe_UnhealthyWithTinyCeiling(t *testing.T) {
	result := MemoryPressureProbe(1)(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
}

func TestEventLoopProbe_ReturnsHealthy(t *testing.T) {
	result := EventLoopProbe()(context.Background())
	assert.Equal(t, "event_loop", result.Component)
	assert.Equal(t, StatusHealthy, result.Status)
}

func TestDatabaseProbe_Healthy(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	result := DatabaseProbe(db)(context.Background())
	assert.Equal(t, "database", result.Component)
	assert.Equal(t, StatusHealthy, result.Status)
}

func TestDatabaseProbe_UnhealthyOnClosedDB(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.Close()

	result := DatabaseProbe(db)(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
}

func TestAPIProbe_HealthyOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := APIProbe("test", srv.URL)(context.Background())
	assert.Equal(t, "api:test", result.Component)
	assert.Equal(t, StatusHealthy, result.Status)
}

func TestAPIProbe_UnhealthyOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := APIProbe("test", srv.URL)(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
}
