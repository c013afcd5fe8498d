package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"warrantboard/domain/events"
	"warrantboard/domain/fusion"
	"warrantboard/domain/item"
	pkgerrors "warrantboard/pkg/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "success", want: "ok"},
		{name: "app error", err: pkgerrors.NewConflictError("x"), want: "conflict"},
		{name: "wrapped app error", err: pkgerrors.Wrap(pkgerrors.NewNotFoundError("item"), "fuse"), want: "not_found"},
		{name: "fusion", err: &fusion.Error{Reason: fusion.ReasonUniqueInput}, want: "unique_input"},
		{name: "plain", err: errors.New("boom"), want: "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestCollectorRecords(t *testing.T) {
	c := NewCollector("warrantboard")

	c.ObserveOperation("try_unlock", nil, 10*time.Millisecond)
	c.ObserveOperation("try_unlock", pkgerrors.NewConflictError("no points"), time.Millisecond)
	c.ItemCreated("roll", item.RarityMagic)
	c.ItemCreated("roll", item.RarityMagic)
	c.BoardCacheLookup(true)
	c.BoardCacheLookup(false)
	c.BoardCacheLookup(false)
	c.SetActiveSessions(3)
	c.RecordHTTPRequest(http.MethodGet, "/api/v1/board", http.StatusOK, time.Millisecond)
	require.NoError(t, c.CountEvent(context.Background(), events.NewPageCreated("p1", "x", "Page 2", time.Now())))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Operations.WithLabelValues("try_unlock", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Operations.WithLabelValues("try_unlock", "conflict")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ItemsCreated.WithLabelValues("roll", "magic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.CacheMisses))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/v1/board", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Events.WithLabelValues(events.TypePageCreated)))
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector("warrantboard")
	c.SetActiveSessions(2)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "warrantboard_active_sessions 2")
}
