package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_HandlerServesExpositionFormat(t *testing.T) {
	reg := New()
	reg.OrdersProcessed.WithLabelValues("filled").Inc()
	reg.TradesEmitted.Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "ironbook_orders_processed_total")
	assert.Contains(t, rec.Body.String(), "ironbook_trades_emitted_total")
}
