package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/config"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	"ms-ordering/internal/order/api"
	"ms-ordering/internal/sse"
)

func setupSSE(t *testing.T) (*chi.Mux, *sse.OrderEventEmitter, *fakeDB) {
	t.Helper()

	db := newFakeDB()
	emitter := sse.NewOrderEventEmitter()
	svc := order.NewOrderService(db, fakeLock{}, emitter, nopPublisher{}, logger.NewSilentLogger(), config.OrderConfig{
		DefaultListLimit: 50,
		MaxListLimit:     200,
		IDGenAttempts:    5,
	})
	handler := api.NewSSEHandler(emitter, svc, logger.NewSilentLogger())

	r := chi.NewRouter()
	r.Get("/api/orders/events/dashboard", handler.HandleDashboardEvents)
	r.Get("/api/orders/{orderId}/events", handler.HandleOrderEvents)
	return r, emitter, db
}

func streamRequest(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, context.CancelFunc, chan struct{}) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()
	return w, cancel, done
}

func TestDashboardStream(t *testing.T) {
	router, emitter, _ := setupSSE(t)

	w, cancel, done := streamRequest(t, router, "/api/orders/events/dashboard")

	require.Eventually(t, func() bool {
		return emitter.DashboardClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	emitter.EmitNewOrder(models.OrderView{OrderID: "VPAAAAA", Status: models.StatusPending})

	// Give the handler a moment to flush before tearing the stream down
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: new-order")
	assert.Contains(t, body, `"orderId":"VPAAAAA"`)
	assert.Equal(t, "text/event-stream;charset=UTF-8", w.Header().Get("Content-Type"))
}

func TestOrderStream(t *testing.T) {
	router, emitter, db := setupSSE(t)
	seedOrder(db, "VPAAAAA", models.StatusPreparing)

	w, cancel, done := streamRequest(t, router, "/api/orders/VPAAAAA/events")

	require.Eventually(t, func() bool {
		return emitter.OrderClientCount("VPAAAAA") == 1
	}, time.Second, 10*time.Millisecond)

	emitter.EmitOrderUpdated(models.OrderView{OrderID: "VPAAAAA", Status: models.StatusReady})

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: order-updated")
	assert.Contains(t, body, `"status":"ready"`)
}

func TestOrderStreamUnknownOrder(t *testing.T) {
	router, _, _ := setupSSE(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/VPZZZZZ/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderStreamBadID(t *testing.T) {
	router, _, _ := setupSSE(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/nonsense/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
