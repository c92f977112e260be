package sse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/models"
	"ms-ordering/internal/sse"
)

func orderView(id string, status models.OrderStatus) models.OrderView {
	return models.OrderView{OrderID: id, Status: status}
}

func receive(t *testing.T, ch chan sse.Event) sse.Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return sse.Event{}
	}
}

func assertNoEvent(t *testing.T, ch chan sse.Event) {
	t.Helper()
	select {
	case event := <-ch:
		t.Fatalf("unexpected event %q", event.Name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewOrderReachesDashboardOnly(t *testing.T) {
	emitter := sse.NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dashboard := emitter.SubscribeDashboard(ctx)
	tracker := emitter.SubscribeOrder(ctx, "VPAAAAA")

	emitter.EmitNewOrder(orderView("VPAAAAA", models.StatusPending))

	event := receive(t, dashboard)
	assert.Equal(t, models.EventNewOrder, event.Name)
	view, ok := event.Data.(models.OrderView)
	require.True(t, ok)
	assert.Equal(t, "VPAAAAA", view.OrderID)

	assertNoEvent(t, tracker)
}

func TestOrderUpdatedReachesDashboardAndOwnRoom(t *testing.T) {
	emitter := sse.NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dashboard := emitter.SubscribeDashboard(ctx)
	ownRoom := emitter.SubscribeOrder(ctx, "VPAAAAA")
	otherRoom := emitter.SubscribeOrder(ctx, "VPBBBBB")

	emitter.EmitOrderUpdated(orderView("VPAAAAA", models.StatusPreparing))

	assert.Equal(t, models.EventOrderUpdated, receive(t, dashboard).Name)
	assert.Equal(t, models.EventOrderUpdated, receive(t, ownRoom).Name)
	assertNoEvent(t, otherRoom)
}

func TestOrdersDeletedReachesDashboard(t *testing.T) {
	emitter := sse.NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dashboard := emitter.SubscribeDashboard(ctx)

	emitter.EmitOrdersDeleted(models.OrdersDeletedEvent{Count: 3, Status: models.StatusCompleted})

	event := receive(t, dashboard)
	assert.Equal(t, models.EventOrdersDeleted, event.Name)
	payload, ok := event.Data.(models.OrdersDeletedEvent)
	require.True(t, ok)
	assert.Equal(t, 3, payload.Count)
}

func TestAllDashboardClientsReceive(t *testing.T) {
	emitter := sse.NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := emitter.SubscribeDashboard(ctx)
	second := emitter.SubscribeDashboard(ctx)
	assert.Equal(t, 2, emitter.DashboardClientCount())

	emitter.EmitNewOrder(orderView("VPAAAAA", models.StatusPending))

	assert.Equal(t, models.EventNewOrder, receive(t, first).Name)
	assert.Equal(t, models.EventNewOrder, receive(t, second).Name)
}

func TestSubscriberRemovedOnContextCancel(t *testing.T) {
	emitter := sse.NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := emitter.SubscribeOrder(ctx, "VPAAAAA")
	require.Equal(t, 1, emitter.OrderClientCount("VPAAAAA"))

	cancel()

	require.Eventually(t, func() bool {
		return emitter.OrderClientCount("VPAAAAA") == 0
	}, time.Second, 10*time.Millisecond)

	_, open := <-ch
	assert.False(t, open, "channel must be closed after unsubscribe")
}

func TestSlowClientDoesNotBlockEmit(t *testing.T) {
	emitter := sse.NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitter.SubscribeDashboard(ctx) // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			emitter.EmitNewOrder(orderView("VPAAAAA", models.StatusPending))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a slow client")
	}
}
