package sse

import (
	"context"
	"sync"

	"ms-ordering/internal/models"
)

// Event is one server-sent lifecycle event: the SSE event name plus its
// JSON-serializable payload.
type Event struct {
	Name string
	Data interface{}
}

// OrderEventEmitter fans lifecycle events out to connected observers.
// Two kinds of rooms exist: the dashboard room every staff viewer joins, and
// one room per order for customers tracking it. Delivery is best-effort
// at-most-once; a reconnecting client re-fetches state over HTTP.
type OrderEventEmitter struct {
	dashboardClients []chan Event
	dashboardMutex   sync.RWMutex

	// key: orderID
	orderClients map[string][]chan Event
	orderMutex   sync.RWMutex
}

func NewOrderEventEmitter() *OrderEventEmitter {
	return &OrderEventEmitter{
		orderClients: make(map[string][]chan Event),
	}
}

// SubscribeDashboard adds a staff viewer to the dashboard room. The channel
// closes when ctx is done.
func (e *OrderEventEmitter) SubscribeDashboard(ctx context.Context) chan Event {
	clientChan := make(chan Event, 10)

	e.dashboardMutex.Lock()
	e.dashboardClients = append(e.dashboardClients, clientChan)
	e.dashboardMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeDashboardClient(clientChan)
	}()

	return clientChan
}

// SubscribeOrder adds a tracker to one order's room.
func (e *OrderEventEmitter) SubscribeOrder(ctx context.Context, orderID string) chan Event {
	clientChan := make(chan Event, 10)

	e.orderMutex.Lock()
	e.orderClients[orderID] = append(e.orderClients[orderID], clientChan)
	e.orderMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeOrderClient(orderID, clientChan)
	}()

	return clientChan
}

// EmitNewOrder notifies the dashboard room about a freshly created order.
func (e *OrderEventEmitter) EmitNewOrder(order models.OrderView) {
	e.broadcastDashboard(Event{Name: models.EventNewOrder, Data: order})
}

// EmitOrderUpdated notifies the dashboard room and the order's own room.
func (e *OrderEventEmitter) EmitOrderUpdated(order models.OrderView) {
	event := Event{Name: models.EventOrderUpdated, Data: order}
	e.broadcastDashboard(event)

	e.orderMutex.RLock()
	clients := e.orderClients[order.OrderID]
	e.orderMutex.RUnlock()

	for _, clientChan := range clients {
		select {
		case clientChan <- event:
		default:
			// Buffer full, this client falls back to its HTTP refresh.
		}
	}
}

// EmitOrdersDeleted tells dashboards to prune after a bulk purge.
func (e *OrderEventEmitter) EmitOrdersDeleted(event models.OrdersDeletedEvent) {
	e.broadcastDashboard(Event{Name: models.EventOrdersDeleted, Data: event})
}

func (e *OrderEventEmitter) broadcastDashboard(event Event) {
	e.dashboardMutex.RLock()
	clients := make([]chan Event, len(e.dashboardClients))
	copy(clients, e.dashboardClients)
	e.dashboardMutex.RUnlock()

	for _, clientChan := range clients {
		select {
		case clientChan <- event:
		default:
		}
	}
}

func (e *OrderEventEmitter) removeDashboardClient(clientChan chan Event) {
	e.dashboardMutex.Lock()
	defer e.dashboardMutex.Unlock()

	for i, ch := range e.dashboardClients {
		if ch == clientChan {
			e.dashboardClients = append(e.dashboardClients[:i], e.dashboardClients[i+1:]...)
			close(clientChan)
			break
		}
	}
}

func (e *OrderEventEmitter) removeOrderClient(orderID string, clientChan chan Event) {
	e.orderMutex.Lock()
	defer e.orderMutex.Unlock()

	clients := e.orderClients[orderID]
	for i, ch := range clients {
		if ch == clientChan {
			e.orderClients[orderID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.orderClients[orderID]) == 0 {
		delete(e.orderClients, orderID)
	}
}

// DashboardClientCount reports how many staff viewers are connected.
func (e *OrderEventEmitter) DashboardClientCount() int {
	e.dashboardMutex.RLock()
	defer e.dashboardMutex.RUnlock()
	return len(e.dashboardClients)
}

// OrderClientCount reports how many trackers one order's room has.
func (e *OrderEventEmitter) OrderClientCount(orderID string) int {
	e.orderMutex.RLock()
	defer e.orderMutex.RUnlock()
	return len(e.orderClients[orderID])
}
