package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/order"
	"ms-ordering/internal/sse"
	"ms-ordering/internal/utils"
)

// SSEHandler streams order lifecycle events over Server-Sent Events.
// The dashboard stream is mounted behind the auth middleware; the per-order
// stream is public so customers can track their order without an account.
type SSEHandler struct {
	EventEmitter *sse.OrderEventEmitter
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewSSEHandler(emitter *sse.OrderEventEmitter, orderService *order.OrderService, log *logger.Logger) *SSEHandler {
	return &SSEHandler{EventEmitter: emitter, OrderService: orderService, Logger: log}
}

// HandleDashboardEvents streams every order event (new-order, order-updated,
// orders-deleted) to a staff dashboard client.
func (h *SSEHandler) HandleDashboardEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.setupSSEHeaders(w)

	// Create a context that cancels when the client disconnects
	ctx := r.Context()

	eventChan := h.EventEmitter.SubscribeDashboard(ctx)

	// Send initial connection established message
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"room\":\"dashboard\"}\n\n")
	flusher.Flush()

	h.Logger.Info("SSE", "Client connected to dashboard order events")

	h.streamEvents(ctx, w, flusher, eventChan, "dashboard")
}

// HandleOrderEvents streams order-updated events for a single order.
func (h *SSEHandler) HandleOrderEvents(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if !utils.ValidOrderID(orderID) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid order id format", "validation_error"))
		return
	}

	// Subscribing to an order that does not exist is a 404, not an empty stream
	if _, err := h.OrderService.GetOrder(orderID); err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Order lookup failed for %s: %v", orderID, err))
		utils.WriteError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.setupSSEHeaders(w)

	ctx := r.Context()

	eventChan := h.EventEmitter.SubscribeOrder(ctx, orderID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"orderID\":\"%s\"}\n\n", orderID)
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to events for order: %s", orderID))

	h.streamEvents(ctx, w, flusher, eventChan, orderID)
}

func (h *SSEHandler) streamEvents(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, eventChan chan sse.Event, room string) {
	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for room: %s", room))
				return
			}

			jsonData, err := json.Marshal(event.Data)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize order event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from room: %s", room))
			return
		}
	}
}

// Helper function to set up SSE headers
func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
