package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	"ms-ordering/internal/utils"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, Logger: log}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: failed to decode request body: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", "validation_error"))
		return
	}

	created, err := h.OrderService.CreateOrder(req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder failed: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("order created", created.View()))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if !utils.ValidOrderID(orderID) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid order id format", "validation_error"))
		return
	}

	orderData, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order found", orderData.View()))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("limit must be a number", "validation_error"))
			return
		}
		limit = parsed
	}

	orders, err := h.OrderService.ListOrders(status, limit)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	views := make([]models.OrderView, len(orders))
	for i := range orders {
		views[i] = orders[i].View()
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(fmt.Sprintf("%d orders", len(views)), views))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req models.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", "validation_error"))
		return
	}

	updated, err := h.OrderService.SetStatus(orderID, req.Status)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateStatus %s -> %s failed: %v", orderID, req.Status, err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("status updated", updated.View()))
}

// RejectOrder cancels with a reason; distinct from DeleteOrder, which removes
// the record entirely.
func (h *Handler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req models.RejectOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", "validation_error"))
		return
	}

	rejected, err := h.OrderService.Reject(orderID, req.RejectionReason)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RejectOrder %s failed: %v", orderID, err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order cancelled", rejected.View()))
}

func (h *Handler) ConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	confirmed, err := h.OrderService.ConfirmReceipt(orderID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("receipt confirmed", confirmed.View()))
}

func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", "validation_error"))
		return
	}

	reviewed, err := h.OrderService.AddReview(orderID, req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("review submitted", reviewed.View()))
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	if err := h.OrderService.DeleteOrder(orderID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteOrder %s failed: %v", orderID, err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order deleted successfully", map[string]string{"deletedOrder": orderID}))
}

func (h *Handler) PurgeCompleted(w http.ResponseWriter, r *http.Request) {
	count, err := h.OrderService.PurgeCompleted()
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(
		fmt.Sprintf("%d completed orders deleted", count),
		map[string]int{"deletedCount": count},
	))
}
