package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/order"
	"ms-ordering/internal/order/qr"
	"ms-ordering/internal/utils"
)

type QRHandler struct {
	Generator    *qr.QRGenerator
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewQRHandler(generator *qr.QRGenerator, orderService *order.OrderService, log *logger.Logger) *QRHandler {
	return &QRHandler{Generator: generator, OrderService: orderService, Logger: log}
}

// TrackingQR serves a PNG QR code pointing at the tracking page for an order.
func (h *QRHandler) TrackingQR(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if !utils.ValidOrderID(orderID) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid order id format", "validation_error"))
		return
	}

	if _, err := h.OrderService.GetOrder(orderID); err != nil {
		utils.WriteError(w, err)
		return
	}

	png, err := h.Generator.GenerateTrackingQR(orderID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("QR generation failed for %s: %v", orderID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to generate QR code", "generation_error"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
