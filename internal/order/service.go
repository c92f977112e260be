package order

import (
	"fmt"
	"time"

	"ms-ordering/internal/apperrors"
	"ms-ordering/internal/config"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

type DBLayer interface {
	CreateOrder(order models.Order) error
	GetOrderByID(id string) (*models.Order, error)
	UpdateOrder(order models.Order) error
	ListOrders(status models.OrderStatus, limit int) ([]models.Order, error)
	DeleteOrder(id string) error
	DeleteCompletedOrders() (int, error)
}

// OrderLock serializes read-modify-write cycles on one order across the
// process fleet. The storage layer's version check remains the hard guard.
type OrderLock interface {
	LockOrder(orderID string) (bool, error)
	UnlockOrder(orderID string) error
}

// Broadcaster is the real-time fan-out to connected dashboards and trackers.
// Delivery is best-effort; failures never roll back a persisted write.
type Broadcaster interface {
	EmitNewOrder(order models.OrderView)
	EmitOrderUpdated(order models.OrderView)
	EmitOrdersDeleted(event models.OrdersDeletedEvent)
}

// KafkaPublisher streams lifecycle events to the durable event log.
type KafkaPublisher interface {
	PublishOrderCreated(order models.OrderView) error
	PublishOrderUpdated(order models.OrderView) error
	PublishOrdersDeleted(event models.OrdersDeletedEvent) error
}

type OrderService struct {
	DB     DBLayer
	Lock   OrderLock
	Events Broadcaster
	Kafka  KafkaPublisher
	Logger *logger.Logger
	Config config.OrderConfig
}

func NewOrderService(db DBLayer, lock OrderLock, events Broadcaster, kafka KafkaPublisher, log *logger.Logger, cfg config.OrderConfig) *OrderService {
	return &OrderService{DB: db, Lock: lock, Events: events, Kafka: kafka, Logger: log, Config: cfg}
}

// nextStatuses returns the legal forward steps from the current status.
// The lifecycle is linear with one branch: delivery orders pass through
// delivering, pickup orders complete straight from ready.
func nextStatuses(current models.OrderStatus, method models.DeliveryMethod) []models.OrderStatus {
	switch current {
	case models.StatusPending:
		return []models.OrderStatus{models.StatusConfirmed}
	case models.StatusConfirmed:
		return []models.OrderStatus{models.StatusPreparing}
	case models.StatusPreparing:
		return []models.OrderStatus{models.StatusReady}
	case models.StatusReady:
		if method == models.MethodDelivery {
			return []models.OrderStatus{models.StatusDelivering}
		}
		return []models.OrderStatus{models.StatusCompleted}
	case models.StatusDelivering:
		return []models.OrderStatus{models.StatusCompleted}
	default:
		return nil
	}
}

func (s *OrderService) deliveryFee(method models.DeliveryMethod) float64 {
	if method == models.MethodDelivery {
		return s.Config.DeliveryFee
	}
	return 0
}

func (s *OrderService) estimate(method models.DeliveryMethod) time.Duration {
	if method == models.MethodDelivery {
		return s.Config.DeliveryEstimate
	}
	return s.Config.PickupEstimate
}

// CreateOrder validates a submission, assigns a unique tracking code and
// persists the order as pending. The dashboard room is notified on success.
func (s *OrderService) CreateOrder(req models.CreateOrderRequest) (*models.Order, error) {
	if err := s.ValidateCreate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	fee := s.deliveryFee(req.DeliveryMethod)

	order := models.Order{
		Status:          models.StatusPending,
		DeliveryMethod:  req.DeliveryMethod,
		CustomerName:    req.Customer.Name,
		CustomerPhone:   req.Customer.Phone,
		CustomerEmail:   req.Customer.Email,
		CustomerAddress: req.Customer.Address,
		CustomerCity:    req.Customer.City,
		CustomerNotes:   req.Customer.Notes,
		Items:           req.Items,
		PaymentMethod:   req.Payment.Method,
		PaymentStatus:   models.PaymentPending,
		Subtotal:        req.Pricing.Subtotal,
		DeliveryFee:     fee,
		Total:           req.Pricing.Subtotal + fee,
		EstimatedTime:   now.Add(s.estimate(req.DeliveryMethod)),
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}

	// Tracking codes are short, so collisions happen; retry a bounded number
	// of times before giving up.
	var lastErr error
	created := false
	for attempt := 0; attempt < s.Config.IDGenAttempts; attempt++ {
		order.OrderID = utils.GenerateOrderID()
		err := s.DB.CreateOrder(order)
		if err == nil {
			created = true
			break
		}
		lastErr = err
		if apperrors.IsKind(err, apperrors.KindConflict) {
			s.Logger.LogOrder("CREATE", order.OrderID, "tracking code collision, retrying")
			continue
		}
		return nil, err
	}
	if !created {
		return nil, apperrors.Generation("could not allocate a unique order id", lastErr)
	}

	s.Logger.LogOrder("CREATE", order.OrderID, fmt.Sprintf("order created, %s, total %.2f", order.DeliveryMethod, order.Total))
	s.Events.EmitNewOrder(order.View())
	if err := s.Kafka.PublishOrderCreated(order.View()); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish order created %s: %v", order.OrderID, err))
	}

	return &order, nil
}

// SetStatus advances an order one legal step through the lifecycle. Setting
// the status it already has is accepted as a no-op so concurrent duplicate
// requests from the dashboard do not surface spurious errors.
func (s *OrderService) SetStatus(orderID string, newStatus models.OrderStatus) (*models.Order, error) {
	if !newStatus.Valid() {
		return nil, apperrors.Validation("invalid status value",
			apperrors.FieldError{Field: "status", Message: "unknown status " + string(newStatus)})
	}
	if newStatus == models.StatusCancelled {
		return nil, apperrors.InvalidTransition("cancellation requires a rejection reason, use the cancel endpoint")
	}

	unlock, err := s.lockOrder(orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == newStatus {
		s.Logger.LogOrder("STATUS", orderID, "already "+string(newStatus)+", no-op")
		return order, nil
	}
	if order.Status.Terminal() {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("order %s is %s and can no longer change status", orderID, order.Status))
	}
	if newStatus == models.StatusDelivering && order.DeliveryMethod == models.MethodPickup {
		return nil, apperrors.InvalidTransition("pickup orders never enter delivering")
	}
	if !contains(nextStatuses(order.Status, order.DeliveryMethod), newStatus) {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("cannot move order from %s to %s", order.Status, newStatus))
	}

	order.Status = newStatus
	order.UpdatedAt = time.Now().UTC()
	if err := s.DB.UpdateOrder(*order); err != nil {
		return nil, err
	}

	s.Logger.LogOrder("STATUS", orderID, "status set to "+string(newStatus))
	s.broadcastUpdated(*order)
	return order, nil
}

// Reject cancels a non-terminal order with a staff-supplied reason.
func (s *OrderService) Reject(orderID, reason string) (*models.Order, error) {
	if reason == "" {
		return nil, apperrors.Validation("rejection reason is required",
			apperrors.FieldError{Field: "rejectionReason", Message: "must not be empty"})
	}

	unlock, err := s.lockOrder(orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("order %s is already %s", orderID, order.Status))
	}

	now := time.Now().UTC()
	order.Status = models.StatusCancelled
	order.RejectionReason = reason
	order.RejectedAt = &now
	order.UpdatedAt = now
	if err := s.DB.UpdateOrder(*order); err != nil {
		return nil, err
	}

	s.Logger.LogOrder("REJECT", orderID, "order cancelled: "+reason)
	s.broadcastUpdated(*order)
	return order, nil
}

// ConfirmReceipt records the customer's "I received this" flag. Only completed
// orders can be confirmed; repeat calls are a no-op.
func (s *OrderService) ConfirmReceipt(orderID string) (*models.Order, error) {
	unlock, err := s.lockOrder(orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Confirmed {
		return order, nil
	}
	if order.Status != models.StatusCompleted {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("order %s is %s, receipt can only be confirmed once completed", orderID, order.Status))
	}

	now := time.Now().UTC()
	order.Confirmed = true
	order.ConfirmedAt = &now
	order.UpdatedAt = now
	if err := s.DB.UpdateOrder(*order); err != nil {
		return nil, err
	}

	s.Logger.LogOrder("CONFIRM", orderID, "receipt confirmed by customer")
	return order, nil
}

// AddReview attaches a customer review. A second submission is rejected
// unless overwriting is enabled in the config.
func (s *OrderService) AddReview(orderID string, req models.ReviewRequest) (*models.Order, error) {
	if err := ValidateReview(req); err != nil {
		return nil, err
	}

	unlock, err := s.lockOrder(orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Review != nil && !s.Config.AllowReviewOverwrite {
		return nil, apperrors.Conflict("order already has a review")
	}

	now := time.Now().UTC()
	order.Review = &models.Review{
		Rating:      req.Rating,
		Comment:     req.Comment,
		SubmittedAt: now,
	}
	order.UpdatedAt = now
	if err := s.DB.UpdateOrder(*order); err != nil {
		return nil, err
	}

	s.Logger.LogOrder("REVIEW", orderID, fmt.Sprintf("review submitted, rating %d", req.Rating))
	return order, nil
}

// PurgeCompleted deletes every completed order and tells dashboards to prune.
func (s *OrderService) PurgeCompleted() (int, error) {
	count, err := s.DB.DeleteCompletedOrders()
	if err != nil {
		return 0, err
	}

	event := models.OrdersDeletedEvent{Count: count, Status: models.StatusCompleted}
	s.Logger.LogOrder("PURGE", "bulk", fmt.Sprintf("%d completed orders deleted", count))
	s.Events.EmitOrdersDeleted(event)
	if err := s.Kafka.PublishOrdersDeleted(event); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish orders deleted: %v", err))
	}
	return count, nil
}

// DeleteOrder permanently removes one order regardless of status.
func (s *OrderService) DeleteOrder(orderID string) error {
	if err := s.DB.DeleteOrder(orderID); err != nil {
		return err
	}
	s.Logger.LogOrder("DELETE", orderID, "order permanently deleted")
	return nil
}

func (s *OrderService) GetOrder(orderID string) (*models.Order, error) {
	return s.DB.GetOrderByID(orderID)
}

// ListOrders returns orders newest-first, optionally filtered by status.
// An unknown status value is rejected rather than silently ignored.
func (s *OrderService) ListOrders(status string, limit int) ([]models.Order, error) {
	var statusFilter models.OrderStatus
	if status != "" {
		statusFilter = models.OrderStatus(status)
		if !statusFilter.Valid() {
			return nil, apperrors.Validation("invalid status filter",
				apperrors.FieldError{Field: "status", Message: "unknown status " + status})
		}
	}

	if limit <= 0 {
		limit = s.Config.DefaultListLimit
	}
	if limit > s.Config.MaxListLimit {
		limit = s.Config.MaxListLimit
	}

	return s.DB.ListOrders(statusFilter, limit)
}

func (s *OrderService) lockOrder(orderID string) (func(), error) {
	ok, err := s.Lock.LockOrder(orderID)
	if err != nil {
		return nil, apperrors.Storage("order lock failure", err)
	}
	if !ok {
		return nil, apperrors.Conflict("order is being modified by another request, retry")
	}
	return func() {
		if err := s.Lock.UnlockOrder(orderID); err != nil {
			s.Logger.Error("REDIS", fmt.Sprintf("unlock order %s: %v", orderID, err))
		}
	}, nil
}

func (s *OrderService) broadcastUpdated(order models.Order) {
	s.Events.EmitOrderUpdated(order.View())
	if err := s.Kafka.PublishOrderUpdated(order.View()); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish order updated %s: %v", order.OrderID, err))
	}
}

func contains(list []models.OrderStatus, status models.OrderStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}
