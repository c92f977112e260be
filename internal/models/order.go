package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusPreparing  OrderStatus = "preparing"
	StatusReady      OrderStatus = "ready"
	StatusDelivering OrderStatus = "delivering"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// AllStatuses lists every valid order status, in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
	StatusDelivering, StatusCompleted, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status transition is permitted.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type DeliveryMethod string

const (
	MethodDelivery DeliveryMethod = "delivery"
	MethodPickup   DeliveryMethod = "pickup"
)

func (m DeliveryMethod) Valid() bool {
	return m == MethodDelivery || m == MethodPickup
}

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentCash
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Size     string  `json:"size,omitempty"`
	Price    float64 `json:"price"`
	Notes    string  `json:"notes,omitempty"`
}

type Payment struct {
	Method PaymentMethod `json:"method"`
	Status PaymentStatus `json:"status"`
}

type Pricing struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	Total       float64 `json:"total"`
}

type Review struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Order is one customer purchase moving through the fulfillment lifecycle.
// The order row is the single source of truth; the version column guards every
// mutation against concurrent lost updates.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	OrderID        string         `bun:"order_id,pk" json:"orderId"`
	Status         OrderStatus    `bun:"status,notnull" json:"status"`
	DeliveryMethod DeliveryMethod `bun:"delivery_method,notnull" json:"deliveryMethod"`

	CustomerName    string `bun:"customer_name,notnull" json:"-"`
	CustomerPhone   string `bun:"customer_phone,notnull" json:"-"`
	CustomerEmail   string `bun:"customer_email,nullzero" json:"-"`
	CustomerAddress string `bun:"customer_address,nullzero" json:"-"`
	CustomerCity    string `bun:"customer_city,nullzero" json:"-"`
	CustomerNotes   string `bun:"customer_notes,nullzero" json:"-"`

	Items []OrderItem `bun:"items,type:jsonb" json:"items"`

	PaymentMethod PaymentMethod `bun:"payment_method,notnull" json:"-"`
	PaymentStatus PaymentStatus `bun:"payment_status,notnull" json:"-"`

	Subtotal    float64 `bun:"subtotal,notnull" json:"-"`
	DeliveryFee float64 `bun:"delivery_fee,notnull" json:"-"`
	Total       float64 `bun:"total,notnull" json:"-"`

	EstimatedTime time.Time  `bun:"estimated_time,nullzero" json:"estimatedTime"`
	Confirmed     bool       `bun:"confirmed,notnull,default:false" json:"confirmed"`
	ConfirmedAt   *time.Time `bun:"confirmed_at,nullzero" json:"confirmedAt,omitempty"`

	Review *Review `bun:"review,type:jsonb,nullzero" json:"review,omitempty"`

	RejectionReason string     `bun:"rejection_reason,nullzero" json:"rejectionReason,omitempty"`
	RejectedAt      *time.Time `bun:"rejected_at,nullzero" json:"rejectedAt,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
	Version   int64     `bun:"version,notnull,default:1" json:"-"`
}

// Customer collects the flattened customer columns for serialization.
func (o *Order) Customer() Customer {
	return Customer{
		Name:    o.CustomerName,
		Phone:   o.CustomerPhone,
		Email:   o.CustomerEmail,
		Address: o.CustomerAddress,
		City:    o.CustomerCity,
		Notes:   o.CustomerNotes,
	}
}

func (o *Order) Payment() Payment {
	return Payment{Method: o.PaymentMethod, Status: o.PaymentStatus}
}

func (o *Order) Pricing() Pricing {
	return Pricing{Subtotal: o.Subtotal, DeliveryFee: o.DeliveryFee, Total: o.Total}
}

// OrderView is the wire shape of an order: the flattened columns are folded
// back into the nested customer/payment/pricing objects that clients expect.
type OrderView struct {
	OrderID         string         `json:"orderId"`
	Status          OrderStatus    `json:"status"`
	DeliveryMethod  DeliveryMethod `json:"deliveryMethod"`
	Customer        Customer       `json:"customer"`
	Items           []OrderItem    `json:"items"`
	Payment         Payment        `json:"payment"`
	Pricing         Pricing        `json:"pricing"`
	EstimatedTime   time.Time      `json:"estimatedTime"`
	Confirmed       bool           `json:"confirmed"`
	ConfirmedAt     *time.Time     `json:"confirmedAt,omitempty"`
	Review          *Review        `json:"review,omitempty"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
	RejectedAt      *time.Time     `json:"rejectedAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (o *Order) View() OrderView {
	return OrderView{
		OrderID:         o.OrderID,
		Status:          o.Status,
		DeliveryMethod:  o.DeliveryMethod,
		Customer:        o.Customer(),
		Items:           o.Items,
		Payment:         o.Payment(),
		Pricing:         o.Pricing(),
		EstimatedTime:   o.EstimatedTime,
		Confirmed:       o.Confirmed,
		ConfirmedAt:     o.ConfirmedAt,
		Review:          o.Review,
		RejectionReason: o.RejectionReason,
		RejectedAt:      o.RejectedAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// CreateOrderRequest is the public order submission payload. Unknown shapes
// are rejected at the boundary; every field rule lives in order.ValidateCreate.
type CreateOrderRequest struct {
	DeliveryMethod DeliveryMethod `json:"deliveryMethod"`
	Customer       Customer       `json:"customer"`
	Items          []OrderItem    `json:"items"`
	Payment        struct {
		Method PaymentMethod `json:"method"`
	} `json:"payment"`
	Pricing struct {
		Subtotal    float64 `json:"subtotal"`
		DeliveryFee float64 `json:"deliveryFee"`
		Total       float64 `json:"total"`
	} `json:"pricing"`
}

type StatusUpdateRequest struct {
	Status OrderStatus `json:"status"`
}

type RejectOrderRequest struct {
	RejectionReason string `json:"rejectionReason"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Fan-out event names and payloads shared by the SSE emitter and the Kafka
// producer.
const (
	EventNewOrder      = "new-order"
	EventOrderUpdated  = "order-updated"
	EventOrdersDeleted = "orders-deleted"
)

type OrdersDeletedEvent struct {
	Count  int         `json:"count"`
	Status OrderStatus `json:"status"`
}
