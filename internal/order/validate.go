package order

import (
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"ms-ordering/internal/apperrors"
	"ms-ordering/internal/models"
)

var phonePattern = regexp.MustCompile(`^[0-9+\s\-()]+$`)

const (
	maxNameLen    = 100
	minNameLen    = 2
	maxAddressLen = 200
	maxCityLen    = 100
	maxNotesLen   = 500
	maxQuantity   = 99
	maxCommentLen = 500
)

// ValidateCreate checks every field rule of an order submission and returns a
// single validation error naming all failing fields at once.
func (s *OrderService) ValidateCreate(req models.CreateOrderRequest) error {
	var fields []apperrors.FieldError

	add := func(field, message string) {
		fields = append(fields, apperrors.FieldError{Field: field, Message: message})
	}

	if !req.DeliveryMethod.Valid() {
		add("deliveryMethod", "must be delivery or pickup")
	}

	name := strings.TrimSpace(req.Customer.Name)
	if name == "" {
		add("customer.name", "customer name is required")
	} else if utf8.RuneCountInString(name) < minNameLen || utf8.RuneCountInString(name) > maxNameLen {
		add("customer.name", fmt.Sprintf("name must be between %d and %d characters", minNameLen, maxNameLen))
	}

	phone := strings.TrimSpace(req.Customer.Phone)
	if phone == "" {
		add("customer.phone", "phone number is required")
	} else if !phonePattern.MatchString(phone) {
		add("customer.phone", "invalid phone number format")
	}

	if email := strings.TrimSpace(req.Customer.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			add("customer.email", "invalid email address")
		}
	}

	if utf8.RuneCountInString(req.Customer.Address) > maxAddressLen {
		add("customer.address", "address too long")
	}
	if utf8.RuneCountInString(req.Customer.City) > maxCityLen {
		add("customer.city", "city name too long")
	}
	if utf8.RuneCountInString(req.Customer.Notes) > maxNotesLen {
		add("customer.notes", "notes too long")
	}

	if req.DeliveryMethod == models.MethodDelivery {
		if strings.TrimSpace(req.Customer.Address) == "" {
			add("customer.address", "address is required for delivery orders")
		}
		if strings.TrimSpace(req.Customer.City) == "" {
			add("customer.city", "city is required for delivery orders")
		}
	}

	if len(req.Items) == 0 {
		add("items", "order must contain at least one item")
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			add(fmt.Sprintf("items[%d].name", i), "item name is required")
		}
		if item.Quantity < 1 || item.Quantity > maxQuantity {
			add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("quantity must be between 1 and %d", maxQuantity))
		}
		if item.Price < 0 {
			add(fmt.Sprintf("items[%d].price", i), "price must be a positive number")
		}
		if utf8.RuneCountInString(item.Notes) > maxNotesLen {
			add(fmt.Sprintf("items[%d].notes", i), "notes too long")
		}
	}

	if !req.Payment.Method.Valid() {
		add("payment.method", "payment method must be card or cash")
	}

	if req.Pricing.Subtotal < 0 {
		add("pricing.subtotal", "subtotal must be a positive number")
	}
	if req.Pricing.Total < 0 {
		add("pricing.total", "total must be a positive number")
	}

	// The client supplies pricing for display, but the server recomputes the
	// fee and total and refuses totals that do not add up.
	if req.DeliveryMethod.Valid() && req.Pricing.Subtotal >= 0 {
		fee := s.deliveryFee(req.DeliveryMethod)
		if !moneyEqual(req.Pricing.Total, req.Pricing.Subtotal+fee) {
			add("pricing.total", "total does not match subtotal plus delivery fee")
		}
	}

	if len(fields) > 0 {
		return apperrors.Validation("order validation failed", fields...)
	}
	return nil
}

// ValidateReview checks a review submission.
func ValidateReview(req models.ReviewRequest) error {
	var fields []apperrors.FieldError
	if req.Rating < 1 || req.Rating > 5 {
		fields = append(fields, apperrors.FieldError{Field: "rating", Message: "rating must be between 1 and 5"})
	}
	if utf8.RuneCountInString(req.Comment) > maxCommentLen {
		fields = append(fields, apperrors.FieldError{Field: "comment", Message: fmt.Sprintf("comment must not exceed %d characters", maxCommentLen)})
	}
	if len(fields) > 0 {
		return apperrors.Validation("review validation failed", fields...)
	}
	return nil
}

// moneyEqual compares currency amounts tolerating float representation noise.
func moneyEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}
