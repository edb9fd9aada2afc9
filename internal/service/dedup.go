package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PurchaseDedupKey derives the Purchase event id from an order id. The
// polling path and the gateway webhook can both observe the same settled
// payment; Meta only counts the conversion once because both paths derive
// the event id through this one function.
func PurchaseDedupKey(orderID string) string {
	return orderID
}

// CheckoutDedupKey derives the InitiateCheckout event id for an order. The
// prefix keeps it from ever colliding with the Purchase key of the same
// order.
func CheckoutDedupKey(orderID string) string {
	return "IC_" + orderID
}

// NewOrderID mints a globally unique order id for one checkout attempt.
func NewOrderID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("AAB-%d-%s", time.Now().UnixMilli(), suffix)
}
