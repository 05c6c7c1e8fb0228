package model

import "time"

// OrderStatus is the fulfillment state of a fertilizer order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// orderTransitions mirrors the listing lifecycle approach: orders advance
// pending -> confirmed -> shipped -> delivered, and may be cancelled while
// still pending.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderShipped},
	OrderShipped:   {OrderDelivered},
}

// CanTransition reports whether the edge s -> to exists.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderItem is one catalog line on an order. TotalPrice is always computed
// server-side as Quantity * PricePerKg at the price in effect when the
// order was placed.
type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    float64 `json:"quantity"`
	PricePerKg  float64 `json:"pricePerKg"`
	TotalPrice  float64 `json:"totalPrice"`
}

// Order mirrors the `orders` table plus its `order_items` rows. A single
// order addresses a single manufacturer; carts spanning manufacturers
// produce one order each.
type Order struct {
	ID                string      `json:"id"`
	BuyerID           string      `json:"buyerId"`
	BuyerName         string      `json:"buyerName"`
	ManufacturerID    string      `json:"manufacturerId"`
	ManufacturerName  string      `json:"manufacturerName"`
	Products          []OrderItem `json:"products"`
	TotalAmount       float64     `json:"totalAmount"`
	Status            OrderStatus `json:"status"`
	ShippingAddress   string      `json:"shippingAddress"`
	EstimatedDelivery *time.Time  `json:"estimatedDelivery,omitempty"`
	TrackingNumber    string      `json:"trackingNumber,omitempty"`
	PaymentMethod     string      `json:"paymentMethod"`
	Notes             string      `json:"notes,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// AllowStatusChange applies the actor rules for order transitions: the
// manufacturer (or admin) advances fulfillment, the buyer may only cancel
// a still-pending order.
func (o *Order) AllowStatusChange(to OrderStatus, callerID string, role Role) bool {
	if !o.Status.CanTransition(to) {
		return false
	}
	if role == RoleAdmin {
		return true
	}
	if to == OrderCancelled {
		return callerID == o.BuyerID || callerID == o.ManufacturerID
	}
	return callerID == o.ManufacturerID
}
