package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus describes order lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus describes payment progress of an order.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// FulfillmentStatus describes delivery progress of an order.
type FulfillmentStatus string

const (
	FulfillmentStatusPending   FulfillmentStatus = "pending"
	FulfillmentStatusCancelled FulfillmentStatus = "cancelled"
	FulfillmentStatusShipped   FulfillmentStatus = "shipped"
	FulfillmentStatusDelivered FulfillmentStatus = "delivered"
)

// OrderType distinguishes purchases from settlement orders created by draws.
type OrderType string

const (
	OrderTypePurchase   OrderType = "purchase"
	OrderTypeLotteryWin OrderType = "lottery_win"
)

// OrderState is the status triple every conditional order update matches on.
type OrderState struct {
	Status      OrderStatus
	Payment     PaymentStatus
	Fulfillment FulfillmentStatus
}

var (
	// OrderStatePending holds a live reservation.
	OrderStatePending = OrderState{
		Status:      OrderStatusPending,
		Payment:     PaymentStatusPending,
		Fulfillment: FulfillmentStatusPending,
	}
	// OrderStateExpired is reached once by reclamation.
	OrderStateExpired = OrderState{
		Status:      OrderStatusExpired,
		Payment:     PaymentStatusCancelled,
		Fulfillment: FulfillmentStatusCancelled,
	}
)

// Order ties a user to a product or round and an inventory reservation.
type Order struct {
	ID                uuid.UUID
	OrderNumber       string
	UserID            uuid.UUID
	ProductID         *uuid.UUID
	RoundID           *uuid.UUID
	Type              OrderType
	Quantity          int
	TotalAmount       decimal.Decimal
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	FulfillmentStatus FulfillmentStatus
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// State returns the order's current status triple.
func (o *Order) State() OrderState {
	return OrderState{Status: o.Status, Payment: o.PaymentStatus, Fulfillment: o.FulfillmentStatus}
}

// SetState overwrites the status triple.
func (o *Order) SetState(s OrderState) {
	o.Status = s.Status
	o.PaymentStatus = s.Payment
	o.FulfillmentStatus = s.Fulfillment
}
