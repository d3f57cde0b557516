package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the backend-side state of an order.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
)

// Address is a shipping or billing address. Phone is optional, everything
// else is required by the checkout schema.
type Address struct {
	Name    string `json:"name" validate:"required"`
	Line1   string `json:"line1" validate:"required"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
	Country string `json:"country" validate:"required,iso3166_1_alpha2"`
	Phone   string `json:"phone,omitempty"`
}

// OrderLine is a snapshot of a validated cart line at order time.
type OrderLine struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	VariantID   string          `json:"variantId,omitempty"`
	VariantName string          `json:"variantName,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

// Order is created by the commerce backend at checkout. This layer creates
// it once, patches the payment reference once, and never mutates it again.
type Order struct {
	ID              string          `json:"id"`
	Status          OrderStatus     `json:"status"`
	Items           []OrderLine     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	ShippingAddress Address         `json:"shippingAddress"`
	BillingAddress  Address         `json:"billingAddress"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// PaymentResult is what the external payment step yields on success.
type PaymentResult struct {
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
}
