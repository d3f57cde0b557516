package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dasieloski/habaluna-storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

// EventItem is one order line in a completion event.
type EventItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	VariantID   string `json:"variant_id,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// CompletedEvent is published after a successful checkout. It carries the
// transaction id so consumers can reconcile orders whose payment patch
// was lost.
type CompletedEvent struct {
	OrderID       string      `json:"order_id"`
	UserID        string      `json:"user_id"`
	Items         []EventItem `json:"items"`
	TotalAmount   string      `json:"total_amount"`
	Currency      string      `json:"currency"`
	TransactionID string      `json:"transaction_id"`
	CompletedAt   time.Time   `json:"completed_at"`
}

func NewCompletedEvent(userID string, order *domain.Order, payment *domain.PaymentResult) CompletedEvent {
	items := make([]EventItem, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, EventItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			VariantID:   line.VariantID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.String(),
		})
	}
	return CompletedEvent{
		OrderID:       order.ID,
		UserID:        userID,
		Items:         items,
		TotalAmount:   order.Total.String(),
		Currency:      order.Currency,
		TransactionID: payment.TransactionID,
		CompletedAt:   time.Now().UTC(),
	}
}

// KafkaPublisher writes completion events to the checkout-completed
// topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  "checkout-completed",
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) PublishCompleted(ctx context.Context, ev CompletedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal completion event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("write completion event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
