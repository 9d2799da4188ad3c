package broker

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/egannguyen/tica-shop/internal/entity"
)

// AuditOrderPlaced writes one structured log line per placed order.
func AuditOrderPlaced(msg *message.Message) error {
	var event entity.OrderPlaced
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// Malformed payloads are dropped; retrying cannot fix them.
		slog.Error("Dropping undecodable OrderPlaced event", "message_id", msg.UUID, "err", err)
		return nil
	}
	if event.OrderID == 0 {
		return fmt.Errorf("order placed event %s has no order id", msg.UUID)
	}

	units := 0
	for _, item := range event.Items {
		units += item.Quantity
	}

	slog.Info("📦 Order placed",
		"message_id", msg.UUID,
		"order_id", event.OrderID,
		"customer_email", event.CustomerEmail,
		"lines", len(event.Items),
		"units", units,
		"total", event.Total.StringFixed(2),
		"payment_method", event.PaymentMethod,
		"placed_at", event.PlacedAt,
	)
	return nil
}
