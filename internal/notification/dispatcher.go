package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).ParseFS(templateFS, "templates/*.tmpl"))

// OrderEmail is everything the order emails render.
type OrderEmail struct {
	OrderID int64
	entity.PlaceOrder
}

// Result reports which of the two messages were accepted.
type Result struct {
	Merchant bool `json:"merchant"`
	Customer bool `json:"customer"`
}

// Dispatcher sends the merchant and customer emails for a placed order.
type Dispatcher struct {
	sender         Sender
	merchantEmail  string
	revolutContact string
}

// NewDispatcher returns a dispatcher that sends through sender. A nil sender
// gives a disabled dispatcher that only logs.
func NewDispatcher(sender Sender, merchantEmail, revolutContact string) *Dispatcher {
	return &Dispatcher{
		sender:         sender,
		merchantEmail:  merchantEmail,
		revolutContact: revolutContact,
	}
}

type emailView struct {
	OrderEmail
	RevolutContact string
}

// OrderPlaced renders and sends both emails. The customer email is attempted
// even when the merchant notification fails. Errors are logged, not returned.
func (d *Dispatcher) OrderPlaced(ctx context.Context, order OrderEmail) Result {
	var res Result
	if d.sender == nil {
		slog.Info("Email notifications disabled; skipping order emails", "order_id", order.OrderID)
		return res
	}

	view := emailView{OrderEmail: order, RevolutContact: d.revolutContact}

	res.Merchant = d.send(ctx, order.OrderID, "merchant.tmpl", Message{
		To:      d.merchantEmail,
		Subject: fmt.Sprintf("Nueva Orden #%d - %s", order.OrderID, order.CustomerName),
	}, view)

	res.Customer = d.send(ctx, order.OrderID, "customer.tmpl", Message{
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("Confirmación de Pedido #%d - Tica Shop", order.OrderID),
	}, view)

	return res
}

func (d *Dispatcher) send(ctx context.Context, orderID int64, tmpl string, msg Message, view emailView) bool {
	text, err := render(tmpl, view)
	if err != nil {
		slog.Error("Failed to render order email", "order_id", orderID, "template", tmpl, "err", err)
		return false
	}
	msg.Text = text

	if err := d.sender.Send(ctx, msg); err != nil {
		slog.Error("Failed to send order email", "order_id", orderID, "to", msg.To, "err", err)
		return false
	}
	slog.Info("Order email sent", "order_id", orderID, "to", msg.To)
	return true
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
