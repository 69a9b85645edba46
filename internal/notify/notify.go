// Package notify delivers best-effort confirmation messages. Dispatch is
// decoupled from the request path through a bounded in-process queue: enqueue
// never blocks, send failures are logged and dropped, and each triggering
// event gets at most one attempt.
package notify

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/prodavnica/storefront/internal/domain/user"
)

// Kind discriminates queued messages.
type Kind int

const (
	// KindOrderPlaced confirms a created order.
	KindOrderPlaced Kind = iota
	// KindPaymentReceived confirms a completed payment.
	KindPaymentReceived
)

// Message is one queued notification.
type Message struct {
	Kind        Kind
	UserID      string
	OrderID     string
	Total       decimal.Decimal
	AmountMinor int64
	Currency    string
}

// Mailer sends a single plain-text message.
type Mailer interface {
	Send(to, subject, body string) error
}

// Dispatcher is the queue plus its single background worker. It implements
// the order and payment Notifier interfaces.
type Dispatcher struct {
	queue  chan Message
	users  user.Repository
	mailer Mailer
	lg     *zap.Logger
}

// NewDispatcher creates a Dispatcher with the given queue capacity.
// Run must be started for messages to be delivered.
func NewDispatcher(users user.Repository, mailer Mailer, lg *zap.Logger, buffer int) *Dispatcher {
	return &Dispatcher{
		queue:  make(chan Message, buffer),
		users:  users,
		mailer: mailer,
		lg:     lg.Named("notify"),
	}
}

// OrderPlaced enqueues an order confirmation.
func (d *Dispatcher) OrderPlaced(userID, orderID string, total decimal.Decimal) {
	d.enqueue(Message{
		Kind:    KindOrderPlaced,
		UserID:  userID,
		OrderID: orderID,
		Total:   total,
	})
}

// PaymentReceived enqueues a payment confirmation.
func (d *Dispatcher) PaymentReceived(userID string, amountMinor int64, currency string) {
	d.enqueue(Message{
		Kind:        KindPaymentReceived,
		UserID:      userID,
		AmountMinor: amountMinor,
		Currency:    currency,
	})
}

// enqueue never blocks: when the queue is full the message is dropped and
// logged. A slow mail provider must not delay order or payment confirmation.
func (d *Dispatcher) enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.lg.Warn("notification queue full, dropping message",
			zap.Int("kind", int(msg.Kind)),
			zap.String("user_id", msg.UserID),
		)
	}
}

// Run processes queued messages until ctx is cancelled. It always returns
// nil: notification failure is never an application failure.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		}
	}
}

// deliver resolves the recipient and sends exactly once. Errors are logged
// and swallowed.
func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	u, err := d.users.GetByID(ctx, msg.UserID)
	if err != nil {
		d.lg.Error("resolve notification recipient",
			zap.String("user_id", msg.UserID),
			zap.Error(err),
		)
		return
	}

	subject, body := compose(msg)
	if err := d.mailer.Send(u.Email, subject, body); err != nil {
		d.lg.Error("send notification",
			zap.String("user_id", msg.UserID),
			zap.Int("kind", int(msg.Kind)),
			zap.Error(err),
		)
		return
	}

	d.lg.Info("notification sent",
		zap.String("user_id", msg.UserID),
		zap.Int("kind", int(msg.Kind)),
	)
}

func compose(msg Message) (subject, body string) {
	switch msg.Kind {
	case KindPaymentReceived:
		amount := decimal.New(msg.AmountMinor, -2)
		return "Payment confirmation",
			fmt.Sprintf("Your payment of %s %s was received. Thank you for your purchase!",
				amount.StringFixed(2), msg.Currency)
	default:
		return "Order confirmation",
			fmt.Sprintf("Your order %s totaling %s has been placed. Thank you for your purchase!",
				msg.OrderID, msg.Total.StringFixed(2))
	}
}
