package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/constants"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
)

// Event types
const (
	TypePaymentRegistered    = "payment.registered"
	TypeInvoiceStatusChanged = "invoice.status_changed"
	TypeCommentCreated       = "comment.created"
	TypeCommentUpdated       = "comment.updated"
	TypeCommentDeleted       = "comment.deleted"
)

// Event is the envelope published to every transport.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Channels   []string  `json:"channels"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Publisher delivers events to subscribers outside the request.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// PaymentRegistered is the payload announced after a payment commits.
type PaymentRegistered struct {
	InvoiceID     uint64               `json:"invoice_id"`
	NewBalance    string               `json:"new_balance"`
	Status        models.InvoiceStatus `json:"status"`
	PaymentAmount string               `json:"payment_amount"`
}

// InvoiceStatusChanged is announced on every invoice status transition, payment-driven ones included.
type InvoiceStatusChanged struct {
	InvoiceID uint64               `json:"invoice_id"`
	From      models.InvoiceStatus `json:"from"`
	To        models.InvoiceStatus `json:"to"`
}

// CommentChanged is announced when a comment is created, edited or deleted.
// Body is empty for deletions.
type CommentChanged struct {
	CommentID  uint64               `json:"comment_id"`
	TargetType models.CommentTarget `json:"target_type"`
	TargetID   uint64               `json:"target_id"`
	UserID     uint64               `json:"user_id"`
	Body       string               `json:"body,omitempty"`
}

func newEvent(typ string, channels []string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Channels:   channels,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// InvoiceChannels are the channels an invoice event is fanned out to.
func InvoiceChannels(invoiceID uint64) []string {
	return []string{
		constants.ChannelInvoicePrefix + strconv.FormatUint(invoiceID, 10),
		constants.ChannelFinanceDashboard,
	}
}

// CommentChannels is the thread channel of a task or stage.
func CommentChannels(target models.CommentTarget, targetID uint64) []string {
	return []string{
		constants.ChannelCommentPrefix + string(target) + "." + strconv.FormatUint(targetID, 10),
	}
}

func NewPaymentRegistered(invoiceID uint64, newBalance decimal.Decimal, status models.InvoiceStatus, amount decimal.Decimal) Event {
	return newEvent(TypePaymentRegistered, InvoiceChannels(invoiceID), PaymentRegistered{
		InvoiceID:     invoiceID,
		NewBalance:    money.Format(newBalance),
		Status:        status,
		PaymentAmount: money.Format(amount),
	})
}

func NewInvoiceStatusChanged(invoiceID uint64, from, to models.InvoiceStatus) Event {
	return newEvent(TypeInvoiceStatusChanged, InvoiceChannels(invoiceID), InvoiceStatusChanged{
		InvoiceID: invoiceID,
		From:      from,
		To:        to,
	})
}

// NewCommentChanged builds a comment event of the given type.
func NewCommentChanged(typ string, comment models.Comment) Event {
	data := CommentChanged{
		CommentID:  comment.ID,
		TargetType: comment.TargetType,
		TargetID:   comment.TargetID,
		UserID:     comment.UserID,
	}
	if typ != TypeCommentDeleted {
		data.Body = comment.Body
	}
	return newEvent(typ, CommentChannels(comment.TargetType, comment.TargetID), data)
}

// LogPublisher only logs events. Used when no bus is configured.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.With("service", "LogPublisher")}
}

func (p *LogPublisher) Publish(_ context.Context, evt Event) error {
	p.log.Info("event", "id", evt.ID, "type", evt.Type, "channels", evt.Channels, "data", evt.Data)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// New builds the publisher selected by kind: "redis", "amqp" or "none".
func New(kind string, opts Options, log *logger.Logger) (Publisher, error) {
	switch kind {
	case "", "none", "log":
		return NewLogPublisher(log), nil
	case "redis":
		pub, err := NewRedisPublisher(opts.RedisAddr, opts.Channel, log)
		if err != nil {
			return nil, err
		}
		return pub, nil
	case "amqp":
		pub, err := NewAMQPPublisher(opts.AMQPURL, log)
		if err != nil {
			return nil, err
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("unknown event bus %q", kind)
	}
}

// Options carries transport settings for New.
type Options struct {
	RedisAddr string
	Channel   string
	AMQPURL   string
}

// PublishAfterCommit publishes evt and logs, rather than returns, any failure.
// The state change the event describes is already durable.
func PublishAfterCommit(ctx context.Context, pub Publisher, log *logger.Logger, evt Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, evt); err != nil {
		log.Warn("failed to publish event", "type", evt.Type, "id", evt.ID, "error", err)
	}
}
