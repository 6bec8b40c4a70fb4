package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestNewPaymentRegistered_Payload(t *testing.T) {
	evt := NewPaymentRegistered(42, decimal.RequireFromString("300"), models.InvoiceStatusSent, decimal.RequireFromString("200.5"))

	assert.Equal(t, TypePaymentRegistered, evt.Type)
	assert.Equal(t, []string{"invoices.42", "finance.dashboard"}, evt.Channels)
	assert.NotEmpty(t, evt.ID)

	raw, err := json.Marshal(evt.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"invoice_id":42,"new_balance":"300.00","status":"sent","payment_amount":"200.50"}`, string(raw))
}

func TestNewCommentChanged_ChannelsAndBody(t *testing.T) {
	comment := models.Comment{ID: 9, UserID: 3, TargetType: models.CommentTargetStage, TargetID: 14, Body: "Looks good"}

	created := NewCommentChanged(TypeCommentCreated, comment)
	assert.Equal(t, []string{"comments.stage.14"}, created.Channels)
	assert.Equal(t, "Looks good", created.Data.(CommentChanged).Body)

	deleted := NewCommentChanged(TypeCommentDeleted, comment)
	assert.Equal(t, TypeCommentDeleted, deleted.Type)
	assert.Empty(t, deleted.Data.(CommentChanged).Body)
	assert.Equal(t, uint64(9), deleted.Data.(CommentChanged).CommentID)
}

func TestAMQPPublisher_RoutesByType(t *testing.T) {
	ch := &fakeChannel{}
	pub := &AMQPPublisher{log: logger.NewNop(), channel: ch}

	evt := NewInvoiceStatusChanged(7, models.InvoiceStatusDraft, models.InvoiceStatusSent)
	require.NoError(t, pub.Publish(context.Background(), evt))

	assert.Equal(t, ExchangeName, ch.exchange)
	assert.Equal(t, TypeInvoiceStatusChanged, ch.key)
	assert.Equal(t, amqp091.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, evt.ID, ch.msg.MessageId)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, TypeInvoiceStatusChanged, decoded["type"])

	require.NoError(t, pub.Close())
	assert.True(t, ch.closed)
}

func TestPublishAfterCommit_LogsFailure(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := logger.FromZap(zap.New(core))
	pub := &AMQPPublisher{log: log, channel: &fakeChannel{err: errors.New("broker down")}}

	PublishAfterCommit(context.Background(), pub, log, NewInvoiceStatusChanged(1, models.InvoiceStatusSent, models.InvoiceStatusOverdue))

	require.Equal(t, 1, logs.FilterMessage("failed to publish event").Len())
}

func TestNew_SelectsTransport(t *testing.T) {
	pub, err := New("none", Options{}, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogPublisher{}, pub)
	assert.NoError(t, pub.Publish(context.Background(), NewInvoiceStatusChanged(1, models.InvoiceStatusDraft, models.InvoiceStatusSent)))

	_, err = New("kafka", Options{}, logger.NewNop())
	assert.Error(t, err)

	_, err = New("redis", Options{}, logger.NewNop())
	assert.Error(t, err)
}
