package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"blog-server/internal/interfaces/mocks"
	"blog-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAck) Ack(bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func TestMailProcessor_Process(t *testing.T) {
	ctx := context.Background()
	msg := models.Mail{To: "alice@example.com", Subject: "Password reset", Body: "link"}
	body, _ := json.Marshal(msg)

	t.Run("delivered", func(t *testing.T) {
		m := new(mocks.Mailer)
		m.On("Send", mock.Anything, msg).Return(nil).Once()
		ack := &fakeAck{}
		NewMailProcessor(m, zap.NewNop()).Process(ctx, body, false, ack)
		assert.True(t, ack.acked)
		assert.False(t, ack.nacked)
		m.AssertExpectations(t)
	})

	t.Run("first failure is requeued", func(t *testing.T) {
		m := new(mocks.Mailer)
		m.On("Send", mock.Anything, msg).Return(errors.New("smtp down")).Once()
		ack := &fakeAck{}
		NewMailProcessor(m, zap.NewNop()).Process(ctx, body, false, ack)
		assert.True(t, ack.nacked)
		assert.True(t, ack.requeue)
	})

	t.Run("second failure is dropped", func(t *testing.T) {
		m := new(mocks.Mailer)
		m.On("Send", mock.Anything, msg).Return(errors.New("smtp down")).Once()
		ack := &fakeAck{}
		NewMailProcessor(m, zap.NewNop()).Process(ctx, body, true, ack)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
	})

	t.Run("malformed json", func(t *testing.T) {
		m := new(mocks.Mailer)
		ack := &fakeAck{}
		NewMailProcessor(m, zap.NewNop()).Process(ctx, []byte("{"), false, ack)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
		m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("missing recipient", func(t *testing.T) {
		m := new(mocks.Mailer)
		ack := &fakeAck{}
		NewMailProcessor(m, zap.NewNop()).Process(ctx, []byte(`{"subject":"x"}`), false, ack)
		assert.True(t, ack.nacked)
		m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}
