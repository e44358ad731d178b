package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"blog-server/internal/interfaces/mocks"
	"blog-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type resetFixture struct {
	users  *mocks.UserRepository
	resets *mocks.ResetTokenRepository
	tokens *mocks.TokenRepository
	mailer *mocks.Mailer
	svc    *passwordResetServiceImpl
}

func newResetFixture() *resetFixture {
	f := &resetFixture{
		users:  new(mocks.UserRepository),
		resets: new(mocks.ResetTokenRepository),
		tokens: new(mocks.TokenRepository),
		mailer: new(mocks.Mailer),
	}
	f.svc = NewPasswordResetService(f.users, f.resets, f.tokens, f.mailer, nil, testConfig(), zap.NewNop()).(*passwordResetServiceImpl)
	f.svc.newToken = func() string { return "tok-123" }
	return f
}

func TestRequestReset_UnknownEmailLooksTheSame(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture()
	f.users.On("GetUserByEmail", ctx, "ghost@example.com").Return(nil, models.ErrUserNotFound)

	assert.NoError(t, f.svc.RequestReset(ctx, " Ghost@Example.com "))
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	f.resets.AssertNotCalled(t, "StoreResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestReset_InactiveAccountGetsNoMail(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture()
	u := regularUser("alice")
	u.Email = "alice@example.com"
	u.IsActive = false
	f.users.On("GetUserByEmail", ctx, "alice@example.com").Return(u, nil)

	assert.NoError(t, f.svc.RequestReset(ctx, "alice@example.com"))
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRequestReset_SendsLink(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture()
	u := regularUser("alice")
	u.Email = "alice@example.com"
	f.users.On("GetUserByEmail", ctx, "alice@example.com").Return(u, nil)
	f.resets.On("StoreResetToken", ctx, "tok-123", u.ID, testConfig().PasswordResetTTL).Return(nil)
	f.mailer.On("Send", ctx, mock.MatchedBy(func(m models.Mail) bool {
		return m.To == "alice@example.com" &&
			strings.Contains(m.Body, "https://blog.example.com/auth/password/reset/confirm?token=tok-123")
	})).Return(nil)

	require.NoError(t, f.svc.RequestReset(ctx, "alice@example.com"))
	f.mailer.AssertExpectations(t)
}

func TestRequestReset_MailFailureHidesTransport(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture()
	u := regularUser("alice")
	u.Email = "alice@example.com"
	f.users.On("GetUserByEmail", ctx, "alice@example.com").Return(u, nil)
	f.resets.On("StoreResetToken", ctx, "tok-123", u.ID, mock.Anything).Return(nil)
	f.mailer.On("Send", ctx, mock.Anything).Return(errors.New("dial tcp 10.0.0.5:587: connection refused"))

	err := f.svc.RequestReset(ctx, "alice@example.com")
	assert.ErrorIs(t, err, models.ErrMailDelivery)
	assert.ErrorIs(t, err, models.ErrTransport)
	assert.NotContains(t, err.Error(), "10.0.0.5")
}

func TestRequestReset_InvalidEmail(t *testing.T) {
	f := newResetFixture()
	err := f.svc.RequestReset(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestConfirmReset(t *testing.T) {
	ctx := context.Background()
	alice := regularUser("alice")

	t.Run("mismatch keeps the token", func(t *testing.T) {
		f := newResetFixture()
		f.resets.On("PeekResetToken", ctx, "tok").Return(alice.ID, nil)
		f.users.On("GetUserByID", ctx, alice.ID).Return(alice, nil)
		err := f.svc.ConfirmReset(ctx, "tok", "correct9horse", "correct9house")
		assert.ErrorIs(t, err, models.ErrPasswordMismatch)
		f.resets.AssertNotCalled(t, "ConsumeResetToken", mock.Anything, mock.Anything)
	})

	t.Run("weak password keeps the token", func(t *testing.T) {
		f := newResetFixture()
		f.resets.On("PeekResetToken", ctx, "tok").Return(alice.ID, nil)
		f.users.On("GetUserByID", ctx, alice.ID).Return(alice, nil)
		err := f.svc.ConfirmReset(ctx, "tok", "alice2024", "alice2024")
		assert.ErrorIs(t, err, models.ErrWeakPassword)
		f.resets.AssertNotCalled(t, "ConsumeResetToken", mock.Anything, mock.Anything)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newResetFixture()
		f.resets.On("PeekResetToken", ctx, "nope").Return(uuid.Nil, models.ErrResetTokenInvalid)
		err := f.svc.ConfirmReset(ctx, "nope", "correct9horse", "correct9horse")
		assert.ErrorIs(t, err, models.ErrResetTokenInvalid)
	})

	t.Run("token used concurrently", func(t *testing.T) {
		f := newResetFixture()
		f.resets.On("PeekResetToken", ctx, "tok").Return(alice.ID, nil)
		f.users.On("GetUserByID", ctx, alice.ID).Return(alice, nil)
		f.resets.On("ConsumeResetToken", ctx, "tok").Return(uuid.Nil, models.ErrResetTokenInvalid)
		err := f.svc.ConfirmReset(ctx, "tok", "correct9horse", "correct9horse")
		assert.ErrorIs(t, err, models.ErrResetTokenInvalid)
		f.users.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success rotates hash and revokes sessions", func(t *testing.T) {
		f := newResetFixture()
		pepper := testConfig().PasswordPepper
		f.resets.On("PeekResetToken", ctx, "tok").Return(alice.ID, nil)
		f.users.On("GetUserByID", ctx, alice.ID).Return(alice, nil)
		f.resets.On("ConsumeResetToken", ctx, "tok").Return(alice.ID, nil)
		f.users.On("UpdatePasswordHash", ctx, alice.ID, mock.MatchedBy(func(h string) bool {
			return checkPasswordHash("correct9horse", h, pepper)
		})).Return(nil)
		f.tokens.On("DeleteTokensByUserID", ctx, alice.ID).Return(int64(2), nil)

		require.NoError(t, f.svc.ConfirmReset(ctx, "tok", "correct9horse", "correct9horse"))
		f.users.AssertExpectations(t)
		f.tokens.AssertExpectations(t)
	})
}
