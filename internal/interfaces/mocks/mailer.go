package mocks

import (
	"context"

	"blog-server/internal/interfaces"
	"blog-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// Mailer mock
type Mailer struct {
	mock.Mock
}

var _ interfaces.Mailer = (*Mailer)(nil)

func (m *Mailer) Send(ctx context.Context, msg models.Mail) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
