package interfaces

import (
	"context"

	"blog-server/internal/models"
)

// Mailer delivers a message. Implementations return an error that the
// caller converts to models.ErrMailDelivery without leaking transport detail.
type Mailer interface {
	Send(ctx context.Context, msg models.Mail) error
}
