package service

import (
	"context"
	"strings"

	"blog-server/internal/config"
	"blog-server/internal/interfaces"
	"blog-server/internal/models"
	"blog-server/internal/policy"

	"go.uber.org/zap"
)

// ContactInput is the contact form.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactService lets signed-in users write to the site owner.
type ContactService interface {
	SendContact(ctx context.Context, actor models.Identity, in ContactInput) error
}

var _ ContactService = (*contactServiceImpl)(nil)

type contactServiceImpl struct {
	mailer    interfaces.Mailer
	recipient string
	logger    *zap.Logger
}

func NewContactService(mailer interfaces.Mailer, cfg *config.Config, logger *zap.Logger) ContactService {
	return &contactServiceImpl{
		mailer:    mailer,
		recipient: cfg.ContactRecipient,
		logger:    logger.Named("ContactService"),
	}
}

// stripHeaderBreaks keeps user input from starting a new mail header.
func stripHeaderBreaks(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (s *contactServiceImpl) SendContact(ctx context.Context, actor models.Identity, in ContactInput) error {
	user, ok := models.UserOf(actor)
	if !ok || !policy.Can(actor, policy.ContactOwner, nil) {
		return models.ErrAuthRequired
	}

	name := stripHeaderBreaks(in.Name)
	subject := stripHeaderBreaks(in.Subject)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	message := strings.TrimSpace(in.Message)

	fe := models.FieldErrors{}
	if name == "" {
		fe.Add("name", "This field is required.")
	}
	if email == "" {
		fe.Add("email", "This field is required.")
	} else if !isValidEmail(email) {
		fe.Add("email", "Enter a valid email address.")
	}
	if subject == "" {
		fe.Add("subject", "This field is required.")
	}
	if message == "" {
		fe.Add("message", "This field is required.")
	}
	if err := fe.Err(); err != nil {
		return err
	}

	msg := models.Mail{
		To:      s.recipient,
		ReplyTo: email,
		Subject: name + ", " + subject,
		Body:    message + "\n\n--\nSent by " + user.Username + " <" + email + ">\n",
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to deliver contact message", zap.String("userID", user.ID.String()), zap.Error(err))
		return models.ErrMailDelivery
	}
	s.logger.Info("Contact message sent", zap.String("userID", user.ID.String()))
	return nil
}
