package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog-server/internal/interfaces"
	"blog-server/internal/models"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

var _ interfaces.Mailer = (*SMTPMailer)(nil)

const defaultSendTimeout = 30 * time.Second

// SMTPSettings describe the outbound SMTP relay.
type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLS требует STARTTLS; без него письма уходят открытым текстом (локальный relay, mailhog)
	TLS bool
}

// SMTPMailer sends mail synchronously through an SMTP relay.
type SMTPMailer struct {
	client *gomail.Client
	from   string
	logger *zap.Logger
}

// NewSMTPMailer builds the client once; every Send dials a fresh connection.
func NewSMTPMailer(s SMTPSettings, logger *zap.Logger) (*SMTPMailer, error) {
	if s.Host == "" {
		return nil, errors.New("smtp host is empty")
	}
	if s.From == "" {
		return nil, errors.New("sender address is empty")
	}

	opts := []gomail.Option{
		gomail.WithPort(s.Port),
		gomail.WithTimeout(defaultSendTimeout),
	}
	if s.TLS {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.NoTLS))
	}
	if s.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.Username),
			gomail.WithPassword(s.Password),
		)
	}

	client, err := gomail.NewClient(s.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPMailer{
		client: client,
		from:   s.From,
		logger: logger.Named("SMTPMailer").With(zap.String("host", s.Host), zap.Int("port", s.Port)),
	}, nil
}

// buildMessage renders a models.Mail as a plain-text message.
func buildMessage(from string, m models.Mail) (*gomail.Msg, error) {
	if m.To == "" {
		return nil, errors.New("recipient is empty")
	}
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if m.ReplyTo != "" {
		if err := msg.ReplyTo(m.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, m.Body)
	return msg, nil
}

// Send delivers m or returns the transport error.
func (s *SMTPMailer) Send(ctx context.Context, m models.Mail) error {
	msg, err := buildMessage(s.from, m)
	if err != nil {
		s.logger.Warn("Refusing to send malformed mail", zap.String("subject", m.Subject), zap.Error(err))
		return err
	}

	s.logger.Debug("Sending mail", zap.String("subject", m.Subject))
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("SMTP delivery failed", zap.String("subject", m.Subject), zap.Error(err))
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	s.logger.Info("Mail sent", zap.String("subject", m.Subject))
	return nil
}
