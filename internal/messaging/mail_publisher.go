package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"blog-server/internal/interfaces"
	"blog-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var _ interfaces.Mailer = (*MailPublisher)(nil)

const publishTimeout = 10 * time.Second

// MailPublisher is a Mailer that hands messages to the mail worker through RabbitMQ.
// Send succeeds once the broker has the message; SMTP delivery happens later.
type MailPublisher struct {
	mu        sync.Mutex
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewMailPublisher opens a channel and declares the durable queue.
// Параметры очереди должны совпадать с MailConsumer.
func NewMailPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*MailPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("mail publisher: failed to open channel: %w", err)
	}
	if _, err := declareMailQueue(ch, queueName); err != nil {
		ch.Close()
		return nil, fmt.Errorf("mail publisher: %w", err)
	}
	logger.Info("MailPublisher initialized", zap.String("queue", queueName))
	return &MailPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("MailPublisher"),
	}, nil
}

func declareMailQueue(ch *amqp.Channel, queueName string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}
	return q, nil
}

// Send publishes m as a persistent JSON message.
func (p *MailPublisher) Send(ctx context.Context, m models.Mail) error {
	if p.channel == nil {
		return errors.New("rabbitmq channel is not initialized")
	}
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal mail: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// amqp.Channel не потокобезопасен для публикации
	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx,
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
			AppId:        "blog-server",
		},
	)
	p.mu.Unlock()
	if err != nil {
		p.logger.Error("Failed to publish mail", zap.String("queue", p.queueName), zap.String("subject", m.Subject), zap.Error(err))
		return fmt.Errorf("failed to publish to queue %s: %w", p.queueName, err)
	}
	p.logger.Info("Mail queued", zap.String("queue", p.queueName), zap.String("subject", m.Subject))
	return nil
}

// Close closes the publishing channel.
func (p *MailPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	return err
}
