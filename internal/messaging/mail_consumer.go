package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"blog-server/internal/interfaces"
	"blog-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const deliverTimeout = 30 * time.Second

// MailConsumer reads queued mail and delivers it with a pool of workers.
type MailConsumer struct {
	conn        *amqp.Connection
	logger      *zap.Logger
	queueName   string
	concurrency int
	processor   *MailProcessor
	stopChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewMailConsumer(conn *amqp.Connection, queueName string, concurrency int, processor *MailProcessor, logger *zap.Logger) *MailConsumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &MailConsumer{
		conn:        conn,
		logger:      logger.Named("MailConsumer"),
		queueName:   queueName,
		concurrency: concurrency,
		processor:   processor,
		stopChannel: make(chan struct{}),
	}
}

// Start blocks until Stop is called or the delivery channel closes.
func (c *MailConsumer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	defer ch.Close()

	q, err := declareMailQueue(ch, c.queueName)
	if err != nil {
		return err
	}
	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"mail-worker", // consumer tag
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	c.logger.Info("Consumer started", zap.String("queue", q.Name), zap.Int("concurrency", c.concurrency))

	done := make(chan struct{})
	c.wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer c.wg.Done()
			log := c.logger.With(zap.Int("worker_id", workerID))
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						log.Info("Delivery channel closed, worker exiting")
						return
					}
					c.processor.ProcessMessage(ctx, d)
				}
			}
		}(i)
	}
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-c.stopChannel:
		c.logger.Info("Stop requested, cancelling workers")
		cancel()
		<-done
	case <-done:
		// Брокер закрыл канал
		c.logger.Warn("All workers exited without a stop request")
	}
	c.logger.Info("Consumer stopped")
	return nil
}

// Stop is safe to call more than once.
func (c *MailConsumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChannel) })
}

// Acknowledger is the part of amqp.Delivery the processor needs.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// MailProcessor delivers one queued message.
type MailProcessor struct {
	mailer interfaces.Mailer
	logger *zap.Logger
}

func NewMailProcessor(mailer interfaces.Mailer, logger *zap.Logger) *MailProcessor {
	return &MailProcessor{mailer: mailer, logger: logger.Named("MailProcessor")}
}

// ProcessMessage acks on success. A failed send is requeued once; a redelivered
// message that fails again, or a malformed one, is dropped.
func (p *MailProcessor) ProcessMessage(ctx context.Context, d amqp.Delivery) {
	p.Process(ctx, d.Body, d.Redelivered, &d)
}

func (p *MailProcessor) Process(ctx context.Context, body []byte, redelivered bool, ack Acknowledger) {
	var m models.Mail
	if err := json.Unmarshal(body, &m); err != nil || m.To == "" {
		p.logger.Error("Dropping malformed mail message", zap.ByteString("body", body), zap.Error(err))
		if nackErr := ack.Nack(false, false); nackErr != nil {
			p.logger.Error("Failed to nack malformed message", zap.Error(nackErr))
		}
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, deliverTimeout)
	defer cancel()

	if err := p.mailer.Send(sendCtx, m); err != nil {
		requeue := !redelivered
		p.logger.Error("Mail delivery failed",
			zap.String("subject", m.Subject),
			zap.Bool("requeue", requeue),
			zap.Error(err))
		if nackErr := ack.Nack(false, requeue); nackErr != nil {
			p.logger.Error("Failed to nack message", zap.Error(nackErr))
		}
		return
	}

	if err := ack.Ack(false); err != nil {
		p.logger.Error("Failed to ack message", zap.Error(err))
		return
	}
	p.logger.Info("Mail delivered", zap.String("subject", m.Subject))
}
