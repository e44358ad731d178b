package messaging_test

import (
	"context"
	"testing"
	"time"

	"blog-server/internal/messaging"
	"blog-server/internal/models"

	"github.com/docker/docker/client"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// recordingMailer отдает полученные письма в канал
type recordingMailer struct {
	got chan models.Mail
}

func (r *recordingMailer) Send(_ context.Context, m models.Mail) error {
	r.got <- m
	return nil
}

type MailQueueTestSuite struct {
	suite.Suite
	container *rabbitmq.RabbitMQContainer
	conn      *amqp.Connection
}

func (s *MailQueueTestSuite) SetupSuite() {
	ctx := context.Background()
	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(wait.ForLog("Server startup complete").WithStartupTimeout(3*time.Minute)),
	)
	require.NoError(s.T(), err)
	s.container = container

	url, err := container.AmqpURL(ctx)
	require.NoError(s.T(), err)
	s.conn, err = amqp.Dial(url)
	require.NoError(s.T(), err)
}

func (s *MailQueueTestSuite) TearDownSuite() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *MailQueueTestSuite) TestPublishedMailIsDelivered() {
	const queue = "test_mail_outbox"
	logger := zap.NewNop()

	pub, err := messaging.NewMailPublisher(s.conn, queue, logger)
	s.Require().NoError(err)
	defer pub.Close()

	want := models.Mail{To: "owner@example.com", ReplyTo: "alice@example.com", Subject: "Alice, Hi", Body: "hello"}
	s.Require().NoError(pub.Send(context.Background(), want))

	rec := &recordingMailer{got: make(chan models.Mail, 1)}
	consumer := messaging.NewMailConsumer(s.conn, queue, 2, messaging.NewMailProcessor(rec, logger), logger)
	errCh := make(chan error, 1)
	go func() { errCh <- consumer.Start() }()

	select {
	case got := <-rec.got:
		assert.Equal(s.T(), want, got)
	case <-time.After(30 * time.Second):
		s.T().Fatal("mail was not consumed")
	}

	consumer.Stop()
	consumer.Stop()
	s.NoError(<-errCh)
}

func TestMailQueueTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("Skipping integration test: docker client unavailable: %v", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Skipping integration test: docker is not reachable: %v", err)
	}
	suite.Run(t, new(MailQueueTestSuite))
}
