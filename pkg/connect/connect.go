// Package connect opens the external connections with the retry policy
// used by every binary: up to 50 attempts, a fixed delay between them.
package connect

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Retry controls the reconnect loop.
type Retry struct {
	Attempts int
	Delay    time.Duration
}

var (
	DefaultRetry  = Retry{Attempts: 50, Delay: 3 * time.Second}
	RabbitMQRetry = Retry{Attempts: 50, Delay: 5 * time.Second}
)

// do runs fn until it succeeds, the attempts run out or ctx is done.
func (r Retry) do(ctx context.Context, log *zap.Logger, what string, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		if lastErr = fn(attempt); lastErr == nil {
			log.Info("Connected", zap.String("target", what), zap.Int("attempt", attempt))
			return nil
		}
		log.Warn("Connection failed, retrying...",
			zap.String("target", what),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", r.Attempts),
			zap.Error(lastErr),
		)
		if attempt == r.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w (last error: %v)", what, ctx.Err(), lastErr)
		case <-time.After(r.Delay):
		}
	}
	log.Error("Failed to connect after all retries", zap.String("target", what), zap.Int("attempts", r.Attempts), zap.Error(lastErr))
	return fmt.Errorf("failed to connect to %s after %d attempts: %w", what, r.Attempts, lastErr)
}

// Postgres creates a pool and pings it.
func Postgres(ctx context.Context, dsn string, maxConns int32, idleTimeout time.Duration, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	if idleTimeout > 0 {
		poolConfig.MaxConnIdleTime = idleTimeout
	}

	var pool *pgxpool.Pool
	err = DefaultRetry.do(ctx, logger, "postgres", func(int) error {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		p, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
		if err != nil {
			return err
		}
		if err := p.Ping(connectCtx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	return pool, err
}

// Redis creates a client and pings it.
func Redis(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	var client *redis.Client
	err := DefaultRetry.do(ctx, logger, "redis", func(int) error {
		c := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := c.Ping(pingCtx).Err(); err != nil {
			c.Close()
			return err
		}
		client = c
		return nil
	})
	return client, err
}

// RabbitMQ dials the broker and logs when the connection drops.
func RabbitMQ(rawURL string, logger *zap.Logger) (*amqp.Connection, error) {
	logger.Info("Attempting to connect to RabbitMQ", zap.String("url", MaskURL(rawURL)))
	var conn *amqp.Connection
	err := RabbitMQRetry.do(context.Background(), logger, "rabbitmq", func(int) error {
		c, err := amqp.Dial(rawURL)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	go func() {
		notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))
		if err := <-notifyClose; err != nil {
			logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(err))
		} else {
			logger.Info("RabbitMQ connection closed gracefully")
		}
	}()
	return conn, nil
}

// MaskURL hides the password of a connection URL for logging.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
