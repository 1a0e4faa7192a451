package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/brewdesk/pkg/config"
)

// RabbitMQSubscriber binds an exclusive queue to the fanout exchange, so every
// gateway instance sees every event.
type RabbitMQSubscriber struct {
	cfg    config.RabbitMQConfig
	logger *zap.Logger

	mu   sync.Mutex
	conn closer
	ch   closer
}

type closer interface {
	Close() error
}

func NewRabbitMQSubscriber(cfg config.RabbitMQConfig, logger *zap.Logger) *RabbitMQSubscriber {
	return &RabbitMQSubscriber{cfg: cfg, logger: logger.Named("live.rabbitmq")}
}

func (s *RabbitMQSubscriber) connect() (<-chan amqp.Delivery, error) {
	s.mu.Lock()
	if err := s.release(); err != nil {
		s.logger.Debug("Failed to close previous connection", zap.Error(err))
	}
	s.mu.Unlock()

	conn, err := amqp.Dial(s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(s.cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", s.cfg.Exchange, err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", s.cfg.Exchange, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	if err := ch.Qos(50, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}

	s.mu.Lock()
	s.conn, s.ch = conn, ch
	s.mu.Unlock()

	s.logger.Info("Subscribed to order events",
		zap.String("exchange", s.cfg.Exchange),
		zap.String("queue", q.Name))
	return deliveries, nil
}

// Run consumes until ctx is done, reconnecting with backoff when the broker
// connection drops.
func (s *RabbitMQSubscriber) Run(ctx context.Context, handle Handler) error {
	backoff := initialBackoff
	for {
		deliveries, err := s.connect()
		if err != nil {
			s.logger.Warn("RabbitMQ unavailable", zap.Error(err), zap.Duration("retry_in", backoff))
		} else {
			backoff = initialBackoff
			if done := s.consume(ctx, deliveries, handle); done {
				return nil
			}
			s.logger.Warn("RabbitMQ delivery channel closed, reconnecting")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

func (s *RabbitMQSubscriber) consume(ctx context.Context, deliveries <-chan amqp.Delivery, handle Handler) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case d, ok := <-deliveries:
			if !ok {
				return false
			}
			ev, err := Decode(d.Body)
			if err != nil {
				s.logger.Warn("Discarding malformed event", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			handle(ev)
			_ = d.Ack(false)
		}
	}
}

func (s *RabbitMQSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.release()
}

// release closes the held channel and connection. Callers hold s.mu.
func (s *RabbitMQSubscriber) release() error {
	var errs []error
	if s.ch != nil {
		if err := s.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	s.conn, s.ch = nil, nil
	return errors.Join(errs...)
}
