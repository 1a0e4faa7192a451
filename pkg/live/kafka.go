package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/brewdesk/pkg/config"
)

// KafkaSubscriber reads order events from a topic. Each instance joins its
// own consumer group so that every gateway receives every event.
type KafkaSubscriber struct {
	group  sarama.ConsumerGroup
	topic  string
	retry  time.Duration
	logger *zap.Logger
}

func NewKafkaSubscriber(cfg config.KafkaConfig, logger *zap.Logger) (*KafkaSubscriber, error) {
	sc := sarama.NewConfig()
	sc.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest

	groupID := fmt.Sprintf("%s-%s", cfg.GroupID, uuid.NewString())
	group, err := sarama.NewConsumerGroup(cfg.Brokers, groupID, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	logger = logger.Named("live.kafka")
	logger.Info("Kafka consumer group created", zap.String("group_id", groupID), zap.String("topic", cfg.Topic))

	return &KafkaSubscriber{group: group, topic: cfg.Topic, retry: initialBackoff, logger: logger}, nil
}

// Run consumes until ctx is done or the group is closed. Failed sessions are
// retried with backoff.
func (s *KafkaSubscriber) Run(ctx context.Context, handle Handler) error {
	h := &eventHandler{handle: handle, logger: s.logger}
	backoff := s.retry
	for {
		err := s.group.Consume(ctx, []string{s.topic}, h)
		switch {
		case errors.Is(err, sarama.ErrClosedConsumerGroup), ctx.Err() != nil:
			return nil
		case err == nil:
			backoff = s.retry
			continue
		}

		s.logger.Warn("Kafka consume failed", zap.Error(err), zap.Duration("retry_in", backoff))
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

func (s *KafkaSubscriber) Close() error {
	return s.group.Close()
}

type eventHandler struct {
	handle Handler
	logger *zap.Logger
}

func (h *eventHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *eventHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *eventHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		ev, err := Decode(message.Value)
		if err != nil {
			h.logger.Warn("Discarding malformed event",
				zap.Int32("partition", message.Partition),
				zap.Int64("offset", message.Offset),
				zap.Error(err))
		} else {
			h.handle(ev)
		}
		session.MarkMessage(message, "")
	}
	return nil
}
