package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// LogSender writes notifications to the log. It is the default in development.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{log: logger.With(zap.String("component", "push_log"))}
}

func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.log.Info("push notification",
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.Int("tokens", len(n.Tokens)),
		zap.Any("data", n.Data),
	)
	return nil
}

func (s *LogSender) Close() error { return nil }

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaSender hands notifications to a Kafka topic for the delivery service.
type KafkaSender struct {
	writer *kafka.Writer
}

func NewKafkaSender(cfg KafkaConfig) *KafkaSender {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            5,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &KafkaSender{writer: w}
}

func (s *KafkaSender) Send(ctx context.Context, n Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	msg := kafka.Message{Value: value}
	if id, ok := n.Data["dataId"]; ok {
		msg.Key = []byte(id)
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.writer.WriteMessages(sendCtx, msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (s *KafkaSender) Close() error {
	return s.writer.Close()
}
