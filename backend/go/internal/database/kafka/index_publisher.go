package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dataroom/backend/go/internal/config"
	"dataroom/backend/go/internal/models"
	"dataroom/backend/go/internal/rag_service/rag/interfaces"

	"github.com/segmentio/kafka-go"
)

// messageWriter 是 *kafka.Writer 中发布事件所需的部分。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// IndexEventPublisher 将索引变更事件以 JSON 发送到 Kafka，消息键为 projectId，
// 保证同一项目的事件按顺序落在同一分区。
type IndexEventPublisher struct {
	writer messageWriter
	now    func() time.Time
}

// NewIndexEventPublisher 为配置中的主题创建发布者。
func NewIndexEventPublisher(cfg *config.KafkaConfig) *IndexEventPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
	return &IndexEventPublisher{writer: writer, now: time.Now}
}

// Publish 序列化事件并写入 Kafka。未设置时间戳的事件使用当前时间。
func (p *IndexEventPublisher) Publish(ctx context.Context, event models.IndexEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now().UTC()
	}
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal index event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ProjectID),
		Value: jsonData,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close 关闭底层的 writer 连接。
func (p *IndexEventPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher 在未配置 Kafka 时使用，丢弃所有事件。
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.IndexEvent) error { return nil }
func (NoopPublisher) Close() error                                     { return nil }

var (
	_ interfaces.EventPublisher = (*IndexEventPublisher)(nil)
	_ interfaces.EventPublisher = NoopPublisher{}
)
