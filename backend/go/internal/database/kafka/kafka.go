package kafka

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"

	"dataroom/backend/go/internal/config"

	"github.com/segmentio/kafka-go"
)

// EnsureTopic 连接到第一个 broker 的集群控制器，如果主题不存在则创建它。
func EnsureTopic(ctx context.Context, cfg *config.KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("未配置 Kafka brokers")
	}
	if cfg.Topic == "" {
		return fmt.Errorf("未配置 Kafka topic")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("kafka 初始化连接失败: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("无法读取 Kafka 分区信息: %w", err)
	}
	for _, p := range partitions {
		if p.Topic == cfg.Topic {
			return nil
		}
	}

	// 主题只能在控制器上创建。
	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("无法获取 Kafka 控制器: %w", err)
	}
	ctrlConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("连接 Kafka 控制器失败: %w", err)
	}
	defer ctrlConn.Close()

	log.Printf("主题 '%s' 不存在，准备创建...", cfg.Topic)
	if err := ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}); err != nil {
		return fmt.Errorf("自动创建 Kafka 主题失败: %w", err)
	}
	return nil
}

// HealthCheck 通过查询控制器检查 Kafka 集群是否可达。
func HealthCheck(ctx context.Context, cfg *config.KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("kafka 未配置")
	}
	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Controller()
	return err
}
