package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"payment-service/pkg/errs"
	"payment-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher 出站事件发布接口
type Publisher interface {
	Publish(ctx context.Context, stream string, payload interface{}) error
}

// Handler 入站消息处理函数
// 返回错误时消息仍会被 Ack 并丢弃（只记录日志，没有死信队列）
type Handler func(ctx context.Context, payload []byte) error

// Bus 基于 Redis Streams 的事件通道
// XADD 发布，消费组 XREADGROUP + XACK 消费，保证 at-least-once 投递
type Bus struct {
	rdb *redis.Client
}

// NewBus 创建事件通道
func NewBus(rdb *redis.Client) *Bus {
	return &Bus{rdb: rdb}
}

// Publish 发布事件到指定流
func (b *Bus) Publish(ctx context.Context, stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errs.Validationf("marshal event: %v", err)
	}

	err = b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"payload": data},
	}).Err()
	if err != nil {
		return errs.Transientf(err, "publish to stream %s", stream)
	}
	return nil
}

// Consume 以消费组模式消费指定流，阻塞直到 ctx 取消
// 消息处理完成后 Ack；处理失败同样 Ack（记录日志后丢弃，消费侧不重投）
func (b *Bus) Consume(ctx context.Context, stream, group, consumer string, h Handler) error {
	// 创建消费组（幂等：已存在时忽略 BUSYGROUP）
	err := b.rdb.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return errs.Transientf(err, "create consumer group %s on %s", group, stream)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res, err := b.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    16,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if errors.Is(err, redis.Nil) {
				continue // 阻塞超时，无新消息
			}
			logger.Log.Error("Failed to read from stream",
				zap.String("stream", stream), zap.Error(err))
			continue
		}

		for _, s := range res {
			for _, msg := range s.Messages {
				b.dispatch(ctx, stream, group, msg, h)
			}
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, stream, group string, msg redis.XMessage, h Handler) {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		logger.Log.Error("Malformed stream entry, missing payload",
			zap.String("stream", stream), zap.String("id", msg.ID))
	} else if err := h(ctx, []byte(raw)); err != nil {
		// 已知缺口：消费失败只记录日志后丢弃，没有死信机制
		logger.Log.Error("Failed to handle stream entry, dropping",
			zap.String("stream", stream), zap.String("id", msg.ID), zap.Error(err))
	}

	if err := b.rdb.XAck(ctx, stream, group, msg.ID).Err(); err != nil {
		logger.Log.Error("Failed to ack stream entry",
			zap.String("stream", stream), zap.String("id", msg.ID), zap.Error(err))
	}
}
