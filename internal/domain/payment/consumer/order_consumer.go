package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"payment-service/internal/domain/payment/model"
	"payment-service/internal/domain/payment/service"
	"payment-service/internal/pkg/eventbus"
	"payment-service/pkg/logger"
	"payment-service/pkg/metrics"

	"go.uber.org/zap"
)

// OrderEventConsumer 订单事件消费者
// 消费失败只记录日志后丢弃（没有死信队列），引擎的幂等性兜住重复投递
type OrderEventConsumer struct {
	service  service.PaymentService
	bus      *eventbus.Bus
	stream   string
	group    string
	consumer string
}

func NewOrderEventConsumer(svc service.PaymentService, bus *eventbus.Bus, stream, group, consumerName string) *OrderEventConsumer {
	return &OrderEventConsumer{
		service:  svc,
		bus:      bus,
		stream:   stream,
		group:    group,
		consumer: consumerName,
	}
}

// Start 启动消费协程，ctx 取消后退出
func (c *OrderEventConsumer) Start(ctx context.Context) {
	go func() {
		logger.Log.Info("Order event consumer started",
			zap.String("stream", c.stream),
			zap.String("group", c.group))
		err := c.bus.Consume(ctx, c.stream, c.group, c.consumer, c.Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.Error("Order event consumer exited", zap.Error(err))
		}
	}()
}

// Handle 处理单条订单事件
// 返回 nil 表示消息可以 Ack：格式错误和业务失败都在这里消化掉
func (c *OrderEventConsumer) Handle(ctx context.Context, payload []byte) error {
	var event model.OrderEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logger.Log.Error("Invalid order event received", zap.ByteString("payload", payload), zap.Error(err))
		c.recordDropped()
		return nil
	}
	if err := event.Validate(); err != nil {
		logger.Log.Error("Invalid order event received",
			zap.String("order_id", event.OrderID),
			zap.String("status", event.Status),
			zap.Error(err))
		c.recordDropped()
		return nil
	}

	logger.Log.Info("Received order event",
		zap.String("order_id", event.OrderID),
		zap.String("status", event.Status))
	if metrics.Global != nil {
		metrics.Global.RecordEventConsumed(event.Status)
	}

	if err := c.service.HandleOrderEvent(ctx, &event); err != nil {
		logger.Log.Error("Error processing order event",
			zap.String("order_id", event.OrderID),
			zap.String("status", event.Status),
			zap.Error(err))
		c.recordDropped()
	}
	return nil
}

func (c *OrderEventConsumer) recordDropped() {
	if metrics.Global != nil {
		metrics.Global.RecordEventDropped()
	}
}
