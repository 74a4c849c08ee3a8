package service

import (
	"context"
	"strings"
	"time"

	"payment-service/internal/domain/payment/link"
	"payment-service/internal/domain/payment/model"
	"payment-service/internal/domain/payment/repository"
	"payment-service/internal/pkg/eventbus"
	"payment-service/pkg/errs"
	"payment-service/pkg/logger"
	"payment-service/pkg/metrics"
	"payment-service/pkg/retry"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService 支付生命周期引擎
// 所有状态流转都经由状态守卫更新提交，读取到的状态只做预检，写入时必须重新校验
type PaymentService interface {
	InitiatePayment(ctx context.Context, orderID string, amount decimal.Decimal, method model.Method) (*model.Payment, error)
	ProcessPayment(ctx context.Context, paymentID string, isSuccess bool, failureReason string) (*model.Payment, error)
	HandleOrderEvent(ctx context.Context, event *model.OrderEvent) error
	ExpireOverdueLinks(ctx context.Context) (int, error)
}

type paymentService struct {
	repo         repository.PaymentRepository
	publisher    eventbus.Publisher
	linkProvider link.Provider
	paymentTopic string
	linkTTL      time.Duration

	retryAttempts int
	retryBackoff  time.Duration
}

func NewPaymentService(
	repo repository.PaymentRepository,
	publisher eventbus.Publisher,
	provider link.Provider,
	paymentTopic string,
	linkTTL time.Duration,
) PaymentService {
	return &paymentService{
		repo:          repo,
		publisher:     publisher,
		linkProvider:  provider,
		paymentTopic:  paymentTopic,
		linkTTL:       linkTTL,
		retryAttempts: retry.DefaultAttempts,
		retryBackoff:  retry.DefaultBackoff,
	}
}

// InitiatePayment 创建支付单，初始状态 PENDING
// 一个订单至多一条支付：创建前查重，order_id 唯一索引兜底
func (s *paymentService) InitiatePayment(ctx context.Context, orderID string, amount decimal.Decimal, method model.Method) (*model.Payment, error) {
	// 1. 参数校验
	if strings.TrimSpace(orderID) == "" {
		return nil, errs.Validationf("Order ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, errs.Validationf("Amount must be positive")
	}
	if method != model.MethodOnline && method != model.MethodCOD {
		return nil, errs.Validationf("Payment method must be ONLINE or COD")
	}

	// 2. 查重
	err := s.withRetry(ctx, func() error {
		_, lookupErr := s.repo.GetByOrderID(ctx, orderID)
		return lookupErr
	})
	if err == nil {
		return nil, errs.Conflictf("Payment already initiated for order: %s", orderID)
	}
	if errs.KindOf(err) != errs.NotFound {
		return nil, err
	}

	payment := &model.Payment{
		OrderID:       orderID,
		Amount:        amount,
		PaymentMethod: method,
		Status:        model.StatusPending,
	}

	// 3. ONLINE 生成支付链接，COD 不带链接字段
	if method == model.MethodOnline {
		var payLink string
		err := s.withRetry(ctx, func() error {
			l, linkErr := s.linkProvider.PaymentLink(ctx, orderID, amount)
			if linkErr != nil {
				return errs.Transientf(linkErr, "generate payment link for order %s", orderID)
			}
			payLink = l
			return nil
		})
		if err != nil {
			return nil, err
		}

		now := time.Now()
		expiresAt := now.Add(s.linkTTL)
		payment.PaymentLink = payLink
		payment.LinkCreatedAt = &now
		payment.LinkExpiresAt = &expiresAt
	}

	// 4. 实体校验 + 落库
	if err := payment.Validate(); err != nil {
		return nil, err
	}
	if err := s.withRetry(ctx, func() error { return s.repo.Create(ctx, payment) }); err != nil {
		return nil, err
	}

	logger.Log.Info("Payment initiated",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", orderID),
		zap.String("method", string(method)))
	return payment, nil
}

// ProcessPayment 确认支付结果
// ONLINE 链接已过期时强制转 EXPIRED，过期优先于迟到的成功确认
func (s *paymentService) ProcessPayment(ctx context.Context, paymentID string, isSuccess bool, failureReason string) (*model.Payment, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, errs.Validationf("Payment ID cannot be empty")
	}
	if !isSuccess && strings.TrimSpace(failureReason) == "" {
		return nil, errs.Validationf("Failure reason is required when payment fails")
	}

	var payment *model.Payment
	err := s.withRetry(ctx, func() error {
		var lookupErr error
		payment, lookupErr = s.repo.GetByID(ctx, paymentID)
		return lookupErr
	})
	if err != nil {
		return nil, err
	}

	if payment.Status != model.StatusPending {
		logger.Log.Warn("Payment is not in PENDING status",
			zap.String("payment_id", paymentID),
			zap.String("current_status", string(payment.Status)))
		return nil, errs.Conflictf("Payment is not in PENDING status, current status: %s", payment.Status)
	}

	if payment.LinkExpired(time.Now()) {
		if err := s.expirePayment(ctx, payment); err != nil {
			return nil, err
		}
		return payment, nil
	}

	if isSuccess {
		if err := s.transition(ctx, payment, model.StatusSuccess, map[string]interface{}{}); err != nil {
			return nil, err
		}
		s.publishPaymentEvent(ctx, payment, "")
	} else {
		if err := s.transition(ctx, payment, model.StatusFailed, map[string]interface{}{"reason": failureReason}); err != nil {
			return nil, err
		}
		payment.Reason = failureReason
		s.publishPaymentEvent(ctx, payment, failureReason)
	}

	return payment, nil
}

// HandleOrderEvent 处理订单生命周期通知
// at-least-once 投递：同一事件重复到达必须是幂等的
func (s *paymentService) HandleOrderEvent(ctx context.Context, event *model.OrderEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	var payment *model.Payment
	err := s.withRetry(ctx, func() error {
		var lookupErr error
		payment, lookupErr = s.repo.GetByOrderID(ctx, event.OrderID)
		return lookupErr
	})
	if err != nil {
		return err
	}

	switch event.Status {
	case model.OrderCancelled, model.OrderReturned:
		if payment.Status == model.StatusSuccess {
			logger.Log.Info("Initiating refund",
				zap.String("payment_id", payment.ID),
				zap.String("order_status", event.Status))
			return s.processRefund(ctx, payment)
		}
		// 已失败/过期/退款：没有可补偿的支付，重复投递在这里静默落空
		logger.Log.Info("No refund required",
			zap.String("payment_id", payment.ID),
			zap.String("status", string(payment.Status)))
		return nil

	case model.OrderDelivered:
		if payment.PaymentMethod != model.MethodCOD {
			return nil
		}
		if payment.Status != model.StatusPending {
			logger.Log.Warn("COD payment is not in PENDING status",
				zap.String("payment_id", payment.ID),
				zap.String("current_status", string(payment.Status)))
			return nil
		}
		// COD 送达自动完成：订单侧已有自己的完成语义，不再发布支付事件
		logger.Log.Info("Marking COD payment as SUCCESS for delivered order",
			zap.String("payment_id", payment.ID))
		return s.transition(ctx, payment, model.StatusSuccess, map[string]interface{}{})
	}

	return nil
}

// ExpireOverdueLinks 扫描 PENDING 支付并强制过期已超时的 ONLINE 链接
// 单条失败不中断扫描；竞争失败（别人先提交了流转）按正常情况跳过
func (s *paymentService) ExpireOverdueLinks(ctx context.Context) (int, error) {
	var pending []model.Payment
	err := s.withRetry(ctx, func() error {
		var listErr error
		pending, listErr = s.repo.ListByStatus(ctx, model.StatusPending)
		return listErr
	})
	if err != nil {
		return 0, err
	}

	now := time.Now()
	expired := 0
	for i := range pending {
		payment := &pending[i]
		if !payment.LinkExpired(now) {
			continue // COD 与未到期的 ONLINE 不处理
		}

		logger.Log.Info("Payment link expired, marking as EXPIRED",
			zap.String("payment_id", payment.ID))
		if err := s.expirePayment(ctx, payment); err != nil {
			if errs.KindOf(err) == errs.Conflict {
				logger.Log.Info("Payment already transitioned, skipping",
					zap.String("payment_id", payment.ID))
			} else {
				logger.Log.Error("Failed to expire payment",
					zap.String("payment_id", payment.ID), zap.Error(err))
			}
			continue
		}
		expired++
	}
	return expired, nil
}

// processRefund 退款补偿：SUCCESS → REFUNDED
// 本流转没有出站事件
func (s *paymentService) processRefund(ctx context.Context, payment *model.Payment) error {
	if payment.Status != model.StatusSuccess {
		return errs.Conflictf("Cannot refund payment in status: %s", payment.Status)
	}
	logger.Log.Info("Processing refund",
		zap.String("payment_id", payment.ID),
		zap.String("amount", payment.Amount.String()))
	return s.transitionFrom(ctx, payment, model.StatusSuccess, model.StatusRefunded, map[string]interface{}{})
}

// expirePayment 将 PENDING 支付置为 EXPIRED 并发布失败事件
// process 的迟到确认分支与定时扫描共用，效果完全一致
func (s *paymentService) expirePayment(ctx context.Context, payment *model.Payment) error {
	if err := s.transition(ctx, payment, model.StatusExpired, map[string]interface{}{"reason": model.ReasonLinkExpired}); err != nil {
		return err
	}
	payment.Reason = model.ReasonLinkExpired
	s.publishPaymentEvent(ctx, payment, model.ReasonLinkExpired)
	return nil
}

// transition PENDING 起始的状态守卫流转
func (s *paymentService) transition(ctx context.Context, payment *model.Payment, to model.Status, updates map[string]interface{}) error {
	return s.transitionFrom(ctx, payment, model.StatusPending, to, updates)
}

func (s *paymentService) transitionFrom(ctx context.Context, payment *model.Payment, from, to model.Status, updates map[string]interface{}) error {
	updates["status"] = to
	err := s.withRetry(ctx, func() error {
		return s.repo.UpdateStatusIf(ctx, payment.ID, from, updates)
	})
	if err != nil {
		return err
	}

	payment.Status = to
	if metrics.Global != nil {
		metrics.Global.RecordTransition(string(to))
	}
	return nil
}

// publishPaymentEvent 发布支付结果事件
// 状态已提交后的发布是尽力而为：重试耗尽只记录日志，不回滚支付记录
func (s *paymentService) publishPaymentEvent(ctx context.Context, payment *model.Payment, reason string) {
	status := model.PaymentFailed
	if payment.Status == model.StatusSuccess {
		status = model.PaymentReceived
	}
	event := model.PaymentEvent{
		OrderID: payment.OrderID,
		Status:  status,
		Reason:  reason,
	}

	err := retry.Do(ctx, s.retryAttempts, s.retryBackoff, func() error {
		return s.publisher.Publish(ctx, s.paymentTopic, event)
	})
	if err != nil {
		// 支付记录已更新但订单侧收不到通知，产生可见的不一致窗口
		logger.Log.Error("Failed to publish payment event",
			zap.String("order_id", event.OrderID),
			zap.String("status", event.Status),
			zap.Error(err))
		return
	}

	if metrics.Global != nil {
		metrics.Global.RecordEventPublished(event.Status)
	}
	logger.Log.Info("Published payment event",
		zap.String("order_id", event.OrderID),
		zap.String("status", event.Status))
}

func (s *paymentService) withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(ctx, s.retryAttempts, s.retryBackoff, fn)
}
