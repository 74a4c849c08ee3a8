package model

import "payment-service/pkg/errs"

// 订单事件状态（入站）
const (
	OrderCancelled = "CANCELLED"
	OrderReturned  = "RETURNED"
	OrderDelivered = "DELIVERED"
)

// 支付事件状态（出站）
const (
	PaymentReceived = "PAYMENT_RECEIVED"
	PaymentFailed   = "PAYMENT_FAILED"
)

// OrderEvent 订单生命周期通知，at-least-once 投递，不落库
type OrderEvent struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// Validate 校验入站事件
func (e *OrderEvent) Validate() error {
	if e == nil || e.OrderID == "" {
		return errs.Validationf("Order ID cannot be empty")
	}
	switch e.Status {
	case OrderCancelled, OrderReturned, OrderDelivered:
		return nil
	default:
		return errs.Validationf("Status must be CANCELLED, RETURNED, or DELIVERED")
	}
}

// PaymentEvent 支付结果通知
// SUCCESS/FAILED/EXPIRED 每次提交的流转恰好发布一条（COD 送达自动完成除外）
type PaymentEvent struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"` // PAYMENT_FAILED 时填写
}
