package model

import (
	"regexp"
	"time"

	"payment-service/pkg/errs"
	baseModel "payment-service/pkg/model"

	"github.com/shopspring/decimal"
)

// Status 支付状态
type Status string

// Method 支付方式
type Method string

const (
	StatusPending  Status = "PENDING"
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
	StatusExpired  Status = "EXPIRED"
	StatusRefunded Status = "REFUNDED"

	MethodOnline Method = "ONLINE"
	MethodCOD    Method = "COD"
)

// ReasonLinkExpired 链接过期的固定原因文案
const ReasonLinkExpired = "payment link expired"

// Payment 支付单模型
// 一个订单至多对应一条支付记录（order_id 唯一索引 + 创建前查重）
type Payment struct {
	baseModel.BaseModel
	OrderID       string          `gorm:"uniqueIndex;not null" json:"orderId"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	PaymentMethod Method          `gorm:"not null" json:"paymentMethod"`
	Status        Status          `gorm:"index;default:'PENDING'" json:"status"`
	PaymentLink   string          `json:"paymentLink,omitempty"`   // 仅 ONLINE
	LinkCreatedAt *time.Time      `json:"linkCreatedAt,omitempty"` // 仅 ONLINE
	LinkExpiresAt *time.Time      `json:"linkExpiresAt,omitempty"` // 仅 ONLINE
	Reason        string          `json:"reason,omitempty"` // FAILED / EXPIRED 时填写
}

var linkPattern = regexp.MustCompile(`^(https?://)?([\w\-]+\.)+[\w\-]+(/[\w\-./?%&=]*)?$`)

// Validate 实体级校验
// ONLINE 必须带链接和两个时间戳且 expires >= created，COD 三者都不允许出现
func (p *Payment) Validate() error {
	if p.OrderID == "" {
		return errs.Validationf("Order ID cannot be empty")
	}
	if !p.Amount.IsPositive() {
		return errs.Validationf("Amount must be positive")
	}

	switch p.PaymentMethod {
	case MethodOnline:
		if p.PaymentLink == "" {
			return errs.Validationf("Payment link is required for ONLINE payments")
		}
		if !linkPattern.MatchString(p.PaymentLink) {
			return errs.Validationf("Payment link must be a valid URL")
		}
		if p.LinkCreatedAt == nil || p.LinkExpiresAt == nil {
			return errs.Validationf("Link creation and expiry dates are required for ONLINE payments")
		}
		if p.LinkExpiresAt.Before(*p.LinkCreatedAt) {
			return errs.Validationf("Link expiry date must be after creation date")
		}
	case MethodCOD:
		if p.PaymentLink != "" || p.LinkCreatedAt != nil || p.LinkExpiresAt != nil {
			return errs.Validationf("Payment link and dates are not applicable for COD payments")
		}
	default:
		return errs.Validationf("Payment method must be ONLINE or COD")
	}

	return nil
}

// LinkExpired 判断 ONLINE 支付链接是否已过期
func (p *Payment) LinkExpired(now time.Time) bool {
	return p.PaymentMethod == MethodOnline &&
		p.LinkExpiresAt != nil &&
		p.LinkExpiresAt.Before(now)
}
