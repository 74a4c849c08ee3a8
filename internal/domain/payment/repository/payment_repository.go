package repository

import (
	"context"
	"errors"

	"payment-service/internal/domain/payment/model"
	"payment-service/pkg/errs"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.Payment, error)
	UpdateStatusIf(ctx context.Context, id string, expected model.Status, updates map[string]interface{}) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Conflictf("Payment already initiated for order: %s", payment.OrderID)
		}
		return errs.Transientf(err, "create payment")
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("Payment with ID %s not found", id)
		}
		return nil, errs.Transientf(err, "get payment %s", id)
	}
	return &payment, nil
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("Payment not found for order: %s", orderID)
		}
		return nil, errs.Transientf(err, "get payment for order %s", orderID)
	}
	return &payment, nil
}

func (r *paymentRepository) ListByStatus(ctx context.Context, status model.Status) ([]model.Payment, error) {
	var payments []model.Payment
	if err := r.db.WithContext(ctx).Where("status = ?", status).Find(&payments).Error; err != nil {
		return nil, errs.Transientf(err, "list payments by status %s", status)
	}
	return payments, nil
}

// UpdateStatusIf 状态守卫更新（CAS）
// 只有当前状态等于 expected 时写入才生效；0 行受影响说明竞争失败或记录不存在，
// 此时回查当前状态用于诊断，绝不覆盖别人已提交的流转
func (r *paymentRepository) UpdateStatusIf(ctx context.Context, id string, expected model.Status, updates map[string]interface{}) error {
	tx := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if tx.Error != nil {
		return errs.Transientf(tx.Error, "update payment %s", id)
	}
	if tx.RowsAffected > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return errs.Conflictf("Payment is not in %s status, current status: %s", expected, current.Status)
}
