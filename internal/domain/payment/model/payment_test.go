package model

import (
	"testing"
	"time"

	"payment-service/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validOnlinePayment() *Payment {
	created := time.Now()
	expires := created.Add(5 * time.Minute)
	return &Payment{
		OrderID:       "O1",
		Amount:        decimal.RequireFromString("100.00"),
		PaymentMethod: MethodOnline,
		Status:        StatusPending,
		PaymentLink:   "https://payment-gateway.com/pay/11111111-2222-3333-4444-555555555555",
		LinkCreatedAt: &created,
		LinkExpiresAt: &expires,
	}
}

func TestPaymentValidate(t *testing.T) {
	t.Run("Valid online payment passes", func(t *testing.T) {
		assert.NoError(t, validOnlinePayment().Validate())
	})

	t.Run("Valid COD payment passes", func(t *testing.T) {
		p := &Payment{
			OrderID:       "O1",
			Amount:        decimal.RequireFromString("50.00"),
			PaymentMethod: MethodCOD,
			Status:        StatusPending,
		}
		assert.NoError(t, p.Validate())
	})

	t.Run("Empty order id is rejected", func(t *testing.T) {
		p := validOnlinePayment()
		p.OrderID = ""
		assert.Equal(t, errs.Validation, errs.KindOf(p.Validate()))
	})

	t.Run("Non-positive amount is rejected", func(t *testing.T) {
		p := validOnlinePayment()
		p.Amount = decimal.Zero
		assert.Equal(t, errs.Validation, errs.KindOf(p.Validate()))

		p.Amount = decimal.RequireFromString("-1.00")
		assert.Equal(t, errs.Validation, errs.KindOf(p.Validate()))
	})

	t.Run("Online payment without link is rejected", func(t *testing.T) {
		p := validOnlinePayment()
		p.PaymentLink = ""
		assert.Equal(t, errs.Validation, errs.KindOf(p.Validate()))
	})

	t.Run("Online payment with malformed link is rejected", func(t *testing.T) {
		p := validOnlinePayment()
		p.PaymentLink = "not a url"
		assert.Equal(t, errs.Validation, errs.KindOf(p.Validate()))
	})

	t.Run("Online payment without link dates is rejected", func(t *testing.T) {
		p := validOnlinePayment()
		p.LinkExpiresAt = nil
		assert.Equal(t, errs.Validation, errs.KindOf(p.Validate()))
	})

	t.Run("Link expiring before creation is rejected", func(t *testing.T) {
		p := validOnlinePayment()
		expires := p.LinkCreatedAt.Add(-time.Minute)
		p.LinkExpiresAt = &expires
		assert.Equal(t, errs.Validation, errs.KindOf(p.Validate()))
	})

	t.Run("COD payment with link fields is rejected", func(t *testing.T) {
		p := validOnlinePayment()
		p.PaymentMethod = MethodCOD
		assert.Equal(t, errs.Validation, errs.KindOf(p.Validate()))
	})

	t.Run("Unknown payment method is rejected", func(t *testing.T) {
		p := validOnlinePayment()
		p.PaymentMethod = Method("CHEQUE")
		assert.Equal(t, errs.Validation, errs.KindOf(p.Validate()))
	})
}

func TestLinkExpired(t *testing.T) {
	now := time.Now()

	t.Run("Online payment past its expiry is expired", func(t *testing.T) {
		p := validOnlinePayment()
		past := now.Add(-time.Minute)
		p.LinkExpiresAt = &past
		assert.True(t, p.LinkExpired(now))
	})

	t.Run("Online payment before its expiry is not expired", func(t *testing.T) {
		p := validOnlinePayment()
		assert.False(t, p.LinkExpired(now))
	})

	t.Run("COD payment never expires", func(t *testing.T) {
		p := &Payment{PaymentMethod: MethodCOD}
		assert.False(t, p.LinkExpired(now))
	})
}

func TestOrderEventValidate(t *testing.T) {
	t.Run("Known statuses pass", func(t *testing.T) {
		for _, status := range []string{OrderCancelled, OrderReturned, OrderDelivered} {
			e := &OrderEvent{OrderID: "O1", Status: status}
			assert.NoError(t, e.Validate())
		}
	})

	t.Run("Unknown status is rejected", func(t *testing.T) {
		e := &OrderEvent{OrderID: "O1", Status: "SHIPPED"}
		assert.Equal(t, errs.Validation, errs.KindOf(e.Validate()))
	})

	t.Run("Missing order id is rejected", func(t *testing.T) {
		e := &OrderEvent{Status: OrderDelivered}
		assert.Equal(t, errs.Validation, errs.KindOf(e.Validate()))
	})
}
