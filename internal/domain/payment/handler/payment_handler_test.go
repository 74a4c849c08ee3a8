package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"payment-service/internal/domain/payment/model"
	"payment-service/pkg/errs"
	"payment-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()
	m.Run()
}

// MockPaymentService is a mock of service.PaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) InitiatePayment(ctx context.Context, orderID string, amount decimal.Decimal, method model.Method) (*model.Payment, error) {
	args := m.Called(ctx, orderID, amount, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentService) ProcessPayment(ctx context.Context, paymentID string, isSuccess bool, failureReason string) (*model.Payment, error) {
	args := m.Called(ctx, paymentID, isSuccess, failureReason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentService) HandleOrderEvent(ctx context.Context, event *model.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPaymentService) ExpireOverdueLinks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func setupRouter(svc *MockPaymentService) *gin.Engine {
	r := gin.New()
	h := NewPaymentHandler(svc)
	r.POST("/api/payments/initiate", h.InitiatePayment)
	r.POST("/api/payments/:id/process", h.ProcessPayment)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInitiatePaymentEndpoint(t *testing.T) {
	t.Run("Created payment returns 201", func(t *testing.T) {
		svc := new(MockPaymentService)
		payment := &model.Payment{
			OrderID:       "O1",
			Amount:        decimal.RequireFromString("100.00"),
			PaymentMethod: model.MethodCOD,
			Status:        model.StatusPending,
		}
		payment.ID = "p1"
		svc.On("InitiatePayment", mock.Anything, "O1", mock.Anything, model.MethodCOD).Return(payment, nil)

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/payments/initiate",
			`{"orderId":"O1","amount":100.00,"paymentMethod":"COD"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"orderId":"O1"`)
		svc.AssertExpectations(t)
	})

	t.Run("Malformed body returns 400", func(t *testing.T) {
		svc := new(MockPaymentService)

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/payments/initiate",
			`{"orderId":"O1"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unsupported payment method returns 400", func(t *testing.T) {
		svc := new(MockPaymentService)

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/payments/initiate",
			`{"orderId":"O1","amount":100.00,"paymentMethod":"CHEQUE"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Duplicate order returns 409", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("InitiatePayment", mock.Anything, "O1", mock.Anything, model.MethodOnline).
			Return(nil, errs.Conflictf("Payment already initiated for order: O1"))

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/payments/initiate",
			`{"orderId":"O1","amount":100.00,"paymentMethod":"ONLINE"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestProcessPaymentEndpoint(t *testing.T) {
	t.Run("Confirmed payment returns 200", func(t *testing.T) {
		svc := new(MockPaymentService)
		payment := &model.Payment{OrderID: "O1", Status: model.StatusSuccess}
		payment.ID = "p1"
		svc.On("ProcessPayment", mock.Anything, "p1", true, "").Return(payment, nil)

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/payments/p1/process",
			`{"isSuccess":true}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"SUCCESS"`)
		svc.AssertExpectations(t)
	})

	t.Run("Unknown payment returns 404", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("ProcessPayment", mock.Anything, "missing", true, "").
			Return(nil, errs.NotFoundf("Payment with ID missing not found"))

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/payments/missing/process",
			`{"isSuccess":true}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Already settled payment returns 409", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("ProcessPayment", mock.Anything, "p1", true, "").
			Return(nil, errs.Conflictf("Payment is not in PENDING status, current status: SUCCESS"))

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/payments/p1/process",
			`{"isSuccess":true}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Missing failure reason returns 400", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("ProcessPayment", mock.Anything, "p1", false, "").
			Return(nil, errs.Validationf("Failure reason is required when payment fails"))

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/payments/p1/process",
			`{"isSuccess":false}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Store outage returns 503", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("ProcessPayment", mock.Anything, "p1", true, "").
			Return(nil, errs.Transientf(assert.AnError, "get payment p1"))

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/payments/p1/process",
			`{"isSuccess":true}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
