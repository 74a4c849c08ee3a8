package handler

import (
	"net/http"

	"payment-service/internal/domain/payment/model"
	"payment-service/internal/domain/payment/service"
	"payment-service/pkg/errs"
	"payment-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(s service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: s}
}

type InitiatePaymentInput struct {
	OrderID       string          `json:"orderId" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"paymentMethod" binding:"required,oneof=ONLINE COD"`
}

type ProcessPaymentInput struct {
	IsSuccess     bool   `json:"isSuccess"`
	FailureReason string `json:"failureReason"`
}

// InitiatePayment 创建支付单
// @Summary 创建支付单
// @Tags Payment
// @Accept json
// @Produce json
// @Param input body InitiatePaymentInput true "Payment Info"
// @Success 201 {object} response.Response{data=model.Payment}
// @Router /api/payments/initiate [post]
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var input InitiatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	payment, err := h.service.InitiatePayment(c.Request.Context(), input.OrderID, input.Amount, model.Method(input.PaymentMethod))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, payment)
}

// ProcessPayment 确认支付结果
// @Summary 确认支付结果（成功/失败）
// @Tags Payment
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param input body ProcessPaymentInput true "Process Info"
// @Success 200 {object} response.Response{data=model.Payment}
// @Router /api/payments/{id}/process [post]
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var input ProcessPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	payment, err := h.service.ProcessPayment(c.Request.Context(), c.Param("id"), input.IsSuccess, input.FailureReason)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, payment)
}

// writeError 按错误类别映射 HTTP 状态码
func writeError(c *gin.Context, err error) {
	switch errs.KindOf(err) {
	case errs.Validation:
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	case errs.NotFound:
		response.Error(c, http.StatusNotFound, response.ErrPaymentNotFound, err.Error())
	case errs.Conflict:
		response.Error(c, http.StatusConflict, response.ErrPaymentConflict, err.Error())
	case errs.Transient:
		response.Error(c, http.StatusServiceUnavailable, response.ErrServiceBusy, "Service temporarily unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
	}
}
