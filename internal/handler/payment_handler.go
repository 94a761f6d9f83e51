package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akshardoc/akshardoc/internal/pkg/response"
	"github.com/akshardoc/akshardoc/internal/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createOrderRequest struct {
	Mode  string `json:"mode"`
	Pages int    `json:"pages"`
}

func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	order, err := h.payments.CreateOrder(c.Request.Context(), getEmail(c), req.Mode, req.Pages)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, order)
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "order, payment and signature are required")
		return
	}
	err := h.payments.VerifyPayment(c.Request.Context(), getEmail(c), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"verified": true})
}
