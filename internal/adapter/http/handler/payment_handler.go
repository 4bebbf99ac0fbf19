package handler

import (
	"payment-hub/internal/adapter/http/dto"
	"payment-hub/internal/adapter/http/middleware"
	"payment-hub/internal/core/ports"
	"payment-hub/pkg/apperror"
	"payment-hub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles the buyer-facing payment lifecycle endpoints.
type PaymentHandler struct {
	checkoutSvc ports.CheckoutService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(checkoutSvc ports.CheckoutService) *PaymentHandler {
	return &PaymentHandler{checkoutSvc: checkoutSvc}
}

// CreatePayment handles POST /api/v1/payments/:provider.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	provider := c.Param("provider")

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	link, err := h.checkoutSvc.CreatePayment(c.Request.Context(), userID.(uuid.UUID), provider, ports.CreatePaymentRequest{
		Amount:        req.Amount,
		Currency:      req.Currency,
		CountryCode:   req.CountryCode,
		Mobile:        req.Mobile,
		Description:   req.Description,
		TransactionID: req.TransactionID,
		ServiceCode:   req.ServiceCode,
		SellerRef:     req.SellerRef,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.PaymentLinkResponse{
		Provider:      provider,
		TransactionID: link.TransactionID,
		PaymentURL:    link.URL,
		ClientSecret:  link.ClientSecret,
	})
}

// CheckStatus handles GET /api/v1/payments/:provider/status.
func (h *PaymentHandler) CheckStatus(c *gin.Context) {
	provider := c.Param("provider")
	reference := c.Query("reference")
	if reference == "" {
		response.Error(c, apperror.ErrMissingField("reference"))
		return
	}

	status, err := h.checkoutSvc.CheckPayment(c.Request.Context(), provider, reference)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PaymentStatusResponse{
		Provider:      provider,
		TransactionID: status.TransactionID,
		Status:        string(status.State),
		Amount:        status.Amount,
		Currency:      status.Currency,
	})
}
