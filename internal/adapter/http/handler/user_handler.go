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

// UserHandler handles account-scoped endpoints.
type UserHandler struct {
	userRepo ports.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo ports.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// GetBalance handles GET /api/v1/users/me/balance.
func (h *UserHandler) GetBalance(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), userID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}
	if user == nil {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	response.OK(c, dto.BalanceResponse{
		Balance:  user.Balance,
		Currency: user.Currency,
	})
}
