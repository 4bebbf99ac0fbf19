package handler

import (
	"sort"
	"time"

	"payment-hub/internal/adapter/http/dto"
	"payment-hub/internal/core/ports"
	"payment-hub/pkg/response"

	"github.com/gin-gonic/gin"
)

// RatesHandler serves the public exchange rate listing.
type RatesHandler struct {
	rateSvc ports.RateService
}

// NewRatesHandler creates a new RatesHandler.
func NewRatesHandler(rateSvc ports.RateService) *RatesHandler {
	return &RatesHandler{rateSvc: rateSvc}
}

// List handles GET /api/v1/rates.
func (h *RatesHandler) List(c *gin.Context) {
	set, err := h.rateSvc.RefreshIfStale(c.Request.Context(), time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}

	entries := make([]dto.RateEntry, 0, len(set.Rates))
	for _, r := range set.Rates {
		entries = append(entries, dto.RateEntry{
			Currency:   r.Currency,
			Rate:       r.Rate.String(),
			VATPercent: r.VATPercent.String(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Currency < entries[j].Currency })

	response.OK(c, dto.RatesResponse{
		Base:      "USD",
		Rates:     entries,
		UpdatedAt: set.UpdatedAt.UTC().Format(time.RFC3339),
	})
}
