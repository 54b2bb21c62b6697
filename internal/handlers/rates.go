package handlers

import (
	"errors"

	"bridgepay/internal/services/rates"
	"bridgepay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type RateHandler struct {
	rateService rates.Service
}

func NewRateHandler(rateService rates.Service) *RateHandler {
	return &RateHandler{rateService: rateService}
}

// GetCurrentRate returns the most recent GBP to USDT rate sample.
func (h *RateHandler) GetCurrentRate(c *fiber.Ctx) error {
	sample, err := h.rateService.CurrentRate(c.Context())
	if err != nil {
		if errors.Is(err, rates.ErrNoRate) {
			return utils.Respond(c, fiber.StatusServiceUnavailable, fiber.Map{"error": err.Error()})
		}
		return utils.InternalError(c, "Failed to fetch exchange rate")
	}

	return utils.Success(c, fiber.Map{"rate": sample})
}
