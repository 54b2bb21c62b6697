package handlers

import (
	"errors"

	"bridgepay/internal/models"
	"bridgepay/internal/services/kyc"
	"bridgepay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type KYCHandler struct {
	kycService kyc.Service
}

func NewKYCHandler(kycService kyc.Service) *KYCHandler {
	return &KYCHandler{
		kycService: kycService,
	}
}

// SubmitKYC uploads a document batch and moves the profile to under_review.
// Document files are uploaded to object storage by the client beforehand;
// this endpoint receives their URLs.
func (h *KYCHandler) SubmitKYC(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	var input struct {
		Documents []kyc.DocumentUpload `json:"documents"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	status, err := h.kycService.Submit(c.Context(), claims.UserID, input.Documents)
	if err != nil {
		switch {
		case errors.Is(err, kyc.ErrInvalidSubmission):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, kyc.ErrAlreadyUnderReview), errors.Is(err, kyc.ErrAlreadyVerified):
			return utils.Conflict(c, err.Error())
		}
		return utils.InternalError(c, "Failed to submit documents")
	}

	return utils.Created(c, status)
}

// GetKYCStatus returns the caller's aggregate status and documents.
func (h *KYCHandler) GetKYCStatus(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	status, err := h.kycService.GetStatus(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, kyc.ErrUserNotFound) {
			return utils.NotFound(c, "Profile not found")
		}
		return utils.InternalError(c, "Failed to fetch verification status")
	}

	return utils.Success(c, status)
}
