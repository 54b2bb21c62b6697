package handlers

import (
	"errors"

	"bridgepay/internal/models"
	"bridgepay/internal/services/user"
	"bridgepay/internal/utils"
	"bridgepay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService user.Service
}

func NewUserHandler(userService user.Service) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// RegisterUser creates a new account with kyc_status pending and role user.
func (h *UserHandler) RegisterUser(c *fiber.Ctx) error {
	var input models.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	v := validation.New()
	v.UserRegistration(&input)
	if !v.Valid() {
		return utils.BadRequest(c, v.First())
	}

	created, err := h.userService.Register(&input)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return utils.Conflict(c, err.Error())
		}
		return utils.InternalError(c, "Failed to create account")
	}

	return utils.Created(c, fiber.Map{
		"user": created,
	})
}

// GetProfile returns the authenticated user's profile.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	u, err := h.userService.GetByID(claims.UserID)
	if err != nil {
		return utils.NotFound(c, "Profile not found")
	}

	return utils.Success(c, fiber.Map{"user": u})
}

// UpdateProfile edits the authenticated user's own profile fields.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	var input models.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	v := validation.New()
	if input.Phone != nil && *input.Phone != "" {
		v.Phone("phone", *input.Phone)
	}
	if input.FirstName != nil {
		v.Required("first_name", *input.FirstName)
	}
	if input.LastName != nil {
		v.Required("last_name", *input.LastName)
	}
	if !v.Valid() {
		return utils.BadRequest(c, v.First())
	}

	u, err := h.userService.UpdateProfile(claims.UserID, &input)
	if err != nil {
		return utils.InternalError(c, "Failed to update profile")
	}

	return utils.Success(c, fiber.Map{"user": u})
}

// AcceptTerms records the one-time terms acceptance required before a
// user's first transaction.
func (h *UserHandler) AcceptTerms(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	u, err := h.userService.AcceptTerms(claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrAlreadyAgreed) {
			return utils.Conflict(c, err.Error())
		}
		return utils.InternalError(c, "Failed to accept terms")
	}

	return utils.Success(c, fiber.Map{"user": u})
}
