package handlers

import (
	"errors"
	"log"
	"strconv"

	"bridgepay/internal/models"
	"bridgepay/internal/repositories"
	"bridgepay/internal/services/kyc"
	"bridgepay/internal/services/transaction"
	"bridgepay/internal/services/user"
	"bridgepay/internal/utils"
	"bridgepay/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes the review dashboard: transaction transitions,
// KYC decisions, role management and user administration.
type AdminHandler struct {
	txnService  transaction.Service
	kycService  kyc.Service
	userService user.Service
	userRepo    repositories.UserRepository
	kycRepo     repositories.KYCRepository
	txnRepo     repositories.TransactionRepository
}

func NewAdminHandler(
	txnService transaction.Service,
	kycService kyc.Service,
	userService user.Service,
	userRepo repositories.UserRepository,
	kycRepo repositories.KYCRepository,
	txnRepo repositories.TransactionRepository,
) *AdminHandler {
	return &AdminHandler{
		txnService:  txnService,
		kycService:  kycService,
		userService: userService,
		userRepo:    userRepo,
		kycRepo:     kycRepo,
		txnRepo:     txnRepo,
	}
}

// Transactions

// ListTransactions returns all transactions, optionally filtered by status.
func (h *AdminHandler) ListTransactions(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)
	status := models.TransactionStatus(c.Query("status"))

	txns, total, err := h.txnService.List(c.Context(), status, p.Offset, p.Limit)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	p.Total = total
	return c.JSON(pagination.Response(p, txns))
}

// MarkPaymentReceived confirms the bank transfer matched by the payment
// reference arrived.
func (h *AdminHandler) MarkPaymentReceived(c *fiber.Ctx) error {
	return h.runTransition(c, func(adminID uint, publicID string) (*models.Transaction, error) {
		return h.txnService.MarkPaymentReceived(c.Context(), publicID, adminID)
	})
}

// MarkUSDTSent records that the USDT transfer went out, with an optional
// on-chain hash.
func (h *AdminHandler) MarkUSDTSent(c *fiber.Ctx) error {
	var input struct {
		TransactionHash string `json:"transaction_hash"`
	}
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return utils.BadRequest(c, "Invalid request body")
	}

	return h.runTransition(c, func(adminID uint, publicID string) (*models.Transaction, error) {
		return h.txnService.MarkUSDTSent(c.Context(), publicID, adminID, input.TransactionHash)
	})
}

// CompleteTransaction finishes a conversion and stamps completed_at.
func (h *AdminHandler) CompleteTransaction(c *fiber.Ctx) error {
	return h.runTransition(c, func(adminID uint, publicID string) (*models.Transaction, error) {
		return h.txnService.Complete(c.Context(), publicID, adminID)
	})
}

// RejectTransaction fails a conversion with an optional reason.
func (h *AdminHandler) RejectTransaction(c *fiber.Ctx) error {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return utils.BadRequest(c, "Invalid request body")
	}

	return h.runTransition(c, func(adminID uint, publicID string) (*models.Transaction, error) {
		return h.txnService.Reject(c.Context(), publicID, adminID, input.Reason)
	})
}

func (h *AdminHandler) runTransition(c *fiber.Ctx, fn func(adminID uint, publicID string) (*models.Transaction, error)) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	txn, err := fn(claims.UserID, c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrTransactionNotFound):
			return utils.NotFound(c, "Transaction not found")
		case errors.Is(err, transaction.ErrAlreadyTerminal),
			errors.Is(err, transaction.ErrInvalidTransition),
			errors.Is(err, transaction.ErrStatusConflict):
			return utils.Conflict(c, err.Error())
		}
		log.Printf("Admin transition failed: %v", err)
		return utils.InternalError(c, "Failed to update transaction")
	}

	return utils.Success(c, fiber.Map{"transaction": txn})
}

// KYC review

// ListKYCQueue returns users whose submissions await review, with their
// documents attached.
func (h *AdminHandler) ListKYCQueue(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)

	users, total, err := h.userRepo.ListByKYCStatus(models.KYCUnderReview, p.Offset, p.Limit)
	if err != nil {
		return utils.InternalError(c, "Failed to fetch review queue")
	}

	type entry struct {
		User      models.User          `json:"user"`
		Documents []models.KYCDocument `json:"documents"`
	}

	queue := make([]entry, 0, len(users))
	for _, u := range users {
		docs, err := h.kycRepo.GetByUser(u.ID)
		if err != nil {
			// A missing batch should not hide the rest of the queue.
			log.Printf("Failed to load documents for user %d: %v", u.ID, err)
			docs = nil
		}
		queue = append(queue, entry{User: u, Documents: docs})
	}

	p.Total = total
	return c.JSON(pagination.Response(p, queue))
}

// ApproveKYC approves all open documents and verifies the profile.
func (h *AdminHandler) ApproveKYC(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	targetID, err := parseUserID(c)
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	if err := h.kycService.Approve(c.Context(), targetID, claims.UserID); err != nil {
		return h.kycDecisionError(c, err)
	}

	return utils.Success(c, fiber.Map{"message": "KYC approved"})
}

// RejectKYC rejects all open documents with an optional reason.
func (h *AdminHandler) RejectKYC(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	targetID, err := parseUserID(c)
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return utils.BadRequest(c, "Invalid request body")
	}

	if err := h.kycService.Reject(c.Context(), targetID, claims.UserID, input.Reason); err != nil {
		return h.kycDecisionError(c, err)
	}

	return utils.Success(c, fiber.Map{"message": "KYC rejected"})
}

func (h *AdminHandler) kycDecisionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, kyc.ErrUserNotFound):
		return utils.NotFound(c, "User not found")
	case errors.Is(err, kyc.ErrNothingToReview):
		return utils.Conflict(c, err.Error())
	}
	log.Printf("KYC decision failed: %v", err)
	return utils.InternalError(c, "Failed to record decision")
}

// Users

// ListUsers returns all user accounts.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)

	users, total, err := h.userService.List(p.Offset, p.Limit)
	if err != nil {
		log.Printf("Error fetching paginated users: %v", err)
		return utils.InternalError(c, "Failed to fetch users")
	}

	p.Total = total
	return c.JSON(pagination.Response(p, users))
}

// PromoteUser grants the admin role.
func (h *AdminHandler) PromoteUser(c *fiber.Ctx) error {
	return h.setRole(c, models.RoleAdmin)
}

// DemoteUser revokes the admin role.
func (h *AdminHandler) DemoteUser(c *fiber.Ctx) error {
	return h.setRole(c, models.RoleUser)
}

func (h *AdminHandler) setRole(c *fiber.Ctx, role string) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	targetID, err := parseUserID(c)
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.SetRole(c.Context(), targetID, claims.UserID, role); err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			return utils.NotFound(c, "User not found")
		case errors.Is(err, user.ErrSelfRoleEdit):
			return utils.Forbidden(c, err.Error())
		}
		return utils.InternalError(c, "Failed to update role")
	}

	log.Printf("Admin %d set role %s on user %d", claims.UserID, role, targetID)
	return utils.Success(c, fiber.Map{"message": "Role updated"})
}

// DeleteUser removes a user and cascades to their transactions and
// KYC documents.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	targetID, err := parseUserID(c)
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	log.Printf("Admin %d deleting user %d", claims.UserID, targetID)

	if err := h.userService.Delete(c.Context(), targetID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return utils.NotFound(c, "User not found")
		}
		log.Printf("Error deleting user %d: %v", targetID, err)
		return utils.InternalError(c, "Failed to delete user")
	}

	return utils.Success(c, fiber.Map{"message": "User deleted successfully"})
}

// Stats

// GetStats returns the dashboard counters: transactions per status and
// total completed volume. Individual failures degrade the response
// instead of failing it.
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	stats := fiber.Map{}

	counts, err := h.txnRepo.CountByStatus()
	if err != nil {
		log.Printf("Failed to count transactions by status: %v", err)
	} else {
		stats["transactions_by_status"] = counts
	}

	volume, err := h.txnRepo.CompletedVolume()
	if err != nil {
		log.Printf("Failed to sum completed volume: %v", err)
	} else {
		stats["completed_volume_gbp"] = volume
	}

	_, pendingReview, err := h.userRepo.ListByKYCStatus(models.KYCUnderReview, 0, 1)
	if err != nil {
		log.Printf("Failed to count KYC review queue: %v", err)
	} else {
		stats["kyc_pending_review"] = pendingReview
	}

	return utils.Success(c, stats)
}

func parseUserID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
