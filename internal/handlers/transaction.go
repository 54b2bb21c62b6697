package handlers

import (
	"errors"
	"log"

	"bridgepay/internal/models"
	"bridgepay/internal/services/fees"
	"bridgepay/internal/services/rates"
	"bridgepay/internal/services/transaction"
	"bridgepay/internal/utils"
	"bridgepay/internal/utils/pagination"
	"bridgepay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	txnService  transaction.Service
	rateService rates.Service
	calc        *fees.Calculator
}

func NewTransactionHandler(txnService transaction.Service, rateService rates.Service, calc *fees.Calculator) *TransactionHandler {
	return &TransactionHandler{
		txnService:  txnService,
		rateService: rateService,
		calc:        calc,
	}
}

// CreateTransaction starts a new GBP to USDT conversion for the
// authenticated user. All gates (KYC, terms, limits, address format) are
// enforced in the service; the handler only shapes errors.
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	var req transaction.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	v := validation.New()
	v.TransactionCreate(req.GBPAmount, req.WalletAddress)
	if !v.Valid() {
		return utils.BadRequest(c, v.First())
	}

	txn, err := h.txnService.Create(c.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrKYCNotVerified),
			errors.Is(err, transaction.ErrTermsNotAccepted):
			return utils.Forbidden(c, err.Error())
		case errors.Is(err, transaction.ErrAmountOutOfRange),
			errors.Is(err, transaction.ErrInvalidWalletAddress):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, transaction.ErrNoExchangeRate):
			return utils.Respond(c, fiber.StatusServiceUnavailable, fiber.Map{"error": err.Error()})
		}
		log.Printf("Failed to create transaction for user %d: %v", claims.UserID, err)
		return utils.InternalError(c, "Failed to create transaction")
	}

	return utils.Created(c, fiber.Map{"transaction": txn})
}

// GetTransaction returns one of the caller's transactions by public id.
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	txn, err := h.txnService.Get(c.Context(), c.Params("id"), claims.UserID, claims.Role == models.RoleAdmin)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound) {
			return utils.NotFound(c, "Transaction not found")
		}
		return utils.InternalError(c, "Failed to fetch transaction")
	}

	return utils.Success(c, fiber.Map{"transaction": txn})
}

// GetUserTransactions lists the caller's transactions, newest first.
func (h *TransactionHandler) GetUserTransactions(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "Invalid claims")
	}

	p := pagination.ParseFromRequest(c)

	txns, total, err := h.txnService.ListForUser(c.Context(), claims.UserID, p.Offset, p.Limit)
	if err != nil {
		log.Printf("Error fetching transactions for user %d: %v", claims.UserID, err)
		return utils.InternalError(c, "Failed to fetch transactions")
	}

	p.Total = total
	return c.JSON(pagination.Response(p, txns))
}

// GetQuote computes the other side of a GBP/USDT amount pair at the
// current rate without creating anything.
func (h *TransactionHandler) GetQuote(c *fiber.Ctx) error {
	amount := c.QueryFloat("amount")
	side := fees.QuoteSide(c.Query("side", string(fees.SideGBP)))
	if side != fees.SideGBP && side != fees.SideUSDT {
		return utils.BadRequest(c, "side must be gbp or usdt")
	}

	sample, err := h.rateService.CurrentRate(c.Context())
	if err != nil {
		if errors.Is(err, rates.ErrNoRate) {
			return utils.Respond(c, fiber.StatusServiceUnavailable, fiber.Map{"error": err.Error()})
		}
		return utils.InternalError(c, "Failed to fetch exchange rate")
	}

	quote, err := h.calc.Quote(amount, side, sample.Rate)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	breakdown, err := h.calc.Fees(quote.GBPAmount)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	return utils.Success(c, fiber.Map{
		"quote":      quote,
		"fees":       breakdown,
		"fetched_at": sample.FetchedAt,
		"source":     sample.Source,
	})
}
