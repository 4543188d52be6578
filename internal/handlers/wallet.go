package handlers

import (
	"errors"
	"time"

	"pavo/internal/models"
	"pavo/internal/repositories"
	"pavo/internal/services/wallet"
	"pavo/internal/utils/pagination"
	"pavo/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	service wallet.Service
}

func NewWalletHandler(svc wallet.Service) *WalletHandler {
	return &WalletHandler{service: svc}
}

// GetBalance returns the caller's balance for one currency, creating a
// zero balance on first access.
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)
	currency := c.Query("currency", models.CurrencyUSD)

	balance, err := h.service.GetBalance(c.Context(), claims.UserID, currency)
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidCurrency) {
			return response.BadRequest(c, "unsupported currency")
		}
		return response.ServerError(c, "Failed to get balance")
	}
	return response.Success(c, "Balance retrieved", balance)
}

// ListTransactions returns the caller's ledger entries, newest first.
// Supports type, currency and RFC3339 from/to filters.
func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)
	p := pagination.ParseFromRequest(c)

	filter := repositories.TransactionFilter{
		Type:     c.Query("type"),
		Currency: c.Query("currency"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &t
		}
	}

	entries, total, err := h.service.ListTransactions(c.Context(), claims.UserID, filter)
	if err != nil {
		return response.ServerError(c, "Failed to list transactions")
	}
	p.Total = total
	return c.JSON(pagination.Response(p, entries))
}
