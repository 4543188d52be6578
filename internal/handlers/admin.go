package handlers

import (
	"pavo/internal/models"
	"pavo/internal/repositories"
	"pavo/internal/services/approval"
	"pavo/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	approvals approval.Service
	audits    repositories.AuditRepository
}

func NewAdminHandler(approvals approval.Service, audits repositories.AuditRepository) *AdminHandler {
	return &AdminHandler{approvals: approvals, audits: audits}
}

// DecidePayment handles PATCH /payments/:id/approve: an operator approves
// or rejects a payment awaiting approval.
func (h *AdminHandler) DecidePayment(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	var input struct {
		Decision string `json:"decision"`
		Notes    string `json:"notes"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	p, err := h.approvals.Decide(c.Context(), actorFrom(claims), c.Params("id"), input.Decision, input.Notes)
	if err != nil {
		return response.DomainError(c, err, nil)
	}
	return response.Success(c, "Decision applied", p)
}

// RefundPayment handles POST /payments/:id/refund: an operator reverses a
// completed payment.
func (h *AdminHandler) RefundPayment(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	var input struct {
		Notes string `json:"notes"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	p, err := h.approvals.Refund(c.Context(), actorFrom(claims), c.Params("id"), input.Notes)
	if err != nil {
		return response.DomainError(c, err, nil)
	}
	return response.Success(c, "Payment refunded", p)
}

// ListAuditTrail handles GET /payments/:id/audit: the append-only record
// of every state transition a payment went through.
func (h *AdminHandler) ListAuditTrail(c *fiber.Ctx) error {
	entries, err := h.audits.ListByPayment(c.Context(), c.Params("id"))
	if err != nil {
		return response.ServerError(c, "Failed to list audit entries")
	}
	return response.Success(c, "Audit trail retrieved", entries)
}
