package handlers

import (
	"pavo/internal/models"
	"pavo/internal/services/payment"
	"pavo/internal/utils/pagination"
	"pavo/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	service payment.Service
}

func NewPaymentHandler(svc payment.Service) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// CreatePayment accepts a settlement request and attempts it immediately.
// A failed settlement still returns the persisted payment so the client
// can see the terminal record.
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	var req models.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.Get("Idempotency-Key")
	}

	p, err := h.service.Create(c.Context(), actorFrom(claims), &req)
	if err != nil {
		extra := fiber.Map{}
		if p != nil {
			extra["data"] = p
		}
		return response.DomainError(c, err, extra)
	}
	return response.Created(c, "Payment created", p)
}

// GetPayment returns one payment. Non-admins only see their own.
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	p, err := h.service.Get(c.Context(), actorFrom(claims), c.Params("id"))
	if err != nil {
		return response.DomainError(c, err, nil)
	}
	if p.Method == models.PaymentMethodStablecoin {
		return response.Success(c, "Payment retrieved", fiber.Map{
			"payment":      p,
			"verification": verificationSummary(p),
		})
	}
	return response.Success(c, "Payment retrieved", p)
}

// verificationSummary describes the on-chain state of a stablecoin payment
// as far as the stored record reflects it.
func verificationSummary(p *models.Payment) fiber.Map {
	return fiber.Map{
		"reference_hash": p.ExternalReferenceHash,
		"transaction_id": p.ExternalTransactionID,
		"confirmed":      p.Status == models.PaymentStatusCompleted,
		"pending_review": p.Status == models.PaymentStatusAwaitingApproval,
	}
}

// ListPayments returns the caller's payments, newest first.
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)
	p := pagination.ParseFromRequest(c)

	payments, total, err := h.service.List(c.Context(), actorFrom(claims), p.Limit, p.Offset)
	if err != nil {
		return response.ServerError(c, "Failed to list payments")
	}
	p.Total = total
	return c.JSON(pagination.Response(p, payments))
}

// UpdatePayment handles PATCH /payments/:id. Requesters may only narrow a
// pending or processing payment to a cancelled state; admins may attach
// notes and metadata instead.
func (h *PaymentHandler) UpdatePayment(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	var input struct {
		Status     string                 `json:"status"`
		AdminNotes string                 `json:"admin_notes"`
		Metadata   map[string]interface{} `json:"metadata"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	actor := actorFrom(claims)
	id := c.Params("id")

	switch input.Status {
	case "":
	case "cancelled", models.PaymentStatusFailed:
		p, err := h.service.Cancel(c.Context(), actor, id, input.AdminNotes)
		if err != nil {
			return response.DomainError(c, err, nil)
		}
		return response.Success(c, "Payment cancelled", p)
	default:
		return response.BadRequest(c, "status can only be narrowed to cancelled")
	}

	p, err := h.service.Annotate(c.Context(), actor, id, input.AdminNotes, input.Metadata)
	if err != nil {
		return response.DomainError(c, err, nil)
	}
	return response.Success(c, "Payment updated", p)
}

func actorFrom(claims *models.UserClaims) payment.Actor {
	return payment.Actor{UserID: claims.UserID, Role: claims.Role}
}
