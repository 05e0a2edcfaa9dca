package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/example/paygate/internal/services"
)

// PaymentHandler manages the hosted-page payment endpoints.
type PaymentHandler struct {
	payments *services.PaymentService
	resolver *services.ReturnResolver
	validate *validator.Validate
}

func NewPaymentHandler(payments *services.PaymentService, resolver *services.ReturnResolver) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		resolver: resolver,
		validate: validator.New(),
	}
}

type initRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type assertRequest struct {
	Token string `json:"token" validate:"required"`
}

type captureRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	Amount        int64  `json:"amount"`
}

// Init creates a payment session and returns the hosted page redirect.
func (h *PaymentHandler) Init(c *fiber.Ctx) error {
	var req initRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Amount is required")
	}

	outcome, err := h.payments.InitPayment(req.Amount)
	if err != nil {
		return mapGatewayError("Payment initialization failed", err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"token":       outcome.Token,
		"redirectUrl": outcome.RedirectURL,
		"expiration":  outcome.Expiration,
	})
}

// Assert reports the authorization outcome of a completed hosted-page
// flow. The gateway is not contacted when the token is missing.
func (h *PaymentHandler) Assert(c *fiber.Ctx) error {
	var req assertRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Token is required")
	}

	outcome, err := h.payments.AssertPayment(req.Token)
	if err != nil {
		return mapGatewayError("Payment verification failed", err)
	}

	return c.JSON(fiber.Map{
		"success":     outcome.Success,
		"status":      outcome.Status,
		"message":     outcome.Message,
		"transaction": outcome.Transaction,
	})
}

// Capture finalizes settlement of an authorized transaction.
func (h *PaymentHandler) Capture(c *fiber.Ctx) error {
	var req captureRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "TransactionId is required")
	}

	outcome, err := h.payments.Capture(req.TransactionID, req.Amount)
	if err != nil {
		return mapGatewayError("Capture failed", err)
	}

	response := fiber.Map{
		"success":       true,
		"transactionId": outcome.TransactionID,
		"capture":       outcome.Capture,
	}
	if outcome.RedirectURL != "" {
		response["redirectUrl"] = outcome.RedirectURL
	}

	return c.JSON(response)
}

// ReturnSuccess handles the gateway's success return redirect.
func (h *PaymentHandler) ReturnSuccess(c *fiber.Ctx) error {
	return h.handleReturn(c, services.ReturnFlowSuccess)
}

// ReturnFail handles the gateway's fail return redirect.
func (h *PaymentHandler) ReturnFail(c *fiber.Ctx) error {
	return h.handleReturn(c, services.ReturnFlowFail)
}

// ReturnAbort handles the gateway's abort return redirect.
func (h *PaymentHandler) ReturnAbort(c *fiber.Ctx) error {
	return h.handleReturn(c, services.ReturnFlowAbort)
}

func (h *PaymentHandler) handleReturn(c *fiber.Ctx, flow services.ReturnFlow) error {
	target := h.resolver.Resolve(flow, c.Queries())
	return c.Redirect(target, fiber.StatusFound)
}

// Notification receives asynchronous gateway notifications. It always
// acknowledges; the gateway does not interpret failure responses.
func (h *PaymentHandler) Notification(c *fiber.Ctx) error {
	h.payments.HandleNotification(c.Body())
	return c.SendString("OK")
}

// GetTransaction returns the stored receipt for a transaction.
func (h *PaymentHandler) GetTransaction(c *fiber.Ctx) error {
	receipt, ok, err := h.payments.GetReceipt(c.Params("id"))
	if err != nil {
		log.Printf("[Payment] receipt lookup failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load transaction")
	}
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Transaction not found")
	}
	return c.JSON(receipt)
}

// ListTransactions returns every receipt in the ledger.
func (h *PaymentHandler) ListTransactions(c *fiber.Ctx) error {
	receipts, err := h.payments.ListReceipts()
	if err != nil {
		log.Printf("[Payment] receipt listing failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load transactions")
	}
	return c.JSON(receipts)
}

func mapGatewayError(fallback string, err error) error {
	var gatewayErr *services.GatewayError
	if errors.As(err, &gatewayErr) {
		log.Printf("[Saferpay] gateway error: %v", gatewayErr)
		return fiber.NewError(fiber.StatusInternalServerError, "Saferpay API error")
	}

	var malformedErr *services.MalformedResponseError
	if errors.As(err, &malformedErr) {
		log.Printf("[Saferpay] malformed response: %v", malformedErr)
		return fiber.NewError(fiber.StatusInternalServerError, "Invalid response from Saferpay")
	}

	log.Printf("[Saferpay] unexpected error: %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, fallback)
}
