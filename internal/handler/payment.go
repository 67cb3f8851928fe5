package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"bloomy-gift-service/internal/apperr"
	"bloomy-gift-service/internal/dto"
	"bloomy-gift-service/internal/service"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	maxWebhookBodyBytes   = 64 << 10
)

type PaymentHandler struct {
	checkoutService service.CheckoutService
	webhookService  service.WebhookService
}

func NewPaymentHandler(checkoutService service.CheckoutService, webhookService service.WebhookService) *PaymentHandler {
	return &PaymentHandler{
		checkoutService: checkoutService,
		webhookService:  webhookService,
	}
}

func (h *PaymentHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.checkoutService.CreateSession(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	// the signature covers the exact bytes, so the body is never re-encoded
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", apperr.ErrInvalidRequest, err)
	}

	err = h.webhookService.HandleWebhook(ctx, c.Request().Header.Get(stripeSignatureHeader), body)
	if err != nil {
		return fmt.Errorf("handle webhook: %w", err)
	}

	return c.JSON(http.StatusOK, &dto.WebhookResponse{Received: true})
}
