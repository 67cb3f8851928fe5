package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	stripeapi "github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"bloomy-gift-service/internal/config"
)

var ErrMissingWebhookSecret = errors.New("stripe webhook secret is not configured")

// --- INTERFACE ---

type StripeClient interface {
	// CreateCheckoutSession opens a hosted payment-mode session for a single price
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSessionResult, error)

	// ConstructEvent verifies the Stripe-Signature header against the raw payload
	ConstructEvent(payload []byte, signature string) (*WebhookEvent, error)
}

type CheckoutSessionRequest struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type CheckoutSessionResult struct {
	ID  string
	URL string
}

type WebhookEvent struct {
	ID   string
	Type string
	Data json.RawMessage
}

// --- IMPLEMENTATION ---

type stripeClientImpl struct {
	api           *stripeapi.API
	webhookSecret string
}

func NewStripeClient(cfg *config.Stripe) StripeClient {
	return &stripeClientImpl{
		api:           stripeapi.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
	}
}

// --- METHODS ---

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSessionResult, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSessionResult{
		ID:  sess.ID,
		URL: sess.URL,
	}, nil
}

func (c *stripeClientImpl) ConstructEvent(payload []byte, signature string) (*WebhookEvent, error) {
	if c.webhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("construct stripe event: %w", err)
	}

	var data json.RawMessage
	if event.Data != nil {
		data = event.Data.Raw
	}

	return &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
		Data: data,
	}, nil
}
