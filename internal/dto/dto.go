package dto

import "time"

type CheckoutRequest struct {
	Plan          string `json:"plan" validate:"required"`
	SuccessURL    string `json:"successUrl" validate:"required,url"`
	CancelURL     string `json:"cancelUrl" validate:"required,url"`
	FlowerID      string `json:"flowerId"`
	BuyerName     string `json:"buyerName" validate:"max=128"`
	RecipientName string `json:"recipientName" validate:"max=128"`
	Theme         string `json:"theme" validate:"max=64"`
}

type CheckoutResponse struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	OrderID string `json:"orderId"`
}

type Names struct {
	Buyer     string `json:"buyer" validate:"max=128"`
	Recipient string `json:"recipient" validate:"max=128"`
}

type GenerateRequest struct {
	OrderID  string `json:"orderId" validate:"required"`
	DayIndex int    `json:"dayIndex" validate:"min=1"`
	Theme    string `json:"theme" validate:"max=64"`
	Names    Names  `json:"names"`
}

type GenerateResponse struct {
	OK              bool   `json:"ok"`
	Content         string `json:"content"`
	TokensRemaining int    `json:"tokensRemaining"`
}

type ManualMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type PlanResponse struct {
	Key             string `json:"key"`
	Days            int    `json:"days"`
	TokenGrant      int    `json:"tokenGrant"`
	Price           string `json:"price"`
	Currency        string `json:"currency"`
	PriceConfigured bool   `json:"priceConfigured"`
}

type GiftMessage struct {
	DayIndex    int    `json:"dayIndex"`
	Content     string `json:"content"`
	GeneratedBy string `json:"generatedBy"`
}

type GiftResponse struct {
	GiftCode      string        `json:"giftCode"`
	FlowerID      string        `json:"flowerId"`
	Plan          string        `json:"plan"`
	Days          int           `json:"days"`
	BuyerName     string        `json:"buyerName"`
	RecipientName string        `json:"recipientName"`
	Theme         string        `json:"theme"`
	PaidAt        *time.Time    `json:"paidAt"`
	CurrentDay    int           `json:"currentDay"`
	Messages      []GiftMessage `json:"messages"`
}
