package model

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
)

type GeneratedBy string

const (
	GeneratedByAI     GeneratedBy = "ai"
	GeneratedByManual GeneratedBy = "manual"
)

type AIEventKind string

const (
	AIEventGenerate   AIEventKind = "generate"
	AIEventRegenerate AIEventKind = "regenerate"
)

type Order struct {
	ID              string      `gorm:"primaryKey;size:64;not null"` // order_<uuid>
	FlowerID        string      `gorm:"size:64"`
	Plan            PlanKey     `gorm:"size:16;not null"`
	BuyerName       string      `gorm:"size:128"`
	RecipientName   string      `gorm:"size:128"`
	Theme           string      `gorm:"size:64"`
	Status          OrderStatus `gorm:"size:16;index;not null;default:pending"`
	TokenGrant      int         `gorm:"not null;default:0"`
	TokenUsed       int         `gorm:"not null;default:0"`
	GiftCode        string      `gorm:"size:32;uniqueIndex;not null"`
	StripeSessionID string      `gorm:"size:255"`
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

func (o *Order) TokensRemaining() int {
	if o.TokenUsed >= o.TokenGrant {
		return 0
	}
	return o.TokenGrant - o.TokenUsed
}

type DailyMessage struct {
	// FK → orders.id
	OrderID     string      `gorm:"primaryKey;size:64;not null"`
	DayIndex    int         `gorm:"primaryKey;autoIncrement:false;not null"` // 1-based
	Content     string      `gorm:"type:text;not null"`
	GeneratedBy GeneratedBy `gorm:"size:16;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AIEvent is an append-only audit record of one generation.
type AIEvent struct {
	ID        uint        `gorm:"primaryKey"`
	OrderID   string      `gorm:"size:64;index;not null"`
	Kind      AIEventKind `gorm:"size:16;not null"`
	Tokens    int         `gorm:"not null"`
	CreatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"` // stripe event id
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
