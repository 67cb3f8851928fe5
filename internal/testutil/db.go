// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bloomy-gift-service/internal/client"
	"bloomy-gift-service/internal/model"
)

// NewTestDB opens a private in-memory sqlite store with the schema migrated.
// A single connection keeps the memory database alive for the whole test.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, client.Migrate(db))
	return db
}

// SeedOrder inserts order and returns it.
func SeedOrder(t *testing.T, db *gorm.DB, order *model.Order) *model.Order {
	t.Helper()
	if order.Plan == "" {
		order.Plan = model.Plan30Days
	}
	if order.Status == "" {
		order.Status = model.OrderStatusPending
	}
	if order.GiftCode == "" {
		order.GiftCode = "gift_" + order.ID
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

// PaidOrder is a paid 30-day order with the given token grant.
func PaidOrder(id string, grant int) *model.Order {
	return &model.Order{
		ID:            id,
		FlowerID:      "rose",
		Plan:          model.Plan30Days,
		BuyerName:     "Deniz",
		RecipientName: "Ada",
		Theme:         "romantic",
		Status:        model.OrderStatusPaid,
		TokenGrant:    grant,
		GiftCode:      "gift_" + id,
	}
}
