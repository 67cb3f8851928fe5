package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bloomy-gift-service/internal/apperr"
	"bloomy-gift-service/internal/client"
	"bloomy-gift-service/internal/dto"
	"bloomy-gift-service/internal/logger"
	"bloomy-gift-service/internal/model"
	"bloomy-gift-service/internal/repository"
	"bloomy-gift-service/internal/testutil"
)

type mockStripeClient struct {
	mock.Mock
}

func (m *mockStripeClient) CreateCheckoutSession(ctx context.Context, req *client.CheckoutSessionRequest) (*client.CheckoutSessionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.CheckoutSessionResult), args.Error(1)
}

func (m *mockStripeClient) ConstructEvent(payload []byte, signature string) (*client.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.WebhookEvent), args.Error(1)
}

var testPriceIDs = map[string]string{"30d": "price_30", "365d": "price_365"}

func checkoutRequest(plan, flowerID string) *dto.CheckoutRequest {
	return &dto.CheckoutRequest{
		Plan:          plan,
		SuccessURL:    "https://bloomy.test/success",
		CancelURL:     "https://bloomy.test/cancel",
		FlowerID:      flowerID,
		BuyerName:     "Deniz",
		RecipientName: "Ada",
		Theme:         "romantic",
	}
}

func TestCheckoutService_CreateSession(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	stripeClient := new(mockStripeClient)
	svc := NewCheckoutService(stripeClient, orderRepo, testPriceIDs, logger.Discard())

	var sent *client.CheckoutSessionRequest
	stripeClient.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*client.CheckoutSessionRequest) }).
		Return(&client.CheckoutSessionResult{ID: "cs_1", URL: "https://checkout.stripe.test/cs_1"}, nil)

	resp, err := svc.CreateSession(ctx, checkoutRequest("365d", "rose"))
	require.NoError(t, err)
	assert.Equal(t, "cs_1", resp.ID)
	assert.Equal(t, "https://checkout.stripe.test/cs_1", resp.URL)
	assert.Contains(t, resp.OrderID, "order_")

	require.NotNil(t, sent)
	assert.Equal(t, "price_365", sent.PriceID)
	assert.Equal(t, map[string]string{"plan": "365d", "order_id": resp.OrderID, "flower_id": "rose"}, sent.Metadata)

	order, err := orderRepo.FindByID(ctx, nil, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, 0, order.TokenGrant)
	assert.Equal(t, model.Plan365Days, order.Plan)
	assert.Equal(t, "Ada", order.RecipientName)
	assert.Len(t, order.GiftCode, giftCodeLength)
}

func TestCheckoutService_NoFlowerSkipsPendingOrder(t *testing.T) {
	ctx := context.Background()
	orderRepo := repository.NewOrderRepository(testutil.NewTestDB(t))
	stripeClient := new(mockStripeClient)
	stripeClient.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&client.CheckoutSessionResult{ID: "cs_2", URL: "u"}, nil)
	svc := NewCheckoutService(stripeClient, orderRepo, testPriceIDs, logger.Discard())

	resp, err := svc.CreateSession(ctx, checkoutRequest("30d", ""))
	require.NoError(t, err)

	_, err = orderRepo.FindByID(ctx, nil, resp.OrderID)
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
}

func TestCheckoutService_PlanNotConfigured(t *testing.T) {
	stripeClient := new(mockStripeClient)
	orderRepo := repository.NewOrderRepository(testutil.NewTestDB(t))

	t.Run("unknown plan", func(t *testing.T) {
		svc := NewCheckoutService(stripeClient, orderRepo, testPriceIDs, logger.Discard())
		_, err := svc.CreateSession(context.Background(), checkoutRequest("7d", "rose"))
		assert.ErrorIs(t, err, apperr.ErrPlanNotConfigured)
	})

	t.Run("missing price id", func(t *testing.T) {
		svc := NewCheckoutService(stripeClient, orderRepo, map[string]string{"30d": "price_30"}, logger.Discard())
		_, err := svc.CreateSession(context.Background(), checkoutRequest("365d", "rose"))
		assert.ErrorIs(t, err, apperr.ErrPlanNotConfigured)
	})

	stripeClient.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCheckoutService_ProviderError(t *testing.T) {
	stripeClient := new(mockStripeClient)
	stripeClient.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(nil, errors.New("card_declined"))
	svc := NewCheckoutService(stripeClient, repository.NewOrderRepository(testutil.NewTestDB(t)), testPriceIDs, logger.Discard())

	_, err := svc.CreateSession(context.Background(), checkoutRequest("30d", ""))
	assert.ErrorIs(t, err, apperr.ErrPaymentProvider)
	assert.Contains(t, err.Error(), "card_declined")
}

func TestPlanService_List(t *testing.T) {
	plans := NewPlanService(map[string]string{"30d": "price_30"}).List()
	require.Len(t, plans, 2)

	assert.Equal(t, "30d", plans[0].Key)
	assert.Equal(t, 100, plans[0].TokenGrant)
	assert.Equal(t, "19.00", plans[0].Price)
	assert.True(t, plans[0].PriceConfigured)

	assert.Equal(t, "365d", plans[1].Key)
	assert.Equal(t, 1000, plans[1].TokenGrant)
	assert.False(t, plans[1].PriceConfigured)
}
