package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bloomy-gift-service/internal/apperr"
	"bloomy-gift-service/internal/cache"
	"bloomy-gift-service/internal/dto"
	"bloomy-gift-service/internal/logger"
	"bloomy-gift-service/internal/model"
	"bloomy-gift-service/internal/repository"
	"bloomy-gift-service/internal/testutil"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, in GenerateInput) (string, string) {
	args := m.Called(ctx, in)
	return args.String(0), args.String(1)
}

type messageFixture struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	messageRepo repository.MessageRepository
	aiEventRepo repository.AIEventRepository
}

func newMessageFixture(t *testing.T) *messageFixture {
	db := testutil.NewTestDB(t)
	return &messageFixture{
		db:          db,
		orderRepo:   repository.NewOrderRepository(db),
		messageRepo: repository.NewMessageRepository(db),
		aiEventRepo: repository.NewAIEventRepository(db),
	}
}

func (f *messageFixture) service(generator MessageGenerator) MessageService {
	log := logger.Discard()
	return NewMessageService(f.orderRepo, f.messageRepo, f.aiEventRepo,
		NewTokenGuard(f.orderRepo, log), generator, cache.NewNoopGiftCache(), log)
}

func TestMessageService_Generate(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t)
	testutil.SeedOrder(t, f.db, testutil.PaidOrder("o1", 3))

	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, GenerateInput{
		DayIndex: 2, Theme: "gratitude", BuyerName: "Deniz", RecipientName: "Mira",
	}).Return("Thank you, Mira", "openai").Once()

	resp, err := f.service(gen).Generate(ctx, &dto.GenerateRequest{
		OrderID:  "o1",
		DayIndex: 2,
		Theme:    "gratitude",
		Names:    dto.Names{Recipient: "Mira"},
	})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "Thank you, Mira", resp.Content)
	assert.Equal(t, 2, resp.TokensRemaining)
	gen.AssertExpectations(t)

	messages, err := f.messageRepo.ListByOrder(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, 2, messages[0].DayIndex)
	assert.Equal(t, model.GeneratedByAI, messages[0].GeneratedBy)
}

func TestMessageService_Generate_UnpaidOrderRejectedFirst(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t)
	testutil.SeedOrder(t, f.db, &model.Order{ID: "o1", TokenGrant: 5})

	gen := new(mockGenerator)
	_, err := f.service(gen).Generate(ctx, &dto.GenerateRequest{OrderID: "o1", DayIndex: 1})
	assert.ErrorIs(t, err, apperr.ErrPaymentRequired)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)

	order, err := f.orderRepo.FindByID(ctx, nil, "o1")
	require.NoError(t, err)
	assert.Equal(t, 0, order.TokenUsed)

	messages, err := f.messageRepo.ListByOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Empty(t, messages)

	var count int64
	require.NoError(t, f.db.Model(&model.AIEvent{}).Where("order_id = ?", "o1").Count(&count).Error)
	assert.Zero(t, count)
}

func TestMessageService_Generate_UnknownOrder(t *testing.T) {
	f := newMessageFixture(t)
	_, err := f.service(new(mockGenerator)).Generate(context.Background(), &dto.GenerateRequest{OrderID: "nope", DayIndex: 1})
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
}

func TestMessageService_Generate_DayOutOfRange(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t)
	testutil.SeedOrder(t, f.db, testutil.PaidOrder("o1", 3))

	gen := new(mockGenerator)
	_, err := f.service(gen).Generate(ctx, &dto.GenerateRequest{OrderID: "o1", DayIndex: 31})
	assert.ErrorIs(t, err, apperr.ErrInvalidDay)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)

	order, err := f.orderRepo.FindByID(ctx, nil, "o1")
	require.NoError(t, err)
	assert.Equal(t, 0, order.TokenUsed)
}

func TestMessageService_Generate_DefaultTheme(t *testing.T) {
	f := newMessageFixture(t)
	order := testutil.PaidOrder("o1", 3)
	order.Theme = ""
	testutil.SeedOrder(t, f.db, order)

	resp, err := f.service(NewMessageGenerator(nil, logger.Discard())).
		Generate(context.Background(), &dto.GenerateRequest{OrderID: "o1", DayIndex: 1})
	require.NoError(t, err)
	assert.Contains(t, resp.Content, DefaultTheme)
	assert.Contains(t, resp.Content, "Ada")
}

func TestMessageService_Generate_RegenerateOverwrites(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t)
	testutil.SeedOrder(t, f.db, testutil.PaidOrder("o1", 5))

	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("first", "template").Once()
	gen.On("Generate", mock.Anything, mock.Anything).Return("second", "template").Once()
	svc := f.service(gen)

	req := &dto.GenerateRequest{OrderID: "o1", DayIndex: 4}
	_, err := svc.Generate(ctx, req)
	require.NoError(t, err)
	resp, err := svc.Generate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TokensRemaining)

	messages, err := f.messageRepo.ListByOrder(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "second", messages[0].Content)

	var kinds []model.AIEventKind
	require.NoError(t, f.db.Model(&model.AIEvent{}).Where("order_id = ?", "o1").Order("id").Pluck("kind", &kinds).Error)
	assert.Equal(t, []model.AIEventKind{model.AIEventGenerate, model.AIEventRegenerate}, kinds)
}

func TestMessageService_Generate_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t)
	testutil.SeedOrder(t, f.db, testutil.PaidOrder("o1", 1))

	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("only one", "template").Once()
	svc := f.service(gen)

	_, err := svc.Generate(ctx, &dto.GenerateRequest{OrderID: "o1", DayIndex: 1})
	require.NoError(t, err)

	_, err = svc.Generate(ctx, &dto.GenerateRequest{OrderID: "o1", DayIndex: 2})
	assert.ErrorIs(t, err, apperr.ErrQuotaExceeded)
	gen.AssertNumberOfCalls(t, "Generate", 1)

	exists, err := f.messageRepo.Exists(ctx, "o1", 2)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMessageService_Generate_ConcurrentNeverOverspends(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t)
	testutil.SeedOrder(t, f.db, testutil.PaidOrder("o1", 4))
	svc := f.service(NewMessageGenerator(nil, logger.Discard()))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			_, err := svc.Generate(ctx, &dto.GenerateRequest{OrderID: "o1", DayIndex: day})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, apperr.ErrQuotaExceeded) {
				rejected++
			}
		}(i%30 + 1)
	}
	wg.Wait()

	assert.Equal(t, 4, ok)
	assert.Equal(t, 8, rejected)

	order, err := f.orderRepo.FindByID(ctx, nil, "o1")
	require.NoError(t, err)
	assert.Equal(t, 4, order.TokenUsed)
}

func TestMessageService_SaveManual(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t)
	testutil.SeedOrder(t, f.db, testutil.PaidOrder("o1", 2))
	svc := f.service(new(mockGenerator))

	require.NoError(t, svc.SaveManual(ctx, "o1", 3, "  You <b>make</b> me smile & laugh  "))

	messages, err := f.messageRepo.ListByOrder(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "You make me smile & laugh", messages[0].Content)
	assert.Equal(t, model.GeneratedByManual, messages[0].GeneratedBy)

	order, err := f.orderRepo.FindByID(ctx, nil, "o1")
	require.NoError(t, err)
	assert.Equal(t, 0, order.TokenUsed)
}

func TestMessageService_SaveManual_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t)
	testutil.SeedOrder(t, f.db, testutil.PaidOrder("o1", 2))
	testutil.SeedOrder(t, f.db, &model.Order{ID: "pending"})
	svc := f.service(new(mockGenerator))

	tests := []struct {
		name    string
		day     int
		content string
		want    error
	}{
		{name: "empty", day: 1, content: "   ", want: apperr.ErrInvalidContent},
		{name: "too long", day: 1, content: strings.Repeat("a", maxManualMessageLength+1), want: apperr.ErrInvalidContent},
		{name: "link", day: 1, content: "see https://example.org", want: apperr.ErrInvalidContent},
		{name: "bare domain", day: 1, content: "visit flowers.com today", want: apperr.ErrInvalidContent},
		{name: "script", day: 1, content: "<script>alert(1)</script>", want: apperr.ErrInvalidContent},
		{name: "javascript scheme", day: 1, content: "javascript:void(0)", want: apperr.ErrInvalidContent},
		{name: "escaped script", day: 1, content: "&lt;script&gt;alert(1)&lt;/script&gt;", want: apperr.ErrInvalidContent},
		{name: "escaped handler", day: 1, content: "hi &lt;svg onmouseover=alert(1)&gt;", want: apperr.ErrInvalidContent},
		{name: "double escaped script", day: 1, content: "&amp;lt;script&amp;gt;alert(1)", want: apperr.ErrInvalidContent},
		{name: "handler attribute", day: 1, content: "<b onmouseover=alert(1)>hi</b>", want: apperr.ErrInvalidContent},
		{name: "day zero", day: 0, content: "hello", want: apperr.ErrInvalidDay},
		{name: "day past plan", day: 31, content: "hello", want: apperr.ErrInvalidDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SaveManual(ctx, "o1", tt.day, tt.content)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	err := svc.SaveManual(ctx, "missing", 1, "hello")
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)

	err = svc.SaveManual(ctx, "pending", 1, "hello")
	assert.ErrorIs(t, err, apperr.ErrPaymentRequired)

	messages, err := f.messageRepo.ListByOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestTokenGuard_Consume(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	testutil.SeedOrder(t, db, testutil.PaidOrder("paid", 2))
	testutil.SeedOrder(t, db, &model.Order{ID: "pending", TokenGrant: 2})
	guard := NewTokenGuard(orderRepo, logger.Discard())

	remaining, err := guard.Consume(ctx, "paid")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
	remaining, err = guard.Consume(ctx, "paid")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	_, err = guard.Consume(ctx, "paid")
	assert.ErrorIs(t, err, apperr.ErrQuotaExceeded)

	_, err = guard.Consume(ctx, "pending")
	assert.ErrorIs(t, err, apperr.ErrPaymentRequired)

	_, err = guard.Consume(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
}
