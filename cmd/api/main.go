package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"bloomy-gift-service/internal/cache"
	"bloomy-gift-service/internal/client"
	"bloomy-gift-service/internal/config"
	"bloomy-gift-service/internal/logger"
	"bloomy-gift-service/internal/repository"
	"bloomy-gift-service/internal/server"
	"bloomy-gift-service/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		return err
	}

	giftCache := cache.NewNoopGiftCache()
	if cfg.Redis.URL != "" {
		rdb, err := client.InitRedisClient(context.Background(), cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		giftCache = cache.NewRedisGiftCache(rdb, cfg.Redis.GiftCacheTTL)
	} else {
		log.Info("REDIS_URL not set, gift cache disabled")
	}

	stripeClient := client.NewStripeClient(&cfg.Stripe)
	priceIDs := cfg.Stripe.PriceIDs()
	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("STRIPE_WEBHOOK_SECRET not set, webhooks will be rejected")
	}

	orderRepo := repository.NewOrderRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	aiEventRepo := repository.NewAIEventRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	tokenGuard := service.NewTokenGuard(orderRepo, log)
	generator := service.NewMessageGeneratorFromConfig(&cfg.AI, log)

	srv := server.NewServer(&server.Services{
		Checkout: service.NewCheckoutService(stripeClient, orderRepo, priceIDs, log),
		Webhook:  service.NewWebhookService(db, stripeClient, orderRepo, webhookEventRepo, log),
		Message:  service.NewMessageService(orderRepo, messageRepo, aiEventRepo, tokenGuard, generator, giftCache, log),
		Gift:     service.NewGiftService(orderRepo, messageRepo, giftCache, log),
		Plan:     service.NewPlanService(priceIDs),
	}, log)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	errCh := make(chan error, 1)
	log.Info("starting HTTP server", "addr", serverAddr, "environment", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		log.Info("signal received, starting graceful shutdown", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("shutdown complete")
	return nil
}
