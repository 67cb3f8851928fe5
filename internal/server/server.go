package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"bloomy-gift-service/internal/apperr"
	"bloomy-gift-service/internal/dto"
	"bloomy-gift-service/internal/handler"
	applog "bloomy-gift-service/internal/middleware"
	"bloomy-gift-service/internal/service"
)

type Services struct {
	Checkout service.CheckoutService
	Webhook  service.WebhookService
	Message  service.MessageService
	Gift     service.GiftService
	Plan     service.PlanService
}

type Server struct {
	echo           *echo.Echo
	log            *slog.Logger
	paymentHandler *handler.PaymentHandler
	aiHandler      *handler.AIHandler
	giftHandler    *handler.GiftHandler
	planHandler    *handler.PlanHandler
}

func NewServer(services *Services, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}

	e.Use(middleware.RequestID())
	e.Use(applog.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:           e,
		log:            log,
		paymentHandler: handler.NewPaymentHandler(services.Checkout, services.Webhook),
		aiHandler:      handler.NewAIHandler(services.Message),
		giftHandler:    handler.NewGiftHandler(services.Gift, services.Message),
		planHandler:    handler.NewPlanHandler(services.Plan),
	}
	e.HTTPErrorHandler = s.handleError

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api.GET("/plans", s.planHandler.List)

	// -------- payments --------
	payments := api.Group("/payments")
	payments.POST("/checkout", s.paymentHandler.Checkout)
	payments.POST("/webhook", s.paymentHandler.StripeWebhook)

	// -------- messages --------
	api.POST("/ai/generate", s.aiHandler.Generate)
	api.PUT("/orders/:orderID/messages/:day", s.giftHandler.SaveManual)

	// -------- recipient --------
	api.GET("/gifts/:code", s.giftHandler.View)
}

// handleError renders every handler error as dto.ErrorResponse.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	ctx := c.Request().Context()
	status := apperr.HTTPStatus(err)
	body := &dto.ErrorResponse{Error: err.Error(), Code: apperr.Code(err)}

	appErr, isAppErr := apperr.As(err)
	switch {
	case isAppErr && appErr.Kind() == apperr.KindExternalProvider:
		// provider responses can carry account detail, clients get the sentinel only
		s.log.WarnContext(ctx, "provider request failed",
			"path", c.Path(),
			"code", appErr.Code(),
			"error", err,
		)
		body.Error = appErr.Error()
	case isAppErr && apperr.IsPolicy(err):
		s.log.InfoContext(ctx, "request rejected",
			"path", c.Path(),
			"code", appErr.Code(),
		)
	}

	var httpErr *echo.HTTPError
	if !isAppErr && errors.As(err, &httpErr) {
		status = httpErr.Code
		body.Error = http.StatusText(status)
		if msg, ok := httpErr.Message.(string); ok {
			body.Error = msg
		}
		switch status {
		case http.StatusNotFound:
			body.Code = "not_found"
		case http.StatusMethodNotAllowed:
			body.Code = "method_not_allowed"
		default:
			body.Code = apperr.ErrInvalidRequest.Code()
		}
	}

	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(ctx, "request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
		// internals stay in the log
		body.Error = http.StatusText(status)
		body.Code = "internal"
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.log.Error("write error response", "error", err)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
