package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"bloomy-gift-service/internal/apperr"
	"bloomy-gift-service/internal/dto"
	"bloomy-gift-service/internal/service"
)

type GiftHandler struct {
	giftService    service.GiftService
	messageService service.MessageService
}

func NewGiftHandler(giftService service.GiftService, messageService service.MessageService) *GiftHandler {
	return &GiftHandler{
		giftService:    giftService,
		messageService: messageService,
	}
}

func (h *GiftHandler) View(c echo.Context) error {
	ctx := c.Request().Context()

	gift, err := h.giftService.View(ctx, c.Param("code"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, gift)
}

// SaveManual stores a message typed by the buyer instead of a generated one.
// It does not spend tokens.
func (h *GiftHandler) SaveManual(c echo.Context) error {
	ctx := c.Request().Context()

	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		return fmt.Errorf("day %q: %w", c.Param("day"), apperr.ErrInvalidDay)
	}

	var req dto.ManualMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.messageService.SaveManual(ctx, c.Param("orderID"), day, req.Content); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.OKResponse{OK: true})
}
