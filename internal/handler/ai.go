package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bloomy-gift-service/internal/dto"
	"bloomy-gift-service/internal/service"
)

type AIHandler struct {
	messageService service.MessageService
}

func NewAIHandler(messageService service.MessageService) *AIHandler {
	return &AIHandler{
		messageService: messageService,
	}
}

func (h *AIHandler) Generate(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.GenerateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.messageService.Generate(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
