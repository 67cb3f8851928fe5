package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bloomy-gift-service/internal/service"
)

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

func (h *PlanHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.planService.List())
}
