package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/hydrowatch/tank-service/internal/api/dto"
	"github.com/hydrowatch/tank-service/internal/auth"
	"github.com/hydrowatch/tank-service/internal/service"
	apperrors "github.com/hydrowatch/tank-service/pkg/util"
)

// UnitsHandler exposes unit and tank endpoints.
type UnitsHandler struct {
	service *service.UnitService
}

// NewUnitsHandler constructs handler.
func NewUnitsHandler(unitService *service.UnitService) *UnitsHandler {
	return &UnitsHandler{service: unitService}
}

// CreateUnit POST /units (admin only, enforced in routing).
func (h *UnitsHandler) CreateUnit(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateUnitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	unit, err := h.service.CreateUnit(c.Context(), user.ID, req.Name, req.Description, req.Location)
	if err != nil {
		return err
	}
	resp := dto.NewUnitResponse(unit)
	resp.APIKey = unit.APIKey // returned once, on creation only
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resp})
}

// ListUnits GET /units.
func (h *UnitsHandler) ListUnits(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	units, err := h.service.ListUnits(c.Context(), user)
	if err != nil {
		return err
	}
	items := make([]dto.UnitResponse, 0, len(units))
	for i := range units {
		items = append(items, dto.NewUnitResponse(&units[i]))
	}
	return c.JSON(fiber.Map{"data": items, "count": len(items)})
}

// GetUnit GET /units/:id.
func (h *UnitsHandler) GetUnit(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	unit, err := h.service.GetUnit(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUnitResponse(unit)})
}

// ListTanks GET /units/:id/tanks.
func (h *UnitsHandler) ListTanks(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	tanks, err := h.service.ListTanks(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TankResponse, 0, len(tanks))
	for i := range tanks {
		items = append(items, dto.NewTankResponse(&tanks[i]))
	}
	return c.JSON(fiber.Map{"data": items, "count": len(items)})
}

// GetTank GET /tanks/:id.
func (h *UnitsHandler) GetTank(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	tank, err := h.service.GetTank(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTankResponse(tank)})
}

// TankLastReading GET /tanks/:id/last-reading.
func (h *UnitsHandler) TankLastReading(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	snapshot, err := h.service.TankLastReading(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshot})
}
