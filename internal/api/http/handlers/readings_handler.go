package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hydrowatch/tank-service/internal/api/dto"
	"github.com/hydrowatch/tank-service/internal/auth"
	"github.com/hydrowatch/tank-service/internal/repository"
	"github.com/hydrowatch/tank-service/internal/service"
	apperrors "github.com/hydrowatch/tank-service/pkg/util"
)

// ReadingsHandler exposes the device ingest endpoint and the reading history.
type ReadingsHandler struct {
	ingest *service.IngestService
	units  *service.UnitService
}

// NewReadingsHandler constructs handler.
func NewReadingsHandler(ingest *service.IngestService, units *service.UnitService) *ReadingsHandler {
	return &ReadingsHandler{ingest: ingest, units: units}
}

// Receive POST /readings/receive. The unit is resolved by API key middleware.
func (h *ReadingsHandler) Receive(c *fiber.Ctx) error {
	unit, ok := auth.UnitFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unit required")
	}
	var req dto.ReceiveReadingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DeviceID == "" || req.WaterLevel == nil || req.Temperature == nil {
		return apperrors.NewValidationError("device_id, water_level, temperature required", nil)
	}

	reading, err := h.ingest.ProcessReading(c.Context(), unit, service.ReadingInput{
		DeviceID:       req.DeviceID,
		WaterLevel:     *req.WaterLevel,
		Temperature:    *req.Temperature,
		Vibration:      req.Vibration,
		VibrationCount: req.VibrationCount,
		SensorStates:   req.SensorStates,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"tank_id":    reading.TankID,
			"reading_id": reading.ID,
		},
	})
}

// History GET /readings/:tankId/history.
func (h *ReadingsHandler) History(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}

	filter := repository.ReadingHistoryFilter{}
	if from := parseTime(c.Query("start")); from != nil {
		filter.Start = from
	}
	if to := parseTime(c.Query("end")); to != nil {
		filter.End = to
	}

	readings, err := h.units.ReadingHistory(c.Context(), user, c.Params("tankId"), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ReadingResponse, 0, len(readings))
	for i := range readings {
		items = append(items, dto.NewReadingResponse(&readings[i]))
	}
	return c.JSON(fiber.Map{"data": items, "count": len(items)})
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}
