package handlers

import (
	"errors"

	"github.com/de-inherit/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

func statusForErr(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrInvalidConfig):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrAlreadyReleased):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func errorBody(err error) string {
	if statusForErr(err) == fiber.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
