package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/pinpanel/internal/api/models"
	"github.com/smazurov/pinpanel/internal/gpio"
	"github.com/smazurov/pinpanel/internal/pins"
)

// registerPinRoutes registers all GPIO endpoints
func (s *Server) registerPinRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-pins",
		Method:      http.MethodGet,
		Path:        "/api/gpio",
		Summary:     "List Pins",
		Description: "Get every configured pin. Input values are read live from the hardware.",
		Tags:        []string{"gpio"},
	}, func(_ context.Context, _ *struct{}) (*models.PinListResponse, error) {
		records := s.pins.ListState()
		data := make([]models.PinData, len(records))
		for i, r := range records {
			data[i] = r.ToModel()
		}
		return &models.PinListResponse{
			Body: models.PinListData{
				Pins:  data,
				Count: len(data),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "add-pin",
		Method:        http.MethodPost,
		Path:          "/api/gpio",
		Summary:       "Add Pin",
		Description:   "Configure a new pin and persist it",
		Tags:          []string{"gpio"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{400, 409, 500},
	}, func(_ context.Context, input *models.AddPinRequest) (*models.PinResponse, error) {
		rec, err := s.pins.AddPin(input.Body.Pin, input.Body.Name, gpio.ParseMode(input.Body.Mode), input.Body.Value)
		if err != nil {
			return nil, s.mapPinError(err)
		}
		return &models.PinResponse{Body: rec.ToModel()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-pin",
		Method:      http.MethodPatch,
		Path:        "/api/gpio/{pin}",
		Summary:     "Update Pin",
		Description: "Rename a pin, drive an output, or both in one change. Values must be 0 or 1; a rejected request changes nothing.",
		Tags:        []string{"gpio"},
		Errors:      []int{400, 404, 500},
	}, func(_ context.Context, input *models.UpdatePinRequest) (*models.PinResponse, error) {
		body := input.Body
		if body.Name == nil && body.Value == nil {
			return nil, huma.Error400BadRequest("name or value is required")
		}

		rec, err := s.pins.UpdatePin(input.Pin, body.Name, body.Value)
		if err != nil {
			return nil, s.mapPinError(err)
		}
		return &models.PinResponse{Body: rec.ToModel()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-pin",
		Method:      http.MethodDelete,
		Path:        "/api/gpio/{pin}",
		Summary:     "Remove Pin",
		Description: "Release a pin and drop it from the configuration",
		Tags:        []string{"gpio"},
		Errors:      []int{404, 500},
	}, func(_ context.Context, input *models.PinPathRequest) (*models.DeletePinResponse, error) {
		if err := s.pins.RemovePin(input.Pin); err != nil {
			return nil, s.mapPinError(err)
		}
		return &models.DeletePinResponse{
			Body: models.DeletePinData{
				Pin:     input.Pin,
				Message: "Pin removed",
			},
		}, nil
	})
}

// mapPinError maps domain errors to HTTP errors
func (s *Server) mapPinError(err error) error {
	var pinErr *pins.PinError
	if !errors.As(err, &pinErr) {
		return huma.Error500InternalServerError("internal server error", err)
	}
	switch pinErr.Code {
	case pins.ErrCodeInvalidPin, pins.ErrCodeInvalidParams:
		return huma.Error400BadRequest(pinErr.Message, err)
	case pins.ErrCodeUnknownPin, pins.ErrCodeNotFound:
		return huma.Error404NotFound(pinErr.Message, err)
	case pins.ErrCodeDuplicatePin:
		return huma.Error409Conflict(pinErr.Message, err)
	case pins.ErrCodeConfigError, pins.ErrCodeConfigCorrupt, pins.ErrCodeHardwareFault:
		s.logger.Error("Pin operation failed", "code", pinErr.Code, "error", err)
		return huma.Error500InternalServerError(pinErr.Message, err)
	default:
		return huma.Error500InternalServerError("internal server error", err)
	}
}
