// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minhlq/folio/internal/platform/apperr"
	requestutil "github.com/minhlq/folio/internal/platform/request"
	"github.com/minhlq/folio/internal/platform/respond"
)

// Handler implements the HTTP layer for reader settings.
type Handler struct {
	manager *Manager
}

// NewHandler constructs a new settings [Handler].
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// Routes returns a [chi.Router] configured with the settings endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.getSettings)
	router.Put("/{key}", handler.updateSetting)
	return router
}

// settingsResponse pairs the stored values with their resolved form.
type settingsResponse struct {
	Settings Settings `json:"settings"`
	Resolved Applied  `json:"resolved"`
}

/*
GET /api/v1/settings.

Description: Returns the current reader settings together with the resolved
presentation values (pixel sizes, font stacks, theme class) derived from
them.

Response:
  - 200: settingsResponse
*/
func (handler *Handler) getSettings(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, settingsResponse{
		Settings: handler.manager.Current(),
		Resolved: handler.manager.Resolved(),
	})
}

// updateSettingRequest carries the new value for a single setting.
type updateSettingRequest struct {
	Value any `json:"value"`
}

/*
PUT /api/v1/settings/{key}.

Description: Updates one setting. Out-of-range or unknown values are
rejected and the stored settings stay untouched.

Request:
  - body: updateSettingRequest

Response:
  - 200: settingsResponse: The settings after the update
  - 400: Validation: Unknown key or invalid value
*/
func (handler *Handler) updateSetting(writer http.ResponseWriter, request *http.Request) {
	var input updateSettingRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	key := requestutil.Param(request, "key")
	if !handler.manager.UpdateSetting(request.Context(), key, input.Value) {
		respond.Error(writer, request,
			apperr.ValidationError("Invalid value for setting "+key))
		return
	}

	respond.OK(writer, settingsResponse{
		Settings: handler.manager.Current(),
		Resolved: handler.manager.Resolved(),
	})
}
