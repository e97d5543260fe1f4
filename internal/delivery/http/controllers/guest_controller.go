package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"partymatch/internal/delivery/http/helpers"
	"partymatch/internal/delivery/http/middleware"
	"partymatch/internal/domain"
)

// JoinEventRequest is the request body for POST /guests/join. Gender and
// looking_for are optional; guests who skip them are matched in any mode
// without restriction.
type JoinEventRequest struct {
	EventCode  string `json:"event_code"`
	Nickname   string `json:"nickname"`
	Gender     string `json:"gender"`
	LookingFor string `json:"looking_for"`
}

// Validate implements Validator.
func (j JoinEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(j.EventCode) == "" {
		errs = append(errs, "event_code is required")
	}
	if strings.TrimSpace(j.Nickname) == "" {
		errs = append(errs, "nickname is required")
	}
	if !domain.ValidGender(j.Gender) {
		errs = append(errs, "gender must be \"male\", \"female\", or \"other\"")
	}
	if !domain.ValidLookingFor(j.LookingFor) {
		errs = append(errs, "looking_for must be \"male\", \"female\", or \"any\"")
	}
	return errs
}

// JoinEventResponse is the data payload for POST /guests/join (201). The
// guest keeps the returned guest id; it is their handle for answering the
// survey and reading their matches.
type JoinEventResponse struct {
	Guest *domain.Guest `json:"guest"`
	Event *domain.Event `json:"event"`
}

// JoinEventSuccessResponse is the success response envelope for POST /guests/join (201).
type JoinEventSuccessResponse struct {
	Data  JoinEventResponse `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GetGuestSuccessResponse is the success response envelope for GET /guests/{guestID} (200).
type GetGuestSuccessResponse struct {
	Data  *domain.Guest     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListGuestsSuccessResponse is the success response envelope for GET /events/{eventID}/guests (200).
type ListGuestsSuccessResponse struct {
	Data  []*domain.Guest   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GuestController handles guest join and lookup endpoints.
type GuestController struct {
	Logger  *slog.Logger
	Service domain.GuestService
}

// NewGuestController creates a GuestController with the given logger and service.
func NewGuestController(logger *slog.Logger, svc domain.GuestService) *GuestController {
	return &GuestController{
		Logger:  logger,
		Service: svc,
	}
}

// JoinEvent godoc
// @Summary Join an event
// @Description Join an event with its code and a nickname. Public: guests have no accounts. Nicknames are unique within an event.
// @Tags guests
// @Accept json
// @Produce json
// @Param body body JoinEventRequest true "Join data"
// @Success 201 {object} controllers.JoinEventSuccessResponse "data contains the guest and the event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown event code)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (nickname taken)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /guests/join [post]
func (c *GuestController) JoinEvent(w http.ResponseWriter, r *http.Request) {
	var req JoinEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	guest, event, err := c.Service.JoinEvent(r.Context(), req.EventCode, req.Nickname, req.Gender, req.LookingFor)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrNicknameTaken) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "nickname already taken for this event")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, JoinEventResponse{Guest: guest, Event: event})
}

// GetGuest godoc
// @Summary Get a guest
// @Description Returns a guest record by ID. Public: guests use this to restore their session from a stored id.
// @Tags guests
// @Produce json
// @Param guestID path string true "Guest ID (UUID)"
// @Success 200 {object} controllers.GetGuestSuccessResponse "data contains the guest"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /guests/{guestID} [get]
func (c *GuestController) GetGuest(w http.ResponseWriter, r *http.Request) {
	guestID := r.PathValue("guestID")
	if guestID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing guestID")
		return
	}
	guest, err := c.Service.GetGuest(r.Context(), guestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "guest not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, guest)
}

// ListGuests godoc
// @Summary List event guests
// @Description Returns all guests of an event in join order. Only the owner can view the guest list.
// @Tags guests
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListGuestsSuccessResponse "data contains the guests"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/guests [get]
func (c *GuestController) ListGuests(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	guests, err := c.Service.ListGuests(r.Context(), eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, guests)
}
