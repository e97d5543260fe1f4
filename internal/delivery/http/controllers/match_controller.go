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

// ComputeMatchesSuccessResponse is the success response envelope for POST /events/{eventID}/matches/compute (200).
type ComputeMatchesSuccessResponse struct {
	Data  []*domain.EventMatch `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ListMatchesSuccessResponse is the success response envelope for GET /events/{eventID}/matches (200).
type ListMatchesSuccessResponse struct {
	Data  []*domain.EventMatch `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// GuestMatchesSuccessResponse is the success response envelope for GET /events/{eventID}/guests/{guestID}/matches (200).
type GuestMatchesSuccessResponse struct {
	Data  []*domain.GuestMatch `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// RevealMatchesSuccessResponse is the success response envelope for POST /events/{eventID}/matches/reveal (200).
type RevealMatchesSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateManualMatchRequest is the request body for POST /events/{eventID}/matches.
type CreateManualMatchRequest struct {
	GuestAID string `json:"guest_a_id"`
	GuestBID string `json:"guest_b_id"`
}

// Validate implements Validator.
func (c CreateManualMatchRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.GuestAID) == "" {
		errs = append(errs, "guest_a_id is required")
	}
	if strings.TrimSpace(c.GuestBID) == "" {
		errs = append(errs, "guest_b_id is required")
	}
	return errs
}

// CreateManualMatchSuccessResponse is the success response envelope for POST /events/{eventID}/matches (201).
type CreateManualMatchSuccessResponse struct {
	Data  *domain.Match     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// DeleteMatchResponse is the data payload for DELETE /events/{eventID}/matches/{matchID} (200).
type DeleteMatchResponse struct {
	Status string `json:"status"`
}

// DeleteMatchSuccessResponse is the success response envelope for DELETE /events/{eventID}/matches/{matchID} (200).
type DeleteMatchSuccessResponse struct {
	Data  DeleteMatchResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// MatchController handles matching engine endpoints. It also holds the
// event service: the guest-facing matches endpoint checks the event's
// reveal flag before returning anything.
type MatchController struct {
	Logger   *slog.Logger
	Service  domain.MatchingService
	EventSvc domain.EventService
}

// NewMatchController creates a MatchController with the given logger and services.
func NewMatchController(logger *slog.Logger, svc domain.MatchingService, eventSvc domain.EventService) *MatchController {
	return &MatchController{
		Logger:   logger,
		Service:  svc,
		EventSvc: eventSvc,
	}
}

// ComputeMatches godoc
// @Summary Run the matching engine
// @Description Scores all eligible guest pairs, solves the quota-constrained assignment, and atomically replaces the event's matches. Re-running recomputes from current responses. Needs at least two guests with answers.
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ComputeMatchesSuccessResponse "data contains the computed matches"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (bad config or nothing to match)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/matches/compute [post]
func (c *MatchController) ComputeMatches(w http.ResponseWriter, r *http.Request) {
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
	matches, err := c.Service.ComputeMatches(r.Context(), eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		if errors.Is(err, domain.ErrNothingToMatch) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "need at least two guests with survey answers")
			return
		}
		if errors.Is(err, domain.ErrInvalidConfig) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, matches)
}

// ListMatches godoc
// @Summary List event matches
// @Description Returns all matches of the event with nicknames resolved, best score first. Only the owner can view the full list.
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListMatchesSuccessResponse "data contains the matches"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/matches [get]
func (c *MatchController) ListMatches(w http.ResponseWriter, r *http.Request) {
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
	matches, err := c.Service.ListMatches(r.Context(), eventID, userID)
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
	helpers.WriteJSONSuccess(w, http.StatusOK, matches)
}

// GuestMatches godoc
// @Summary Get a guest's matches
// @Description Returns the guest's matches with partner nicknames, best score first. Public, but returns 403 until the host reveals the event's matches.
// @Tags matches
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param guestID path string true "Guest ID (UUID)"
// @Success 200 {object} controllers.GuestMatchesSuccessResponse "data contains the guest's matches"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (matches not revealed yet)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/guests/{guestID}/matches [get]
func (c *MatchController) GuestMatches(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	guestID := r.PathValue("guestID")
	if eventID == "" || guestID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID or guestID")
		return
	}
	event, err := c.EventSvc.GetEventByID(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if !event.MatchesRevealed {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "matches not revealed yet")
		return
	}
	matches, err := c.Service.GuestMatches(r.Context(), eventID, guestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "guest not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, matches)
}

// RevealMatches godoc
// @Summary Reveal matches to guests
// @Description Marks the event's matches visible to guests. Requires a completed matching run. Revealing twice is a no-op.
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.RevealMatchesSuccessResponse "data contains the updated event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (matching not completed)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/matches/reveal [post]
func (c *MatchController) RevealMatches(w http.ResponseWriter, r *http.Request) {
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
	event, err := c.Service.RevealMatches(r.Context(), eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		if errors.Is(err, domain.ErrMatchingNotDone) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "matching has not completed yet")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CreateManualMatch godoc
// @Summary Pair two guests by hand
// @Description Creates a manual match between two guests of the event with score 1.0. Only the owner can pair. The pair must not already exist.
// @Tags matches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body CreateManualMatchRequest true "Guest pair"
// @Success 201 {object} controllers.CreateManualMatchSuccessResponse "data contains the created match"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (pair already matched)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/matches [post]
func (c *MatchController) CreateManualMatch(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req CreateManualMatchRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	match, err := c.Service.CreateManualMatch(r.Context(), eventID, userID, req.GuestAID, req.GuestBID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event or guest not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		if errors.Is(err, domain.ErrDuplicateMatch) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "pair is already matched")
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
	helpers.WriteJSONSuccess(w, http.StatusCreated, match)
}

// DeleteMatch godoc
// @Summary Delete a match
// @Description Deletes a single match of the event. Only the owner can delete.
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param matchID path string true "Match ID (UUID)"
// @Success 200 {object} controllers.DeleteMatchSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/matches/{matchID} [delete]
func (c *MatchController) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	matchID := r.PathValue("matchID")
	if eventID == "" || matchID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID or matchID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteMatch(r.Context(), eventID, matchID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "match not found")
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
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteMatchResponse{Status: "deleted"})
}
