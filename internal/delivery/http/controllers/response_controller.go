package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"partymatch/internal/delivery/http/helpers"
	"partymatch/internal/domain"
)

// SubmitAnswersRequest is the request body for POST /guests/{guestID}/responses.
// Answers are upserted as a batch; resubmitting a question replaces the
// previous answer.
type SubmitAnswersRequest struct {
	Answers []domain.AnswerSubmission `json:"answers"`
}

// Validate implements Validator.
func (s SubmitAnswersRequest) Validate() []string {
	var errs []string
	if len(s.Answers) == 0 {
		errs = append(errs, "answers is required")
	}
	for i, a := range s.Answers {
		if strings.TrimSpace(a.QuestionID) == "" {
			errs = append(errs, fmt.Sprintf("answers[%d].question_id is required", i))
		}
	}
	return errs
}

// SubmitAnswersSuccessResponse is the success response envelope for POST /guests/{guestID}/responses (200).
type SubmitAnswersSuccessResponse struct {
	Data  []*domain.Response `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ListGuestResponsesSuccessResponse is the success response envelope for GET /guests/{guestID}/responses (200).
type ListGuestResponsesSuccessResponse struct {
	Data  []*domain.Response `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ResponseController handles survey answer endpoints.
type ResponseController struct {
	Logger  *slog.Logger
	Service domain.ResponseService
}

// NewResponseController creates a ResponseController with the given logger and service.
func NewResponseController(logger *slog.Logger, svc domain.ResponseService) *ResponseController {
	return &ResponseController{
		Logger:  logger,
		Service: svc,
	}
}

// SubmitAnswers godoc
// @Summary Submit survey answers
// @Description Upserts the guest's answers as a batch. Public: the guest id is the handle. Each answer must reference a question of the guest's event; multiple-choice answers must be one of the question's options. An invalid answer rejects the whole batch.
// @Tags responses
// @Accept json
// @Produce json
// @Param guestID path string true "Guest ID (UUID)"
// @Param body body SubmitAnswersRequest true "Answers"
// @Success 200 {object} controllers.SubmitAnswersSuccessResponse "data contains the stored responses"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown guest)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /guests/{guestID}/responses [post]
func (c *ResponseController) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	guestID := r.PathValue("guestID")
	if guestID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing guestID")
		return
	}
	var req SubmitAnswersRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	responses, err := c.Service.SubmitAnswers(r.Context(), guestID, req.Answers)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "guest not found")
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
	helpers.WriteJSONSuccess(w, http.StatusOK, responses)
}

// ListGuestResponses godoc
// @Summary List a guest's answers
// @Description Returns the guest's stored answers in question order. Public: guests use this to restore a partially answered survey.
// @Tags responses
// @Produce json
// @Param guestID path string true "Guest ID (UUID)"
// @Success 200 {object} controllers.ListGuestResponsesSuccessResponse "data contains the responses"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /guests/{guestID}/responses [get]
func (c *ResponseController) ListGuestResponses(w http.ResponseWriter, r *http.Request) {
	guestID := r.PathValue("guestID")
	if guestID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing guestID")
		return
	}
	responses, err := c.Service.ListGuestResponses(r.Context(), guestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "guest not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, responses)
}
