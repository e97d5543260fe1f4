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

// AddQuestionRequest is the request body for POST /events/{eventID}/questions.
type AddQuestionRequest struct {
	Prompt     string   `json:"prompt"`
	Type       string   `json:"type"`
	Options    []string `json:"options"`
	OrderIndex int      `json:"order_index"`
}

// Validate implements Validator.
func (a AddQuestionRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.Prompt) == "" {
		errs = append(errs, "prompt is required")
	}
	if !domain.ValidQuestionType(a.Type) {
		errs = append(errs, "type must be \"multiple_choice\" or \"text\"")
	}
	if a.OrderIndex < 0 {
		errs = append(errs, "order_index cannot be negative")
	}
	return errs
}

// AddQuestionSuccessResponse is the success response envelope for POST /events/{eventID}/questions (201).
type AddQuestionSuccessResponse struct {
	Data  *domain.Question  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListQuestionsSuccessResponse is the success response envelope for GET /events/{eventID}/questions (200).
type ListQuestionsSuccessResponse struct {
	Data  []*domain.Question `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// UpdateQuestionRequest is the request body for PATCH /questions/{questionID}.
// All fields optional; omitted fields are unchanged.
type UpdateQuestionRequest struct {
	Prompt     *string   `json:"prompt"`
	Options    *[]string `json:"options"`
	OrderIndex *int      `json:"order_index"`
}

// Validate implements Validator.
func (u UpdateQuestionRequest) Validate() []string {
	var errs []string
	if u.Prompt != nil && strings.TrimSpace(*u.Prompt) == "" {
		errs = append(errs, "prompt cannot be empty")
	}
	if u.OrderIndex != nil && *u.OrderIndex < 0 {
		errs = append(errs, "order_index cannot be negative")
	}
	return errs
}

// UpdateQuestionSuccessResponse is the success response envelope for PATCH /questions/{questionID} (200).
type UpdateQuestionSuccessResponse struct {
	Data  *domain.Question  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// DeleteQuestionResponse is the data payload for DELETE /questions/{questionID} (200).
type DeleteQuestionResponse struct {
	Status string `json:"status"`
}

// DeleteQuestionSuccessResponse is the success response envelope for DELETE /questions/{questionID} (200).
type DeleteQuestionSuccessResponse struct {
	Data  DeleteQuestionResponse `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// QuestionController handles survey management endpoints.
type QuestionController struct {
	Logger  *slog.Logger
	Service domain.QuestionService
}

// NewQuestionController creates a QuestionController with the given logger and service.
func NewQuestionController(logger *slog.Logger, svc domain.QuestionService) *QuestionController {
	return &QuestionController{
		Logger:  logger,
		Service: svc,
	}
}

// questionWriteError maps survey mutation errors to HTTP responses. The
// create, update, and delete paths share the same error surface.
func (c *QuestionController) questionWriteError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrMatchingDone):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "survey is frozen after matching")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// AddQuestion godoc
// @Summary Add a survey question
// @Description Add a question to the event's survey. Only the owner can edit the survey, and not after matching has completed. Multiple-choice questions need at least two distinct options.
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body AddQuestionRequest true "Question data"
// @Success 201 {object} controllers.AddQuestionSuccessResponse "data contains the created question"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (survey frozen after matching)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/questions [post]
func (c *QuestionController) AddQuestion(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req AddQuestionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	question := &domain.Question{
		Prompt:     req.Prompt,
		Type:       req.Type,
		Options:    req.Options,
		OrderIndex: req.OrderIndex,
	}
	if err := c.Service.AddQuestion(r.Context(), eventID, userID, question); err != nil {
		c.questionWriteError(w, r, err, "event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, question)
}

// ListQuestions godoc
// @Summary List survey questions
// @Description Returns the event's questions in display order. Public: guests fetch the survey to answer it.
// @Tags questions
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListQuestionsSuccessResponse "data contains the questions"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/questions [get]
func (c *QuestionController) ListQuestions(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	questions, err := c.Service.ListQuestions(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, questions)
}

// UpdateQuestion godoc
// @Summary Update a survey question
// @Description Updates prompt, options, or display order. Only the owner can edit, and not after matching has completed.
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionID path string true "Question ID (UUID)"
// @Param body body UpdateQuestionRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.UpdateQuestionSuccessResponse "data contains the updated question"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (survey frozen after matching)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /questions/{questionID} [patch]
func (c *QuestionController) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := r.PathValue("questionID")
	if questionID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing questionID")
		return
	}
	var req UpdateQuestionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	question, err := c.Service.UpdateQuestion(r.Context(), questionID, userID, req.Prompt, req.Options, req.OrderIndex)
	if err != nil {
		c.questionWriteError(w, r, err, "question not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, question)
}

// DeleteQuestion godoc
// @Summary Delete a survey question
// @Description Deletes a question and its responses. Only the owner can delete, and not after matching has completed.
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param questionID path string true "Question ID (UUID)"
// @Success 200 {object} controllers.DeleteQuestionSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (survey frozen after matching)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /questions/{questionID} [delete]
func (c *QuestionController) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := r.PathValue("questionID")
	if questionID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing questionID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteQuestion(r.Context(), questionID, userID); err != nil {
		c.questionWriteError(w, r, err, "question not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteQuestionResponse{Status: "deleted"})
}
