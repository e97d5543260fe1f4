package domain

import (
	"context"
	"time"
)

// Response represents one guest's answer to one question. At most one
// response exists per (guest, question); resubmitting replaces the answer.
// swagger:model Response
type Response struct {
	ID         string    `json:"id"`
	GuestID    string    `json:"guest_id"`
	QuestionID string    `json:"question_id"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewResponse returns a new Response with the given fields. ID is assigned
// by the service on create.
func NewResponse(guestID, questionID, answer string, createdAt, updatedAt time.Time) *Response {
	return &Response{
		GuestID:    guestID,
		QuestionID: questionID,
		Answer:     answer,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

// AnswerSubmission is one (question, answer) item in a survey submission.
type AnswerSubmission struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// ResponseRepository defines the interface for response storage
type ResponseRepository interface {
	// Upsert inserts the response or, if one exists for the same
	// (guest, question), replaces its answer.
	Upsert(ctx context.Context, response *Response) error
	ListByGuestID(ctx context.Context, guestID string) ([]*Response, error)
	// ListByEventID returns every response of every guest in the event.
	ListByEventID(ctx context.Context, eventID string) ([]*Response, error)
	// CountRespondentsByEventID counts guests with at least one response.
	CountRespondentsByEventID(ctx context.Context, eventID string) (int, error)
}

// ResponseService defines the business logic for survey answers.
type ResponseService interface {
	// SubmitAnswers upserts the guest's answers. Each answer must reference
	// a question of the guest's event; multiple-choice answers must be one
	// of the question's options.
	SubmitAnswers(ctx context.Context, guestID string, answers []AnswerSubmission) ([]*Response, error)
	ListGuestResponses(ctx context.Context, guestID string) ([]*Response, error)
}
