package domain

import (
	"context"
	"time"
)

// Question types. Multiple-choice questions carry an options list; text
// questions are free-form.
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeText           = "text"
)

// Question represents one survey question of an event. OrderIndex defines
// the order guests see questions in; it has no effect on matching.
// swagger:model Question
type Question struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	Prompt     string    `json:"prompt"`
	Type       string    `json:"type"`
	Options    []string  `json:"options,omitempty"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewQuestion returns a new Question with the given fields. ID is assigned
// by the service on create.
func NewQuestion(eventID, prompt, questionType string, options []string, orderIndex int, createdAt time.Time) *Question {
	return &Question{
		EventID:    eventID,
		Prompt:     prompt,
		Type:       questionType,
		Options:    options,
		OrderIndex: orderIndex,
		CreatedAt:  createdAt,
	}
}

// ValidQuestionType reports whether t is a recognized question type.
func ValidQuestionType(t string) bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeText
}

// QuestionRepository defines the interface for question storage
type QuestionRepository interface {
	Create(ctx context.Context, question *Question) error
	GetByID(ctx context.Context, id string) (*Question, error)
	// ListByEventID returns the event's questions ordered by order_index.
	ListByEventID(ctx context.Context, eventID string) ([]*Question, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
	// Update applies the non-nil fields and returns the updated question.
	Update(ctx context.Context, questionID string, prompt *string, options *[]string, orderIndex *int) (*Question, error)
	Delete(ctx context.Context, id string) error
}

// QuestionService defines the business logic for survey management. Survey
// edits are rejected with ErrMatchingDone once the event's matching has
// completed, so persisted matches always reflect the survey they were
// computed from.
type QuestionService interface {
	AddQuestion(ctx context.Context, eventID, ownerID string, question *Question) error
	// ListQuestions is public: guests fetch the survey to answer it.
	ListQuestions(ctx context.Context, eventID string) ([]*Question, error)
	UpdateQuestion(ctx context.Context, questionID, ownerID string, prompt *string, options *[]string, orderIndex *int) (*Question, error)
	DeleteQuestion(ctx context.Context, questionID, ownerID string) error
}
