package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"partymatch/internal/domain"
)

const minChoiceOptions = 2

type questionService struct {
	questionRepo   domain.QuestionRepository
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

// NewQuestionService creates a QuestionService with the given repositories.
func NewQuestionService(questionRepo domain.QuestionRepository, eventRepo domain.EventRepository, timeout time.Duration) domain.QuestionService {
	return &questionService{
		questionRepo:   questionRepo,
		eventRepo:      eventRepo,
		contextTimeout: timeout,
	}
}

func (s *questionService) AddQuestion(ctx context.Context, eventID, ownerID string, question *domain.Question) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	if event.MatchingCompleted {
		return domain.ErrMatchingDone
	}

	question.Prompt = strings.TrimSpace(question.Prompt)
	if question.Prompt == "" {
		return fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	if !domain.ValidQuestionType(question.Type) {
		return fmt.Errorf("%w: unknown question type %q", domain.ErrInvalidInput, question.Type)
	}
	if question.OrderIndex < 0 {
		return fmt.Errorf("%w: order_index cannot be negative", domain.ErrInvalidInput)
	}
	switch question.Type {
	case domain.QuestionTypeMultipleChoice:
		options, err := cleanOptions(question.Options)
		if err != nil {
			return err
		}
		question.Options = options
	case domain.QuestionTypeText:
		if len(question.Options) > 0 {
			return fmt.Errorf("%w: text questions cannot have options", domain.ErrInvalidInput)
		}
		question.Options = nil
	}

	question.EventID = eventID
	question.ID = uuid.NewString()
	question.CreatedAt = time.Now()

	return s.questionRepo.Create(ctx, question)
}

// cleanOptions trims multiple-choice options and rejects empty or duplicate
// entries. At least two options are required for a choice to be meaningful.
func cleanOptions(options []string) ([]string, error) {
	cleaned := make([]string, 0, len(options))
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, fmt.Errorf("%w: options cannot be empty", domain.ErrInvalidInput)
		}
		if seen[o] {
			return nil, fmt.Errorf("%w: duplicate option %q", domain.ErrInvalidInput, o)
		}
		seen[o] = true
		cleaned = append(cleaned, o)
	}
	if len(cleaned) < minChoiceOptions {
		return nil, fmt.Errorf("%w: multiple choice questions need at least %d options", domain.ErrInvalidInput, minChoiceOptions)
	}
	return cleaned, nil
}

func (s *questionService) ListQuestions(ctx context.Context, eventID string) ([]*domain.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	questions, err := s.questionRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if questions == nil {
		questions = []*domain.Question{}
	}
	return questions, nil
}

func (s *questionService) UpdateQuestion(ctx context.Context, questionID, ownerID string, prompt *string, options *[]string, orderIndex *int) (*domain.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	question, event, err := s.questionWithEvent(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	if event.MatchingCompleted {
		return nil, domain.ErrMatchingDone
	}
	if prompt != nil {
		trimmed := strings.TrimSpace(*prompt)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: prompt cannot be empty", domain.ErrInvalidInput)
		}
		*prompt = trimmed
	}
	if options != nil {
		if question.Type != domain.QuestionTypeMultipleChoice {
			return nil, fmt.Errorf("%w: only multiple choice questions have options", domain.ErrInvalidInput)
		}
		cleaned, err := cleanOptions(*options)
		if err != nil {
			return nil, err
		}
		*options = cleaned
	}
	if orderIndex != nil && *orderIndex < 0 {
		return nil, fmt.Errorf("%w: order_index cannot be negative", domain.ErrInvalidInput)
	}
	updated, err := s.questionRepo.Update(ctx, questionID, prompt, options, orderIndex)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}
	return updated, nil
}

func (s *questionService) DeleteQuestion(ctx context.Context, questionID, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	_, event, err := s.questionWithEvent(ctx, questionID)
	if err != nil {
		return err
	}
	if event.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	if event.MatchingCompleted {
		return domain.ErrMatchingDone
	}
	if err := s.questionRepo.Delete(ctx, questionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func (s *questionService) questionWithEvent(ctx context.Context, questionID string) (*domain.Question, *domain.Event, error) {
	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get question: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, question.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	return question, event, nil
}
