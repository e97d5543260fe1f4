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

type responseService struct {
	responseRepo   domain.ResponseRepository
	guestRepo      domain.GuestRepository
	questionRepo   domain.QuestionRepository
	contextTimeout time.Duration
}

// NewResponseService creates a ResponseService with the given repositories.
func NewResponseService(responseRepo domain.ResponseRepository,
	guestRepo domain.GuestRepository,
	questionRepo domain.QuestionRepository,
	timeout time.Duration,
) domain.ResponseService {
	return &responseService{
		responseRepo:   responseRepo,
		guestRepo:      guestRepo,
		questionRepo:   questionRepo,
		contextTimeout: timeout,
	}
}

func (s *responseService) SubmitAnswers(ctx context.Context, guestID string, answers []domain.AnswerSubmission) ([]*domain.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	guest, err := s.guestRepo.GetByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get guest: %w", err)
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: answers are required", domain.ErrInvalidInput)
	}

	questions, err := s.questionRepo.ListByEventID(ctx, guest.EventID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	byID := make(map[string]*domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	now := time.Now()
	responses := make([]*domain.Response, 0, len(answers))
	for _, a := range answers {
		question, ok := byID[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: question %s does not belong to this event", domain.ErrInvalidInput, a.QuestionID)
		}
		answer := strings.TrimSpace(a.Answer)
		if answer == "" {
			return nil, fmt.Errorf("%w: answer for question %s is empty", domain.ErrInvalidInput, a.QuestionID)
		}
		if question.Type == domain.QuestionTypeMultipleChoice && !containsOption(question.Options, answer) {
			return nil, fmt.Errorf("%w: answer %q is not an option of question %s", domain.ErrInvalidInput, answer, a.QuestionID)
		}
		response := domain.NewResponse(guestID, a.QuestionID, answer, now, now)
		response.ID = uuid.NewString()
		responses = append(responses, response)
	}

	// All answers validated; now upsert. A resubmission replaces the
	// guest's previous answer per question.
	for _, r := range responses {
		if err := s.responseRepo.Upsert(ctx, r); err != nil {
			return nil, fmt.Errorf("save response: %w", err)
		}
	}
	return responses, nil
}

func containsOption(options []string, answer string) bool {
	for _, o := range options {
		if o == answer {
			return true
		}
	}
	return false
}

func (s *responseService) ListGuestResponses(ctx context.Context, guestID string) ([]*domain.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.guestRepo.GetByID(ctx, guestID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get guest: %w", err)
	}
	responses, err := s.responseRepo.ListByGuestID(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	if responses == nil {
		responses = []*domain.Response{}
	}
	return responses, nil
}
