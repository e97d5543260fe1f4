package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"partymatch/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	guestRepo      domain.GuestRepository
	questionRepo   domain.QuestionRepository
	responseRepo   domain.ResponseRepository
	matchRepo      domain.MatchRepository
	contextTimeout time.Duration
}

// NewEventService creates an EventService with the given repositories.
func NewEventService(eventRepo domain.EventRepository,
	guestRepo domain.GuestRepository,
	questionRepo domain.QuestionRepository,
	responseRepo domain.ResponseRepository,
	matchRepo domain.MatchRepository,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		guestRepo:      guestRepo,
		questionRepo:   questionRepo,
		responseRepo:   responseRepo,
		matchRepo:      matchRepo,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OwnerID == "" {
		return fmt.Errorf("event owner is required")
	}
	event.Name = strings.TrimSpace(event.Name)
	if event.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if event.EventType == "" {
		event.EventType = domain.EventTypeParty
	}
	if !domain.ValidEventType(event.EventType) {
		return fmt.Errorf("%w: unknown event type %q", domain.ErrInvalidInput, event.EventType)
	}
	if event.MatchingMode == "" {
		event.MatchingMode = domain.MatchingModeAny
	}
	if !domain.ValidMatchingMode(event.MatchingMode) {
		return fmt.Errorf("%w: unknown matching mode %q", domain.ErrInvalidInput, event.MatchingMode)
	}
	if event.MatchesPerGuest == 0 {
		event.MatchesPerGuest = domain.MinMatchesPerGuest
	}
	if event.MatchesPerGuest < domain.MinMatchesPerGuest || event.MatchesPerGuest > domain.MaxMatchesPerGuest {
		return fmt.Errorf("%w: matches_per_guest must be between %d and %d", domain.ErrInvalidInput, domain.MinMatchesPerGuest, domain.MaxMatchesPerGuest)
	}

	event.ID = uuid.NewString()
	event.MatchingCompleted = false
	event.MatchesRevealed = false
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()

	if event.EventCode == "" {
		code, err := generateEventCode()
		if err != nil {
			return fmt.Errorf("generate event code: %w", err)
		}
		event.EventCode = code
	}

	return s.eventRepo.Create(ctx, event)
}

const eventCodeLength = 8

var eventCodeAlphabet = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

func generateEventCode() (string, error) {
	b := make([]rune, eventCodeLength)
	max := big.NewInt(int64(len(eventCodeAlphabet)))
	for i := 0; i < eventCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = eventCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

func (s *eventService) GetEventByID(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEventByCode(ctx context.Context, code string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event by code: %w", err)
	}
	return event, nil
}

func (s *eventService) ListMyEvents(ctx context.Context, ownerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.ListByOwnerID(ctx, ownerID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, ownerID string, name, eventType, matchingMode *string, matchesPerGuest *int) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		*name = trimmed
	}
	if eventType != nil && !domain.ValidEventType(*eventType) {
		return nil, fmt.Errorf("%w: unknown event type %q", domain.ErrInvalidInput, *eventType)
	}
	if matchingMode != nil && !domain.ValidMatchingMode(*matchingMode) {
		return nil, fmt.Errorf("%w: unknown matching mode %q", domain.ErrInvalidInput, *matchingMode)
	}
	if matchesPerGuest != nil && (*matchesPerGuest < domain.MinMatchesPerGuest || *matchesPerGuest > domain.MaxMatchesPerGuest) {
		return nil, fmt.Errorf("%w: matches_per_guest must be between %d and %d", domain.ErrInvalidInput, domain.MinMatchesPerGuest, domain.MaxMatchesPerGuest)
	}
	updated, err := s.eventRepo.Update(ctx, eventID, name, eventType, matchingMode, matchesPerGuest)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, ownerID string) error {
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
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) GetEventStatus(ctx context.Context, eventID, ownerID string) (*domain.EventStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}

	guestCount, err := s.guestRepo.CountByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count guests: %w", err)
	}
	respondentCount, err := s.responseRepo.CountRespondentsByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count respondents: %w", err)
	}
	questionCount, err := s.questionRepo.CountByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	matchCount, err := s.matchRepo.CountByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count matches: %w", err)
	}

	return &domain.EventStatus{
		GuestCount:        guestCount,
		RespondentCount:   respondentCount,
		QuestionCount:     questionCount,
		MatchCount:        matchCount,
		MatchingCompleted: event.MatchingCompleted,
		MatchesRevealed:   event.MatchesRevealed,
	}, nil
}
