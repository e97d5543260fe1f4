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

const maxNicknameLength = 50

type guestService struct {
	guestRepo      domain.GuestRepository
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

// NewGuestService creates a GuestService with the given repositories.
func NewGuestService(guestRepo domain.GuestRepository, eventRepo domain.EventRepository, timeout time.Duration) domain.GuestService {
	return &guestService{
		guestRepo:      guestRepo,
		eventRepo:      eventRepo,
		contextTimeout: timeout,
	}
}

func (s *guestService) JoinEvent(ctx context.Context, eventCode, nickname, gender, lookingFor string) (*domain.Guest, *domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByCode(ctx, eventCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event by code: %w", err)
	}

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, nil, fmt.Errorf("%w: nickname is required", domain.ErrInvalidInput)
	}
	if len(nickname) > maxNicknameLength {
		return nil, nil, fmt.Errorf("%w: nickname must be at most %d characters", domain.ErrInvalidInput, maxNicknameLength)
	}
	if !domain.ValidGender(gender) {
		return nil, nil, fmt.Errorf("%w: unknown gender %q", domain.ErrInvalidInput, gender)
	}
	if !domain.ValidLookingFor(lookingFor) {
		return nil, nil, fmt.Errorf("%w: unknown looking_for %q", domain.ErrInvalidInput, lookingFor)
	}

	guest := domain.NewGuest(event.ID, nickname, gender, lookingFor, time.Now())
	guest.ID = uuid.NewString()
	if err := s.guestRepo.Create(ctx, guest); err != nil {
		if errors.Is(err, domain.ErrNicknameTaken) {
			return nil, nil, domain.ErrNicknameTaken
		}
		return nil, nil, fmt.Errorf("create guest: %w", err)
	}
	return guest, event, nil
}

func (s *guestService) GetGuest(ctx context.Context, guestID string) (*domain.Guest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	guest, err := s.guestRepo.GetByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get guest: %w", err)
	}
	return guest, nil
}

func (s *guestService) ListGuests(ctx context.Context, eventID, ownerID string) ([]*domain.Guest, error) {
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
	guests, err := s.guestRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	if guests == nil {
		guests = []*domain.Guest{}
	}
	return guests, nil
}
