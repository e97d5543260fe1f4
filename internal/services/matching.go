package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"partymatch/internal/domain"
)

const manualMatchScore = 1.0

type matchingService struct {
	eventRepo          domain.EventRepository
	guestRepo          domain.GuestRepository
	responseRepo       domain.ResponseRepository
	matchRepo          domain.MatchRepository
	scorer             domain.CompatibilityScorer
	resetRevealOnRerun bool
	contextTimeout     time.Duration

	mu        sync.Mutex
	eventRuns map[string]*sync.Mutex
}

// NewMatchingService creates the matching engine. The scorer is the
// compatibility strategy used for every pair; resetRevealOnRerun controls
// whether recomputing matches also hides them from guests again.
func NewMatchingService(eventRepo domain.EventRepository,
	guestRepo domain.GuestRepository,
	responseRepo domain.ResponseRepository,
	matchRepo domain.MatchRepository,
	scorer domain.CompatibilityScorer,
	resetRevealOnRerun bool,
	timeout time.Duration,
) domain.MatchingService {
	return &matchingService{
		eventRepo:          eventRepo,
		guestRepo:          guestRepo,
		responseRepo:       responseRepo,
		matchRepo:          matchRepo,
		scorer:             scorer,
		resetRevealOnRerun: resetRevealOnRerun,
		contextTimeout:     timeout,
		eventRuns:          make(map[string]*sync.Mutex),
	}
}

// runLock returns the mutex serializing matching runs for one event. Runs
// for different events do not contend.
func (s *matchingService) runLock(eventID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.eventRuns[eventID]
	if !ok {
		l = &sync.Mutex{}
		s.eventRuns[eventID] = l
	}
	return l
}

func (s *matchingService) ComputeMatches(ctx context.Context, eventID, ownerID string) ([]*domain.EventMatch, error) {
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
	if event.MatchesPerGuest < domain.MinMatchesPerGuest {
		return nil, fmt.Errorf("%w: matches_per_guest must be at least %d", domain.ErrInvalidConfig, domain.MinMatchesPerGuest)
	}
	if !domain.ValidMatchingMode(event.MatchingMode) {
		return nil, fmt.Errorf("%w: unknown matching mode %q", domain.ErrInvalidConfig, event.MatchingMode)
	}

	// Single writer per event: snapshot, solve, and persist as one unit so
	// competing runs cannot interleave and readers only ever see a complete
	// set.
	lock := s.runLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	guests, err := s.guestRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	responses, err := s.responseRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	profiles := buildProfiles(responses)
	respondents := 0
	for _, g := range guests {
		if len(profiles[g.ID]) > 0 {
			respondents++
		}
	}
	if respondents < 2 {
		return nil, domain.ErrNothingToMatch
	}

	candidates := buildCandidates(event.MatchingMode, guests, profiles, s.scorer)
	selected := solveAssignment(candidates, event.MatchesPerGuest)

	guestIndex := make(map[string]*domain.Guest, len(guests))
	for _, g := range guests {
		guestIndex[g.ID] = g
	}
	if err := verifySelection(eventID, selected, guestIndex); err != nil {
		return nil, err
	}

	now := time.Now()
	matches := make([]*domain.Match, 0, len(selected))
	for _, c := range selected {
		m := domain.NewMatch(eventID, c.GuestAID, c.GuestBID, c.Score, now)
		m.ID = uuid.NewString()
		matches = append(matches, m)
	}

	if err := s.matchRepo.ReplaceForEvent(ctx, eventID, matches, s.resetRevealOnRerun); err != nil {
		return nil, fmt.Errorf("replace matches: %w", err)
	}

	out := make([]*domain.EventMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, &domain.EventMatch{
			ID:             m.ID,
			GuestAID:       m.GuestAID,
			GuestANickname: guestIndex[m.GuestAID].Nickname,
			GuestBID:       m.GuestBID,
			GuestBNickname: guestIndex[m.GuestBID].Nickname,
			Score:          m.Score,
		})
	}
	return out, nil
}

// verifySelection guards the persistence step against corrupted pairs: a
// self-pair, a guest outside the event, or a duplicated pair means the
// engine itself is broken, so fail the run instead of writing.
func verifySelection(eventID string, selected []domain.CandidatePair, guests map[string]*domain.Guest) error {
	seen := make(map[string]bool, len(selected))
	for _, c := range selected {
		if c.GuestAID == c.GuestBID {
			return fmt.Errorf("%w: self pair for guest %s", domain.ErrConsistency, c.GuestAID)
		}
		for _, id := range []string{c.GuestAID, c.GuestBID} {
			g, ok := guests[id]
			if !ok || g.EventID != eventID {
				return fmt.Errorf("%w: guest %s does not belong to event %s", domain.ErrConsistency, id, eventID)
			}
		}
		key := c.GuestAID + "/" + c.GuestBID
		if seen[key] {
			return fmt.Errorf("%w: pair %s selected twice", domain.ErrConsistency, key)
		}
		seen[key] = true
	}
	return nil
}

func (s *matchingService) ListMatches(ctx context.Context, eventID, ownerID string) ([]*domain.EventMatch, error) {
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
	matches, err := s.matchRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if matches == nil {
		matches = []*domain.EventMatch{}
	}
	return matches, nil
}

// GuestMatches returns the guest's matches with the counterpart resolved.
// It performs no reveal check: the HTTP layer gates guest visibility on the
// event's matches_revealed flag.
func (s *matchingService) GuestMatches(ctx context.Context, eventID, guestID string) ([]*domain.GuestMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	guest, err := s.guestRepo.GetByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get guest: %w", err)
	}
	if guest.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	matches, err := s.matchRepo.ListByGuestID(ctx, eventID, guestID)
	if err != nil {
		return nil, fmt.Errorf("list guest matches: %w", err)
	}
	if matches == nil {
		matches = []*domain.GuestMatch{}
	}
	return matches, nil
}

func (s *matchingService) RevealMatches(ctx context.Context, eventID, ownerID string) (*domain.Event, error) {
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
	if !event.MatchingCompleted {
		return nil, domain.ErrMatchingNotDone
	}
	if event.MatchesRevealed {
		return event, nil
	}
	if err := s.eventRepo.SetMatchesRevealed(ctx, eventID, true); err != nil {
		return nil, fmt.Errorf("set matches revealed: %w", err)
	}
	event.MatchesRevealed = true
	return event, nil
}

func (s *matchingService) CreateManualMatch(ctx context.Context, eventID, ownerID, guestAID, guestBID string) (*domain.Match, error) {
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
	if guestAID == guestBID {
		return nil, fmt.Errorf("%w: a guest cannot be matched with itself", domain.ErrInvalidInput)
	}
	for _, id := range []string{guestAID, guestBID} {
		g, err := s.guestRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get guest: %w", err)
		}
		if g.EventID != eventID {
			return nil, domain.ErrNotFound
		}
	}

	a, b := orderPair(guestAID, guestBID)
	exists, err := s.matchRepo.Exists(ctx, eventID, a, b)
	if err != nil {
		return nil, fmt.Errorf("check existing match: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateMatch
	}

	match := domain.NewMatch(eventID, a, b, manualMatchScore, time.Now())
	match.ID = uuid.NewString()
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	return match, nil
}

func (s *matchingService) DeleteMatch(ctx context.Context, eventID, matchID, ownerID string) error {
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
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get match: %w", err)
	}
	if match.EventID != eventID {
		return domain.ErrNotFound
	}
	if err := s.matchRepo.Delete(ctx, matchID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete match: %w", err)
	}
	return nil
}

// orderPair returns the two guest IDs in canonical (ascending) order.
func orderPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
