package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for the matching engine.
var (
	// ErrInvalidConfig is returned when an event's matching configuration is
	// unusable (quota below 1, unknown matching mode). Nothing is computed
	// or written.
	ErrInvalidConfig = errors.New("invalid matching configuration")
	// ErrNothingToMatch is returned when fewer than two guests have
	// submitted at least one response, so no pairing is possible. Nothing is
	// written, so a persisted empty match set always means a real result.
	ErrNothingToMatch = errors.New("nothing to match")
	// ErrConsistency signals an internal invariant violation (self-pair or
	// cross-event pair reaching the persistence step). It indicates a bug,
	// not bad user input.
	ErrConsistency = errors.New("match set consistency violation")
	// ErrDuplicateMatch is returned when a manual match would duplicate an
	// existing pair.
	ErrDuplicateMatch = errors.New("match already exists for this pair")
)

// Match represents one persisted pairing of two guests with the
// compatibility score that produced it. GuestAID and GuestBID are stored in
// canonical order (GuestAID < GuestBID) so an unordered pair can never
// appear twice. Matches are derived data: every engine run for an event
// deletes and regenerates them.
// swagger:model Match
type Match struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	GuestAID  string    `json:"guest_a_id"`
	GuestBID  string    `json:"guest_b_id"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMatch returns a new Match with the given fields. ID is assigned by the
// service on create. Callers are responsible for canonical guest order.
func NewMatch(eventID, guestAID, guestBID string, score float64, createdAt time.Time) *Match {
	return &Match{
		EventID:   eventID,
		GuestAID:  guestAID,
		GuestBID:  guestBID,
		Score:     score,
		CreatedAt: createdAt,
	}
}

// EventMatch is the host's view of a match: both guests with nicknames
// resolved.
// swagger:model EventMatch
type EventMatch struct {
	ID             string  `json:"id"`
	GuestAID       string  `json:"guest_a_id"`
	GuestANickname string  `json:"guest_a_nickname"`
	GuestBID       string  `json:"guest_b_id"`
	GuestBNickname string  `json:"guest_b_nickname"`
	Score          float64 `json:"score"`
}

// GuestMatch is one guest's view of a match: the counterpart's identity and
// the score.
// swagger:model GuestMatch
type GuestMatch struct {
	MatchID         string  `json:"match_id"`
	PartnerID       string  `json:"partner_id"`
	PartnerNickname string  `json:"partner_nickname"`
	Score           float64 `json:"score"`
}

// CandidatePair is an eligible, scorable pair of guests considered by the
// assignment solver. GuestAID < GuestBID.
type CandidatePair struct {
	GuestAID string
	GuestBID string
	Score    float64
}

// CompatibilityScorer scores two survey profiles. A profile maps question ID
// to the guest's answer. ok is false when the profiles share no answered
// question; such a pair is excluded from matching entirely rather than
// scored zero, so "no data" stays distinguishable from "low compatibility".
type CompatibilityScorer interface {
	Score(a, b map[string]string) (score float64, ok bool)
}

// MatchRepository defines the interface for match storage
type MatchRepository interface {
	// ReplaceForEvent atomically deletes the event's matches, inserts the
	// new set, and marks the event's matching completed. When resetReveal is
	// true it also clears the event's matches_revealed flag in the same
	// transaction.
	ReplaceForEvent(ctx context.Context, eventID string, matches []*Match, resetReveal bool) error
	ListByEventID(ctx context.Context, eventID string) ([]*EventMatch, error)
	ListByGuestID(ctx context.Context, eventID, guestID string) ([]*GuestMatch, error)
	GetByID(ctx context.Context, id string) (*Match, error)
	Exists(ctx context.Context, eventID, guestAID, guestBID string) (bool, error)
	Create(ctx context.Context, match *Match) error
	Delete(ctx context.Context, id string) error
	CountByEventID(ctx context.Context, eventID string) (int, error)
}

// MatchingService defines the matching engine's operations. GuestMatches
// performs no reveal check: gating guest visibility until the host reveals
// is the HTTP layer's responsibility.
type MatchingService interface {
	// ComputeMatches scores all eligible guest pairs of the event, solves
	// the quota-constrained assignment, and atomically replaces the event's
	// match set. Re-running always recomputes from the current responses.
	ComputeMatches(ctx context.Context, eventID, ownerID string) ([]*EventMatch, error)
	ListMatches(ctx context.Context, eventID, ownerID string) ([]*EventMatch, error)
	GuestMatches(ctx context.Context, eventID, guestID string) ([]*GuestMatch, error)
	// RevealMatches marks the event's matches visible to guests. Requires a
	// completed matching run.
	RevealMatches(ctx context.Context, eventID, ownerID string) (*Event, error)
	// CreateManualMatch lets the host pair two guests by hand with score 1.0.
	CreateManualMatch(ctx context.Context, eventID, ownerID, guestAID, guestBID string) (*Match, error)
	DeleteMatch(ctx context.Context, eventID, matchID, ownerID string) error
}
