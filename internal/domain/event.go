package domain

import (
	"context"
	"errors"
	"time"
)

// Matching modes. In "any" mode every pair of guests is eligible; in
// "preference_based" mode both guests' stated preferences must be satisfied.
const (
	MatchingModeAny             = "any"
	MatchingModePreferenceBased = "preference_based"
)

// Event types.
const (
	EventTypeParty      = "party"
	EventTypeNetworking = "networking"
)

// Bounds for the per-guest match quota.
const (
	MinMatchesPerGuest = 1
	MaxMatchesPerGuest = 5
)

// Sentinel errors for event lifecycle rules.
var (
	// ErrMatchingDone is returned when an operation is not allowed after
	// matching has completed (e.g. editing the survey).
	ErrMatchingDone = errors.New("matching already completed")
	// ErrMatchingNotDone is returned when an operation requires a completed
	// matching run first (e.g. revealing matches).
	ErrMatchingNotDone = errors.New("matching not completed")
)

// Event represents a matchmaking event run by a host. Guests join it with
// the event code, answer its survey, and are paired by the matching engine.
// swagger:model Event
type Event struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"owner_id"`
	Name              string    `json:"name"`
	EventCode         string    `json:"event_code"`
	EventType         string    `json:"event_type"`
	MatchingMode      string    `json:"matching_mode"`
	MatchesPerGuest   int       `json:"matches_per_guest"`
	MatchingCompleted bool      `json:"matching_completed"`
	MatchesRevealed   bool      `json:"matches_revealed"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID and EventCode are
// assigned by the service on create.
func NewEvent(ownerID, name, eventType, matchingMode string, matchesPerGuest int, createdAt, updatedAt time.Time) *Event {
	return &Event{
		OwnerID:         ownerID,
		Name:            name,
		EventType:       eventType,
		MatchingMode:    matchingMode,
		MatchesPerGuest: matchesPerGuest,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
}

// ValidMatchingMode reports whether mode is a recognized matching mode.
func ValidMatchingMode(mode string) bool {
	return mode == MatchingModeAny || mode == MatchingModePreferenceBased
}

// ValidEventType reports whether t is a recognized event type.
func ValidEventType(t string) bool {
	return t == EventTypeParty || t == EventTypeNetworking
}

// EventStatus is the host's polling view of an event's progress.
// swagger:model EventStatus
type EventStatus struct {
	GuestCount        int  `json:"guest_count"`
	RespondentCount   int  `json:"respondent_count"`
	QuestionCount     int  `json:"question_count"`
	MatchCount        int  `json:"match_count"`
	MatchingCompleted bool `json:"matching_completed"`
	MatchesRevealed   bool `json:"matches_revealed"`
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetByCode(ctx context.Context, code string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string, params PaginationParams) ([]*Event, int, error)
	// Update applies the non-nil fields and returns the updated event.
	Update(ctx context.Context, eventID string, name, eventType, matchingMode *string, matchesPerGuest *int) (*Event, error)
	Delete(ctx context.Context, id string) error
	SetMatchesRevealed(ctx context.Context, id string, revealed bool) error
}

// EventService defines the business logic for host-side event management.
// Event reads are public (guests poll the event record for the reveal flag);
// mutations require ownership.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEventByID(ctx context.Context, eventID string) (*Event, error)
	// GetEventByCode is the public lookup guests use to find an event.
	GetEventByCode(ctx context.Context, code string) (*Event, error)
	ListMyEvents(ctx context.Context, ownerID string, params PaginationParams) ([]*Event, int, error)
	UpdateEvent(ctx context.Context, eventID, ownerID string, name, eventType, matchingMode *string, matchesPerGuest *int) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, ownerID string) error
	GetEventStatus(ctx context.Context, eventID, ownerID string) (*EventStatus, error)
}
