package domain

import (
	"context"
	"errors"
	"time"
)

// Guest gender values. Gender is optional; empty means undisclosed.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Guest looking_for values. Empty or "any" acts as a wildcard in
// preference-based matching.
const (
	LookingForMale   = "male"
	LookingForFemale = "female"
	LookingForAny    = "any"
)

// ErrNicknameTaken is returned when a guest joins with a nickname already
// used in the same event.
var ErrNicknameTaken = errors.New("nickname already taken for this event")

// Guest represents a participant who joined an event. Guests are anonymous:
// they have no account, only a nickname unique within their event.
// swagger:model Guest
type Guest struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	Nickname   string    `json:"nickname"`
	Gender     string    `json:"gender,omitempty"`
	LookingFor string    `json:"looking_for,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewGuest returns a new Guest with the given fields. ID is assigned by the
// service on create.
func NewGuest(eventID, nickname, gender, lookingFor string, createdAt time.Time) *Guest {
	return &Guest{
		EventID:    eventID,
		Nickname:   nickname,
		Gender:     gender,
		LookingFor: lookingFor,
		CreatedAt:  createdAt,
	}
}

// ValidGender reports whether g is empty or a recognized gender value.
func ValidGender(g string) bool {
	return g == "" || g == GenderMale || g == GenderFemale || g == GenderOther
}

// ValidLookingFor reports whether lf is empty or a recognized looking_for value.
func ValidLookingFor(lf string) bool {
	return lf == "" || lf == LookingForMale || lf == LookingForFemale || lf == LookingForAny
}

// GuestRepository defines the interface for guest storage
type GuestRepository interface {
	Create(ctx context.Context, guest *Guest) error
	GetByID(ctx context.Context, id string) (*Guest, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Guest, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
}

// GuestService defines guest-facing operations such as joining an event.
type GuestService interface {
	// JoinEvent adds a guest to the event identified by eventCode. Returns
	// ErrNicknameTaken if the nickname is already used in that event.
	JoinEvent(ctx context.Context, eventCode, nickname, gender, lookingFor string) (*Guest, *Event, error)
	GetGuest(ctx context.Context, guestID string) (*Guest, error)
	// ListGuests returns all guests of the event if ownerID owns it.
	ListGuests(ctx context.Context, eventID, ownerID string) ([]*Guest, error)
}
