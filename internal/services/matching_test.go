package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partymatch/internal/domain"
)

// stubScorer scores every pair the same, regardless of answers.
type stubScorer struct {
	score float64
}

func (s stubScorer) Score(a, b map[string]string) (float64, bool) {
	return s.score, true
}

// slowScorer stretches the scoring phase and records whether two runs ever
// scored at the same time.
type slowScorer struct {
	active  atomic.Int32
	overlap atomic.Bool
}

func (s *slowScorer) Score(a, b map[string]string) (float64, bool) {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	s.active.Add(-1)
	return 1, true
}

func TestMatchingService_ComputeMatches_BasicPairing(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
	f.addGuest("guest-a", "ev1", "Alice", "", "")
	f.addGuest("guest-b", "ev1", "Bob", "", "")
	f.addGuest("guest-c", "ev1", "Carol", "", "")
	f.addGuest("guest-d", "ev1", "Dave", "", "")
	f.addResponse("guest-a", "q-food", "pizza")
	f.addResponse("guest-b", "q-food", "sushi")
	f.addResponse("guest-c", "q-food", "pizza")
	f.addResponse("guest-d", "q-food", "tacos")

	matches, err := f.matchingService(false).ComputeMatches(context.Background(), "ev1", "owner-1")
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "guest-a", matches[0].GuestAID)
	assert.Equal(t, "Alice", matches[0].GuestANickname)
	assert.Equal(t, "guest-c", matches[0].GuestBID)
	assert.Equal(t, "Carol", matches[0].GuestBNickname)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)

	// Bob and Dave disagree on the only question but are still comparable,
	// so they pair up with score 0.
	assert.Equal(t, "guest-b", matches[1].GuestAID)
	assert.Equal(t, "guest-d", matches[1].GuestBID)
	assert.InDelta(t, 0.0, matches[1].Score, 1e-9)

	assert.True(t, f.events.byID["ev1"].MatchingCompleted)
}

func TestMatchingService_ComputeMatches_DisjointQuestions(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
	f.addGuest("guest-a", "ev1", "Alice", "", "")
	f.addGuest("guest-b", "ev1", "Bob", "", "")
	f.addResponse("guest-a", "q1", "pizza")
	f.addResponse("guest-b", "q2", "beach")

	matches, err := f.matchingService(false).ComputeMatches(context.Background(), "ev1", "owner-1")
	require.NoError(t, err)

	// Both guests responded, but with no common question they are not
	// comparable: the run succeeds with an empty match set.
	assert.Empty(t, matches)
	assert.True(t, f.events.byID["ev1"].MatchingCompleted)
	assert.Equal(t, 1, f.matches.replaceCalls)
}

func TestMatchingService_ComputeMatches_PreferenceExclusion(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModePreferenceBased, 1)
	f.addGuest("guest-a", "ev1", "Ana", domain.GenderFemale, domain.LookingForMale)
	f.addGuest("guest-b", "ev1", "Ben", domain.GenderMale, domain.LookingForMale)
	f.addResponse("guest-a", "q1", "pizza")
	f.addResponse("guest-b", "q1", "pizza")

	svc := f.matchingService(false)

	// Perfect agreement, but Ben's preference is not satisfied by Ana.
	matches, err := svc.ComputeMatches(context.Background(), "ev1", "owner-1")
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Once the preference is mutual the same pair matches.
	f.guests.byID["guest-b"].LookingFor = domain.LookingForFemale
	matches, err = svc.ComputeMatches(context.Background(), "ev1", "owner-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "guest-a", matches[0].GuestAID)
	assert.Equal(t, "guest-b", matches[0].GuestBID)
}

func TestMatchingService_ComputeMatches_QuotaAndIdempotence(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 2)
	colors := []string{"red", "red", "blue", "blue", "green", "red"}
	foods := []string{"pizza", "pizza", "pizza", "sushi", "sushi", "tacos"}
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("guest-%d", i+1)
		f.addGuest(id, "ev1", fmt.Sprintf("Guest %d", i+1), "", "")
		f.addResponse(id, "q-color", colors[i])
		f.addResponse(id, "q-food", foods[i])
	}

	svc := f.matchingService(false)
	first, err := svc.ComputeMatches(context.Background(), "ev1", "owner-1")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	counts := make(map[string]int)
	seen := make(map[string]bool)
	for _, m := range first {
		require.NotEqual(t, m.GuestAID, m.GuestBID, "self pair")
		require.Less(t, m.GuestAID, m.GuestBID, "pair not in canonical order")
		key := m.GuestAID + "/" + m.GuestBID
		require.False(t, seen[key], "duplicate pair %s", key)
		seen[key] = true
		counts[m.GuestAID]++
		counts[m.GuestBID]++
	}
	for id, n := range counts {
		assert.LessOrEqual(t, n, 2, "guest %s exceeds quota", id)
	}

	// Recomputing over unchanged data replaces the set with an identical one.
	second, err := svc.ComputeMatches(context.Background(), "ev1", "owner-1")
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].GuestAID, second[i].GuestAID)
		assert.Equal(t, first[i].GuestBID, second[i].GuestBID)
		assert.InDelta(t, first[i].Score, second[i].Score, 1e-9)
	}
	assert.Equal(t, 2, f.matches.replaceCalls)

	stored, err := f.matches.CountByEventID(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, len(first), stored)
}

func TestMatchingService_ComputeMatches_ReplacesStaleMatches(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
	f.addGuest("guest-a", "ev1", "Alice", "", "")
	f.addGuest("guest-b", "ev1", "Bob", "", "")
	f.addGuest("guest-c", "ev1", "Carol", "", "")
	f.addResponse("guest-a", "q1", "pizza")
	f.addResponse("guest-b", "q1", "pizza")

	svc := f.matchingService(false)
	first, err := svc.ComputeMatches(context.Background(), "ev1", "owner-1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Carol answers; the rerun must fully replace the previous set, not
	// append to it.
	f.addResponse("guest-c", "q1", "pizza")
	second, err := svc.ComputeMatches(context.Background(), "ev1", "owner-1")
	require.NoError(t, err)

	stored, err := f.matches.CountByEventID(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, len(second), stored)
}

func TestMatchingService_ComputeMatches_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *serviceFixture)
		eventID string
		ownerID string
		wantErr error
	}{
		{
			name:    "event not found",
			setup:   func(f *serviceFixture) {},
			eventID: "missing",
			ownerID: "owner-1",
			wantErr: domain.ErrNotFound,
		},
		{
			name: "not the owner",
			setup: func(f *serviceFixture) {
				f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
			},
			eventID: "ev1",
			ownerID: "owner-2",
			wantErr: domain.ErrForbidden,
		},
		{
			name: "zero matches per guest",
			setup: func(f *serviceFixture) {
				f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 0)
			},
			eventID: "ev1",
			ownerID: "owner-1",
			wantErr: domain.ErrInvalidConfig,
		},
		{
			name: "unknown matching mode",
			setup: func(f *serviceFixture) {
				f.addEvent("ev1", "owner-1", "soulmates", 1)
			},
			eventID: "ev1",
			ownerID: "owner-1",
			wantErr: domain.ErrInvalidConfig,
		},
		{
			name: "no guests",
			setup: func(f *serviceFixture) {
				f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
			},
			eventID: "ev1",
			ownerID: "owner-1",
			wantErr: domain.ErrNothingToMatch,
		},
		{
			name: "single respondent",
			setup: func(f *serviceFixture) {
				f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
				f.addGuest("guest-a", "ev1", "Alice", "", "")
				f.addGuest("guest-b", "ev1", "Bob", "", "")
				f.addResponse("guest-a", "q1", "pizza")
			},
			eventID: "ev1",
			ownerID: "owner-1",
			wantErr: domain.ErrNothingToMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			tt.setup(f)

			_, err := f.matchingService(false).ComputeMatches(context.Background(), tt.eventID, tt.ownerID)
			require.ErrorIs(t, err, tt.wantErr)

			// A failed run must leave no trace.
			assert.Zero(t, f.matches.replaceCalls)
			if e, ok := f.events.byID[tt.eventID]; ok {
				assert.False(t, e.MatchingCompleted)
			}
		})
	}
}

func TestMatchingService_ComputeMatches_PersistError(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
	f.addGuest("guest-a", "ev1", "Alice", "", "")
	f.addGuest("guest-b", "ev1", "Bob", "", "")
	f.addResponse("guest-a", "q1", "pizza")
	f.addResponse("guest-b", "q1", "pizza")
	f.matches.replaceErr = errors.New("connection reset")

	_, err := f.matchingService(false).ComputeMatches(context.Background(), "ev1", "owner-1")
	require.Error(t, err)
	assert.False(t, f.events.byID["ev1"].MatchingCompleted)
}

func TestMatchingService_ComputeMatches_RevealReset(t *testing.T) {
	setup := func() *serviceFixture {
		f := newServiceFixture()
		e := f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
		e.MatchingCompleted = true
		e.MatchesRevealed = true
		f.addGuest("guest-a", "ev1", "Alice", "", "")
		f.addGuest("guest-b", "ev1", "Bob", "", "")
		f.addResponse("guest-a", "q1", "pizza")
		f.addResponse("guest-b", "q1", "pizza")
		return f
	}

	t.Run("keeps reveal by default", func(t *testing.T) {
		f := setup()
		_, err := f.matchingService(false).ComputeMatches(context.Background(), "ev1", "owner-1")
		require.NoError(t, err)
		assert.True(t, f.events.byID["ev1"].MatchesRevealed)
	})

	t.Run("resets reveal when configured", func(t *testing.T) {
		f := setup()
		_, err := f.matchingService(true).ComputeMatches(context.Background(), "ev1", "owner-1")
		require.NoError(t, err)
		assert.False(t, f.events.byID["ev1"].MatchesRevealed)
	})
}

func TestMatchingService_ComputeMatches_CustomScorer(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
	f.addGuest("guest-a", "ev1", "Alice", "", "")
	f.addGuest("guest-b", "ev1", "Bob", "", "")
	f.addResponse("guest-a", "q1", "pizza")
	f.addResponse("guest-b", "q2", "beach")

	// A custom strategy can pair guests the default scorer would consider
	// not comparable.
	svc := NewMatchingService(f.events, f.guests, f.responses, f.matches, stubScorer{score: 0.42}, false, 2*time.Second)
	matches, err := svc.ComputeMatches(context.Background(), "ev1", "owner-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0.42, matches[0].Score, 1e-9)
}

func TestMatchingService_ComputeMatches_SerializesRunsPerEvent(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
	for _, g := range []struct{ id, nickname string }{
		{"guest-a", "Alice"}, {"guest-b", "Bob"}, {"guest-c", "Carol"}, {"guest-d", "Dave"},
	} {
		f.addGuest(g.id, "ev1", g.nickname, "", "")
		f.addResponse(g.id, "q-food", "pizza")
	}

	scorer := &slowScorer{}
	svc := NewMatchingService(f.events, f.guests, f.responses, f.matches, scorer, false, 5*time.Second)

	const runs = 8
	var wg sync.WaitGroup
	errs := make([]error, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ComputeMatches(context.Background(), "ev1", "owner-1")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "run %d", i)
	}

	// Competing runs each execute in turn; none is skipped, none overlaps.
	assert.False(t, scorer.overlap.Load(), "runs for the same event interleaved")
	assert.Equal(t, runs, f.matches.replaceCalls)

	stored, err := f.matches.CountByEventID(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
}

func TestMatchingService_ListMatches(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
	f.addGuest("guest-a", "ev1", "Alice", "", "")
	f.addGuest("guest-b", "ev1", "Bob", "", "")
	f.matches.byID["m1"] = &domain.Match{ID: "m1", EventID: "ev1", GuestAID: "guest-a", GuestBID: "guest-b", Score: 0.8}

	svc := f.matchingService(false)

	matches, err := svc.ListMatches(context.Background(), "ev1", "owner-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Alice", matches[0].GuestANickname)
	assert.Equal(t, "Bob", matches[0].GuestBNickname)
	assert.InDelta(t, 0.8, matches[0].Score, 1e-9)

	_, err = svc.ListMatches(context.Background(), "ev1", "owner-2")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ListMatches(context.Background(), "missing", "owner-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMatchingService_ListMatches_Empty(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)

	matches, err := f.matchingService(false).ListMatches(context.Background(), "ev1", "owner-1")
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestMatchingService_GuestMatches(t *testing.T) {
	f := newServiceFixture()
	e := f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
	e.MatchingCompleted = true
	f.addEvent("ev2", "owner-1", domain.MatchingModeAny, 1)
	f.addGuest("guest-a", "ev1", "Alice", "", "")
	f.addGuest("guest-b", "ev1", "Bob", "", "")
	f.addGuest("guest-x", "ev2", "Xavier", "", "")
	f.matches.byID["m1"] = &domain.Match{ID: "m1", EventID: "ev1", GuestAID: "guest-a", GuestBID: "guest-b", Score: 0.8}

	svc := f.matchingService(false)

	// Reveal gating lives in the HTTP layer: the service returns matches
	// even while the event still has them hidden.
	require.False(t, e.MatchesRevealed)
	matches, err := svc.GuestMatches(context.Background(), "ev1", "guest-b")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "m1", matches[0].MatchID)
	assert.Equal(t, "guest-a", matches[0].PartnerID)
	assert.Equal(t, "Alice", matches[0].PartnerNickname)
	assert.InDelta(t, 0.8, matches[0].Score, 1e-9)

	// A guest from another event cannot read this event's matches.
	_, err = svc.GuestMatches(context.Background(), "ev1", "guest-x")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GuestMatches(context.Background(), "ev1", "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMatchingService_GuestMatches_Empty(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
	f.addGuest("guest-a", "ev1", "Alice", "", "")

	matches, err := f.matchingService(false).GuestMatches(context.Background(), "ev1", "guest-a")
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestMatchingService_RevealMatches(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(e *domain.Event)
		ownerID string
		wantErr error
	}{
		{
			name:    "reveals after matching completed",
			setup:   func(e *domain.Event) { e.MatchingCompleted = true },
			ownerID: "owner-1",
		},
		{
			name: "idempotent when already revealed",
			setup: func(e *domain.Event) {
				e.MatchingCompleted = true
				e.MatchesRevealed = true
			},
			ownerID: "owner-1",
		},
		{
			name:    "rejected before matching is run",
			setup:   func(e *domain.Event) {},
			ownerID: "owner-1",
			wantErr: domain.ErrMatchingNotDone,
		},
		{
			name:    "rejected for non-owner",
			setup:   func(e *domain.Event) { e.MatchingCompleted = true },
			ownerID: "owner-2",
			wantErr: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			e := f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
			tt.setup(e)

			event, err := f.matchingService(false).RevealMatches(context.Background(), "ev1", tt.ownerID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, event.MatchesRevealed)
			assert.True(t, f.events.byID["ev1"].MatchesRevealed)
		})
	}
}

func TestMatchingService_CreateManualMatch(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
	f.addEvent("ev2", "owner-1", domain.MatchingModeAny, 1)
	f.addGuest("guest-a", "ev1", "Alice", "", "")
	f.addGuest("guest-b", "ev1", "Bob", "", "")
	f.addGuest("guest-x", "ev2", "Xavier", "", "")

	svc := f.matchingService(false)

	// Pair IDs are stored in canonical order no matter how they are given.
	match, err := svc.CreateManualMatch(context.Background(), "ev1", "owner-1", "guest-b", "guest-a")
	require.NoError(t, err)
	assert.NotEmpty(t, match.ID)
	assert.Equal(t, "guest-a", match.GuestAID)
	assert.Equal(t, "guest-b", match.GuestBID)
	assert.InDelta(t, 1.0, match.Score, 1e-9)

	_, err = svc.CreateManualMatch(context.Background(), "ev1", "owner-1", "guest-a", "guest-b")
	require.ErrorIs(t, err, domain.ErrDuplicateMatch)

	_, err = svc.CreateManualMatch(context.Background(), "ev1", "owner-1", "guest-a", "guest-a")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.CreateManualMatch(context.Background(), "ev1", "owner-1", "guest-a", "guest-x")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.CreateManualMatch(context.Background(), "ev1", "owner-2", "guest-a", "guest-b")
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMatchingService_DeleteMatch(t *testing.T) {
	f := newServiceFixture()
	f.addEvent("ev1", "owner-1", domain.MatchingModeAny, 1)
	f.addEvent("ev2", "owner-1", domain.MatchingModeAny, 1)
	f.matches.byID["m1"] = &domain.Match{ID: "m1", EventID: "ev1", GuestAID: "guest-a", GuestBID: "guest-b", Score: 1.0}
	f.matches.byID["m2"] = &domain.Match{ID: "m2", EventID: "ev2", GuestAID: "guest-x", GuestBID: "guest-y", Score: 1.0}

	svc := f.matchingService(false)

	// A match belonging to a different event is invisible here.
	require.ErrorIs(t, svc.DeleteMatch(context.Background(), "ev1", "m2", "owner-1"), domain.ErrNotFound)
	require.ErrorIs(t, svc.DeleteMatch(context.Background(), "ev1", "m1", "owner-2"), domain.ErrForbidden)

	require.NoError(t, svc.DeleteMatch(context.Background(), "ev1", "m1", "owner-1"))
	require.ErrorIs(t, svc.DeleteMatch(context.Background(), "ev1", "m1", "owner-1"), domain.ErrNotFound)
}
