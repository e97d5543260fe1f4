package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"partymatch/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestMatchRepository_ReplaceForEvent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	matches := []*domain.Match{
		{ID: "m-1", EventID: "ev-1", GuestAID: "g-1", GuestBID: "g-2", Score: 1.0, CreatedAt: now},
		{ID: "m-2", EventID: "ev-1", GuestAID: "g-3", GuestBID: "g-4", Score: 0.5, CreatedAt: now},
	}

	t.Run("replaces matches and completes event", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM matches WHERE event_id = \$1`).
			WithArgs("ev-1").
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(`INSERT INTO matches \(id, event_id, guest_a_id, guest_b_id, score, created_at\)`).
			WithArgs("m-1", "ev-1", "g-1", "g-2", 1.0, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO matches \(id, event_id, guest_a_id, guest_b_id, score, created_at\)`).
			WithArgs("m-2", "ev-1", "g-3", "g-4", 0.5, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE events SET matching_completed = TRUE, updated_at = NOW\(\) WHERE id = \$1`).
			WithArgs("ev-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewMatchRepository(db)
		require.NoError(t, repo.ReplaceForEvent(ctx, "ev-1", matches, false))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("resets reveal flag when asked", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM matches WHERE event_id = \$1`).
			WithArgs("ev-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE events SET matching_completed = TRUE, matches_revealed = FALSE, updated_at = NOW\(\) WHERE id = \$1`).
			WithArgs("ev-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewMatchRepository(db)
		require.NoError(t, repo.ReplaceForEvent(ctx, "ev-1", nil, true))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing event rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM matches WHERE event_id = \$1`).
			WithArgs("ev-missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE events SET matching_completed = TRUE`).
			WithArgs("ev-missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		repo := NewMatchRepository(db)
		require.ErrorIs(t, repo.ReplaceForEvent(ctx, "ev-missing", nil, false), domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert error rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM matches WHERE event_id = \$1`).
			WithArgs("ev-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO matches`).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		repo := NewMatchRepository(db)
		require.Error(t, repo.ReplaceForEvent(ctx, "ev-1", matches[:1], false))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMatchRepository_ListByEventID(t *testing.T) {
	ctx := context.Background()
	columns := []string{"id", "guest_a_id", "nickname", "guest_b_id", "nickname", "score"}

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT m.id, m.guest_a_id, ga.nickname, m.guest_b_id, gb.nickname, m.score`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("m-1", "g-1", "Alice", "g-3", "Carol", 1.0).
			AddRow("m-2", "g-2", "Bob", "g-4", "Dave", 0.5))

	repo := NewMatchRepository(db)
	got, err := repo.ListByEventID(ctx, "ev-1")
	require.NoError(t, err)
	require.Equal(t, []*domain.EventMatch{
		{ID: "m-1", GuestAID: "g-1", GuestANickname: "Alice", GuestBID: "g-3", GuestBNickname: "Carol", Score: 1.0},
		{ID: "m-2", GuestAID: "g-2", GuestANickname: "Bob", GuestBID: "g-4", GuestBNickname: "Dave", Score: 0.5},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_ListByGuestID(t *testing.T) {
	ctx := context.Background()
	columns := []string{"id", "partner_id", "nickname", "score"}

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// g-3 appears on either side of the pair; the query resolves the
	// counterpart in both cases.
	mock.ExpectQuery(`SELECT m.id,`).
		WithArgs("ev-1", "g-3").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("m-1", "g-1", "Alice", 1.0).
			AddRow("m-3", "g-5", "Eve", 0.25))

	repo := NewMatchRepository(db)
	got, err := repo.ListByGuestID(ctx, "ev-1", "g-3")
	require.NoError(t, err)
	require.Equal(t, []*domain.GuestMatch{
		{MatchID: "m-1", PartnerID: "g-1", PartnerNickname: "Alice", Score: 1.0},
		{MatchID: "m-3", PartnerID: "g-5", PartnerNickname: "Eve", Score: 0.25},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	match := &domain.Match{ID: "m-1", EventID: "ev-1", GuestAID: "g-1", GuestBID: "g-2", Score: 1.0, CreatedAt: now}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO matches \(id, event_id, guest_a_id, guest_b_id, score, created_at\)`).
			WithArgs("m-1", "ev-1", "g-1", "g-2", 1.0, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewMatchRepository(db)
		require.NoError(t, repo.Create(ctx, match))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate pair", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO matches`).
			WillReturnError(&pq.Error{Code: "23505"})

		repo := NewMatchRepository(db)
		require.ErrorIs(t, repo.Create(ctx, match), domain.ErrDuplicateMatch)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMatchRepository_Exists(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ev-1", "g-1", "g-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewMatchRepository(db)
	got, err := repo.Exists(ctx, "ev-1", "g-1", "g-2")
	require.NoError(t, err)
	require.True(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM matches WHERE id = \$1`).
			WithArgs("m-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewMatchRepository(db)
		require.NoError(t, repo.Delete(ctx, "m-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM matches WHERE id = \$1`).
			WithArgs("m-missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewMatchRepository(db)
		require.ErrorIs(t, repo.Delete(ctx, "m-missing"), domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
