package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"partymatch/internal/domain"
)

type matchRepository struct {
	DB *sql.DB
}

func NewMatchRepository(db *sql.DB) domain.MatchRepository {
	return &matchRepository{DB: db}
}

// ReplaceForEvent swaps the event's match set in one transaction: readers
// see either the previous complete set or the new one, never a mix.
func (r *matchRepository) ReplaceForEvent(ctx context.Context, eventID string, matches []*domain.Match, resetReveal bool) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE event_id = $1`, eventID); err != nil {
		return err
	}

	insert := `
		INSERT INTO matches (id, event_id, guest_a_id, guest_b_id, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, m := range matches {
		if _, err := tx.ExecContext(ctx, insert, m.ID, m.EventID, m.GuestAID, m.GuestBID, m.Score, m.CreatedAt); err != nil {
			return err
		}
	}

	update := `UPDATE events SET matching_completed = TRUE, updated_at = NOW() WHERE id = $1`
	if resetReveal {
		update = `UPDATE events SET matching_completed = TRUE, matches_revealed = FALSE, updated_at = NOW() WHERE id = $1`
	}
	result, err := tx.ExecContext(ctx, update, eventID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}

	return tx.Commit()
}

func (r *matchRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventMatch, error) {
	query := `
		SELECT m.id, m.guest_a_id, ga.nickname, m.guest_b_id, gb.nickname, m.score
		FROM matches m
		JOIN guests ga ON ga.id = m.guest_a_id
		JOIN guests gb ON gb.id = m.guest_b_id
		WHERE m.event_id = $1
		ORDER BY m.score DESC, m.guest_a_id, m.guest_b_id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	matches := make([]*domain.EventMatch, 0)
	for rows.Next() {
		m := &domain.EventMatch{}
		if err := rows.Scan(&m.ID, &m.GuestAID, &m.GuestANickname, &m.GuestBID, &m.GuestBNickname, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *matchRepository) ListByGuestID(ctx context.Context, eventID, guestID string) ([]*domain.GuestMatch, error) {
	query := `
		SELECT m.id,
		       CASE WHEN m.guest_a_id = $2 THEN m.guest_b_id ELSE m.guest_a_id END AS partner_id,
		       p.nickname,
		       m.score
		FROM matches m
		JOIN guests p ON p.id = CASE WHEN m.guest_a_id = $2 THEN m.guest_b_id ELSE m.guest_a_id END
		WHERE m.event_id = $1 AND (m.guest_a_id = $2 OR m.guest_b_id = $2)
		ORDER BY m.score DESC, partner_id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, guestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	matches := make([]*domain.GuestMatch, 0)
	for rows.Next() {
		m := &domain.GuestMatch{}
		if err := rows.Scan(&m.MatchID, &m.PartnerID, &m.PartnerNickname, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	query := `
		SELECT id, event_id, guest_a_id, guest_b_id, score, created_at
		FROM matches
		WHERE id = $1
	`
	m := &domain.Match{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.EventID, &m.GuestAID, &m.GuestBID, &m.Score, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *matchRepository) Exists(ctx context.Context, eventID, guestAID, guestBID string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM matches
			WHERE event_id = $1 AND guest_a_id = $2 AND guest_b_id = $3
		)
	`
	if err := r.DB.QueryRowContext(ctx, query, eventID, guestAID, guestBID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *matchRepository) Create(ctx context.Context, m *domain.Match) error {
	query := `
		INSERT INTO matches (id, event_id, guest_a_id, guest_b_id, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, m.ID, m.EventID, m.GuestAID, m.GuestBID, m.Score, m.CreatedAt)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrDuplicateMatch
		}
		return err
	}
	return nil
}

func (r *matchRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM matches WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *matchRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM matches WHERE event_id = $1`
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
