package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"partymatch/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (id, owner_id, name, event_code, event_type, matching_mode, matches_per_guest, matching_completed, matches_revealed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.OwnerID, e.Name, e.EventCode, e.EventType, e.MatchingMode,
		e.MatchesPerGuest, e.MatchingCompleted, e.MatchesRevealed, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return fmt.Errorf("event code already in use: %s", e.EventCode)
		}
		return err
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, owner_id, name, event_code, event_type, matching_mode, matches_per_guest, matching_completed, matches_revealed, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	e := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.OwnerID, &e.Name, &e.EventCode, &e.EventType, &e.MatchingMode,
		&e.MatchesPerGuest, &e.MatchingCompleted, &e.MatchesRevealed, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) GetByCode(ctx context.Context, code string) (*domain.Event, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	query := `
		SELECT id, owner_id, name, event_code, event_type, matching_mode, matches_per_guest, matching_completed, matches_revealed, created_at, updated_at
		FROM events
		WHERE event_code = $1
	`
	e := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, code).Scan(
		&e.ID, &e.OwnerID, &e.Name, &e.EventCode, &e.EventType, &e.MatchingMode,
		&e.MatchesPerGuest, &e.MatchingCompleted, &e.MatchesRevealed, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM events WHERE owner_id = $1`
	if err := r.DB.QueryRowContext(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, owner_id, name, event_code, event_type, matching_mode, matches_per_guest, matching_completed, matches_revealed, created_at, updated_at
		FROM events
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e := &domain.Event{}
		if err := rows.Scan(
			&e.ID, &e.OwnerID, &e.Name, &e.EventCode, &e.EventType, &e.MatchingMode,
			&e.MatchesPerGuest, &e.MatchingCompleted, &e.MatchesRevealed, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, eventID string, name, eventType, matchingMode *string, matchesPerGuest *int) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	if name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", n))
		args = append(args, *name)
		n++
	}
	if eventType != nil {
		setClauses = append(setClauses, fmt.Sprintf("event_type = $%d", n))
		args = append(args, *eventType)
		n++
	}
	if matchingMode != nil {
		setClauses = append(setClauses, fmt.Sprintf("matching_mode = $%d", n))
		args = append(args, *matchingMode)
		n++
	}
	if matchesPerGuest != nil {
		setClauses = append(setClauses, fmt.Sprintf("matches_per_guest = $%d", n))
		args = append(args, *matchesPerGuest)
		n++
	}
	if n == 1 {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, eventID)
	}
	args = append(args, eventID)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d
		RETURNING id, owner_id, name, event_code, event_type, matching_mode, matches_per_guest, matching_completed, matches_revealed, created_at, updated_at
	`, strings.Join(setClauses, ", "), n)
	e := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&e.ID, &e.OwnerID, &e.Name, &e.EventCode, &e.EventType, &e.MatchingMode,
		&e.MatchesPerGuest, &e.MatchingCompleted, &e.MatchesRevealed, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
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

func (r *eventRepository) SetMatchesRevealed(ctx context.Context, id string, revealed bool) error {
	query := `UPDATE events SET matches_revealed = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id, revealed)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
