package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"partymatch/internal/domain"
)

type guestRepository struct {
	DB *sql.DB
}

func NewGuestRepository(db *sql.DB) domain.GuestRepository {
	return &guestRepository{DB: db}
}

func (r *guestRepository) Create(ctx context.Context, g *domain.Guest) error {
	query := `
		INSERT INTO guests (id, event_id, nickname, gender, looking_for, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, g.ID, g.EventID, g.Nickname, g.Gender, g.LookingFor, g.CreatedAt)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrNicknameTaken
		}
		return err
	}
	return nil
}

func (r *guestRepository) GetByID(ctx context.Context, id string) (*domain.Guest, error) {
	query := `
		SELECT id, event_id, nickname, gender, looking_for, created_at
		FROM guests
		WHERE id = $1
	`
	g := &domain.Guest{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.EventID, &g.Nickname, &g.Gender, &g.LookingFor, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *guestRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Guest, error) {
	query := `
		SELECT id, event_id, nickname, gender, looking_for, created_at
		FROM guests
		WHERE event_id = $1
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	guests := make([]*domain.Guest, 0)
	for rows.Next() {
		g := &domain.Guest{}
		if err := rows.Scan(&g.ID, &g.EventID, &g.Nickname, &g.Gender, &g.LookingFor, &g.CreatedAt); err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

func (r *guestRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM guests WHERE event_id = $1`
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
