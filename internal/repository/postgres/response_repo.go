package postgres

import (
	"context"
	"database/sql"

	"partymatch/internal/domain"
)

type responseRepository struct {
	DB *sql.DB
}

func NewResponseRepository(db *sql.DB) domain.ResponseRepository {
	return &responseRepository{DB: db}
}

// Upsert keeps the original row's id and created_at when the answer is
// replaced, so a resubmission never changes the response's identity.
func (r *responseRepository) Upsert(ctx context.Context, resp *domain.Response) error {
	query := `
		INSERT INTO responses (id, guest_id, question_id, answer, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (guest_id, question_id)
		DO UPDATE SET answer = EXCLUDED.answer, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query, resp.ID, resp.GuestID, resp.QuestionID, resp.Answer, resp.CreatedAt, resp.UpdatedAt).
		Scan(&resp.ID, &resp.CreatedAt)
}

func (r *responseRepository) ListByGuestID(ctx context.Context, guestID string) ([]*domain.Response, error) {
	query := `
		SELECT r.id, r.guest_id, r.question_id, r.answer, r.created_at, r.updated_at
		FROM responses r
		JOIN questions q ON q.id = r.question_id
		WHERE r.guest_id = $1
		ORDER BY q.order_index, q.created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, guestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResponses(rows)
}

func (r *responseRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Response, error) {
	query := `
		SELECT r.id, r.guest_id, r.question_id, r.answer, r.created_at, r.updated_at
		FROM responses r
		JOIN guests g ON g.id = r.guest_id
		WHERE g.event_id = $1
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResponses(rows)
}

func (r *responseRepository) CountRespondentsByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	query := `
		SELECT COUNT(DISTINCT r.guest_id)
		FROM responses r
		JOIN guests g ON g.id = r.guest_id
		WHERE g.event_id = $1
	`
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanResponses(rows *sql.Rows) ([]*domain.Response, error) {
	responses := make([]*domain.Response, 0)
	for rows.Next() {
		resp := &domain.Response{}
		if err := rows.Scan(&resp.ID, &resp.GuestID, &resp.QuestionID, &resp.Answer, &resp.CreatedAt, &resp.UpdatedAt); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}
