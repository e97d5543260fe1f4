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

type questionRepository struct {
	DB *sql.DB
}

func NewQuestionRepository(db *sql.DB) domain.QuestionRepository {
	return &questionRepository{DB: db}
}

func (r *questionRepository) Create(ctx context.Context, q *domain.Question) error {
	query := `
		INSERT INTO questions (id, event_id, prompt, type, options, order_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query, q.ID, q.EventID, q.Prompt, q.Type, pq.Array(q.Options), q.OrderIndex, q.CreatedAt)
	return err
}

func (r *questionRepository) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	query := `
		SELECT id, event_id, prompt, type, options, order_index, created_at
		FROM questions
		WHERE id = $1
	`
	q := &domain.Question{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&q.ID, &q.EventID, &q.Prompt, &q.Type, pq.Array(&q.Options), &q.OrderIndex, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

func (r *questionRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Question, error) {
	query := `
		SELECT id, event_id, prompt, type, options, order_index, created_at
		FROM questions
		WHERE event_id = $1
		ORDER BY order_index, created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	questions := make([]*domain.Question, 0)
	for rows.Next() {
		q := &domain.Question{}
		if err := rows.Scan(&q.ID, &q.EventID, &q.Prompt, &q.Type, pq.Array(&q.Options), &q.OrderIndex, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *questionRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM questions WHERE event_id = $1`
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *questionRepository) Update(ctx context.Context, questionID string, prompt *string, options *[]string, orderIndex *int) (*domain.Question, error) {
	setClauses := []string{}
	args := []interface{}{}
	n := 1
	if prompt != nil {
		setClauses = append(setClauses, fmt.Sprintf("prompt = $%d", n))
		args = append(args, *prompt)
		n++
	}
	if options != nil {
		setClauses = append(setClauses, fmt.Sprintf("options = $%d", n))
		args = append(args, pq.Array(*options))
		n++
	}
	if orderIndex != nil {
		setClauses = append(setClauses, fmt.Sprintf("order_index = $%d", n))
		args = append(args, *orderIndex)
		n++
	}
	if n == 1 {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, questionID)
	}
	args = append(args, questionID)
	query := fmt.Sprintf(`
		UPDATE questions SET %s
		WHERE id = $%d
		RETURNING id, event_id, prompt, type, options, order_index, created_at
	`, strings.Join(setClauses, ", "), n)
	q := &domain.Question{}
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&q.ID, &q.EventID, &q.Prompt, &q.Type, pq.Array(&q.Options), &q.OrderIndex, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

func (r *questionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM questions WHERE id = $1`
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
