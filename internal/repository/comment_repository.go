package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/claim-service/internal/domain"
)

// CommentRepository manages the append-only claim comment thread.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByClaim(ctx context.Context, claimID string) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO claim_comments (claim_id, text, is_internal, author_user_id, author_name, author_role)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.ClaimID,
		comment.Text,
		comment.IsInternal,
		comment.AuthorID,
		comment.AuthorName,
		comment.AuthorRole,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByClaim(ctx context.Context, claimID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, claim_id, text, is_internal, author_user_id, author_name, author_role, created_at
        FROM claim_comments WHERE claim_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.ClaimID,
			&comment.Text,
			&comment.IsInternal,
			&comment.AuthorID,
			&comment.AuthorName,
			&comment.AuthorRole,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
