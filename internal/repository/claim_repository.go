package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/claim-service/internal/domain"
)

// ClaimFilter captures claim query predicates. Equality and date-range
// predicates map onto the indexed columns.
type ClaimFilter struct {
	OwnerID       *string
	AssigneeID    *string
	Statuses      []domain.ClaimStatus
	Type          *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// ClaimRepository encapsulates claim persistence.
type ClaimRepository interface {
	Create(ctx context.Context, claim *domain.Claim) error
	Update(ctx context.Context, claim *domain.Claim) error
	GetByID(ctx context.Context, id string) (*domain.Claim, error)
	ListWithFilter(ctx context.Context, filter ClaimFilter) ([]domain.Claim, error)
	CountWithFilter(ctx context.Context, filter ClaimFilter) (int, error)
	// AssignWithinCap sets assignee and assigned_at in a single conditional
	// write: the update only lands when the assignee's count of claims with
	// assigned_at inside [dayStart, dayEnd) stays below maxPerDay. Returns false
	// when the capacity condition rejected the write.
	AssignWithinCap(ctx context.Context, claimID, assigneeID string, dayStart, dayEnd time.Time, maxPerDay int) (bool, error)
	CountAssignedBetween(ctx context.Context, assigneeID string, from, to time.Time) (int, error)
	Delete(ctx context.Context, id string) error
}

type claimRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRepository instantiates repository.
func NewClaimRepository(pool *pgxpool.Pool) ClaimRepository {
	return &claimRepository{pool: pool}
}

func (r *claimRepository) Create(ctx context.Context, claim *domain.Claim) error {
	const query = `
        INSERT INTO claims (owner_user_id, title, description, type, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		claim.OwnerID,
		claim.Title,
		claim.Description,
		claim.Type,
		claim.Status,
	).Scan(&claim.ID, &claim.CreatedAt, &claim.UpdatedAt)
}

// Update writes the mutable claim fields. Assignment is excluded on purpose;
// it only moves through AssignWithinCap.
func (r *claimRepository) Update(ctx context.Context, claim *domain.Claim) error {
	const query = `
        UPDATE claims SET title=$1, description=$2, type=$3, status=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, query,
		claim.Title,
		claim.Description,
		claim.Type,
		claim.Status,
		claim.ID,
	).Scan(&claim.UpdatedAt); err != nil {
		return err
	}
	return nil
}

const claimColumns = `
        c.id, c.owner_user_id, c.assignee_user_id, c.assigned_at,
        c.title, c.description, c.type, c.status, c.created_at, c.updated_at,
        o.name, a.name`

const claimJoins = `
        FROM claims c
        JOIN users o ON o.id = c.owner_user_id
        LEFT JOIN users a ON a.id = c.assignee_user_id`

func (r *claimRepository) GetByID(ctx context.Context, id string) (*domain.Claim, error) {
	query := `SELECT` + claimColumns + claimJoins + ` WHERE c.id=$1`
	var claim domain.Claim
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&claim.ID,
		&claim.OwnerID,
		&claim.AssigneeID,
		&claim.AssignedAt,
		&claim.Title,
		&claim.Description,
		&claim.Type,
		&claim.Status,
		&claim.CreatedAt,
		&claim.UpdatedAt,
		&claim.OwnerName,
		&claim.AssigneeName,
	); err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *claimRepository) ListWithFilter(ctx context.Context, filter ClaimFilter) ([]domain.Claim, error) {
	clauses, args := buildClaimClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT%s%s WHERE %s ORDER BY c.created_at DESC LIMIT %d OFFSET %d`,
		claimColumns, claimJoins, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanClaims(rows)
}

func (r *claimRepository) CountWithFilter(ctx context.Context, filter ClaimFilter) (int, error) {
	clauses, args := buildClaimClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM claims c WHERE %s`, strings.Join(clauses, " AND "))

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *claimRepository) AssignWithinCap(ctx context.Context, claimID, assigneeID string, dayStart, dayEnd time.Time, maxPerDay int) (bool, error) {
	const query = `
        UPDATE claims SET assignee_user_id=$1, assigned_at=NOW(), updated_at=NOW()
        WHERE id=$2
          AND (SELECT COUNT(*) FROM claims c2
               WHERE c2.assignee_user_id=$1
                 AND c2.assigned_at >= $3 AND c2.assigned_at < $4
                 AND c2.id <> $2) < $5`
	cmd, err := r.pool.Exec(ctx, query, assigneeID, claimID, dayStart, dayEnd, maxPerDay)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *claimRepository) CountAssignedBetween(ctx context.Context, assigneeID string, from, to time.Time) (int, error) {
	const query = `
        SELECT COUNT(*) FROM claims
        WHERE assignee_user_id=$1 AND assigned_at >= $2 AND assigned_at < $3`
	var count int
	if err := r.pool.QueryRow(ctx, query, assigneeID, from, to).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *claimRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM claims WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func buildClaimClauses(filter ClaimFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("c.owner_user_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("c.assignee_user_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("c.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("c.type=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("c.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("c.created_at <= $%d", len(args)))
	}
	if filter.CreatedBefore != nil {
		args = append(args, *filter.CreatedBefore)
		clauses = append(clauses, fmt.Sprintf("c.created_at < $%d", len(args)))
	}
	return clauses, args
}

func scanClaims(rows pgx.Rows) ([]domain.Claim, error) {
	var result []domain.Claim
	for rows.Next() {
		var claim domain.Claim
		if err := rows.Scan(
			&claim.ID,
			&claim.OwnerID,
			&claim.AssigneeID,
			&claim.AssignedAt,
			&claim.Title,
			&claim.Description,
			&claim.Type,
			&claim.Status,
			&claim.CreatedAt,
			&claim.UpdatedAt,
			&claim.OwnerName,
			&claim.AssigneeName,
		); err != nil {
			return nil, err
		}
		result = append(result, claim)
	}
	return result, rows.Err()
}
