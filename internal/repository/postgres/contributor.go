package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
)

// PostgresContributorRepository implements the ContributorRepository interface
type PostgresContributorRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewContributorRepository creates a new contributor repository
func NewContributorRepository(config *RepositoryConfig) repositories.ContributorRepository {
	return &PostgresContributorRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// ListUsers returns the node's contributors as users, ordered by position
func (r *PostgresContributorRepository) ListUsers(ctx context.Context, nodeID string) ([]models.User, error) {
	query := fmt.Sprintf(`
		SELECT u.id, u.email, u.full_name, u.is_registered, u.is_active, u.created_at
		FROM %s c
		JOIN %s u ON u.id = c.user_id
		WHERE c.node_id = $1
		ORDER BY c.position
	`, r.tables.Contributors, r.tables.Users)

	rows, err := r.pool.Query(ctx, query, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListUsersByIDs returns the subset of contributors whose user IDs appear in
// ids, still ordered by position
func (r *PostgresContributorRepository) ListUsersByIDs(ctx context.Context, nodeID string, ids []string) ([]models.User, error) {
	query := fmt.Sprintf(`
		SELECT u.id, u.email, u.full_name, u.is_registered, u.is_active, u.created_at
		FROM %s c
		JOIN %s u ON u.id = c.user_id
		WHERE c.node_id = $1 AND c.user_id = ANY($2)
		ORDER BY c.position
	`, r.tables.Contributors, r.tables.Users)

	rows, err := r.pool.Query(ctx, query, nodeID, ids)
	if err != nil {
		return nil, fmt.Errorf("list contributors by ids: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.IsRegistered, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
