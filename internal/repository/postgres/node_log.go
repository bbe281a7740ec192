package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
)

// PostgresNodeLogRepository implements the NodeLogRepository interface
type PostgresNodeLogRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewNodeLogRepository creates a new node audit log repository
func NewNodeLogRepository(config *RepositoryConfig) repositories.NodeLogRepository {
	return &PostgresNodeLogRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Append writes a single audit log entry. A missing ID is generated here so
// callers can construct entries without caring about identity.
func (r *PostgresNodeLogRepository) Append(ctx context.Context, entry *models.NodeLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, node_id, action, actor_id, params, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.NodeLogs)

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.NodeID,
		entry.Action,
		entry.ActorID,
		entry.Params,
		entry.CreatedAt,
	)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("node log for %s: %w", entry.NodeID, domain.ErrNotFound)
		}
		return fmt.Errorf("append node log: %w", err)
	}

	return nil
}
