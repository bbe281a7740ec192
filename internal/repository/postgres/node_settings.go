package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
)

// PostgresNodeSettingsRepository implements the NodeSettingsRepository interface
type PostgresNodeSettingsRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewNodeSettingsRepository creates a new node settings repository
func NewNodeSettingsRepository(config *RepositoryConfig) repositories.NodeSettingsRepository {
	return &PostgresNodeSettingsRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Get retrieves the settings record for a node
func (r *PostgresNodeSettingsRepository) Get(ctx context.Context, nodeID string) (*models.NodeSettings, error) {
	query := fmt.Sprintf(`
		SELECT node_id, folder_id, folder_name, folder_path,
		       account_id, authorizer_id, created_at, updated_at
		FROM %s
		WHERE node_id = $1
	`, r.tables.NodeSettings)

	var settings models.NodeSettings
	err := r.pool.QueryRow(ctx, query, nodeID).Scan(
		&settings.NodeID,
		&settings.FolderID,
		&settings.FolderName,
		&settings.FolderPath,
		&settings.AccountID,
		&settings.AuthorizerID,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", nodeID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node settings: %w", err)
	}

	return &settings, nil
}

// Save upserts the settings record. Last write wins; there is no optimistic
// concurrency control on addon records.
func (r *PostgresNodeSettingsRepository) Save(ctx context.Context, settings *models.NodeSettings) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (node_id, folder_id, folder_name, folder_path,
		                account_id, authorizer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), $7)
		ON CONFLICT (node_id) DO UPDATE SET
			folder_id = EXCLUDED.folder_id,
			folder_name = EXCLUDED.folder_name,
			folder_path = EXCLUDED.folder_path,
			account_id = EXCLUDED.account_id,
			authorizer_id = EXCLUDED.authorizer_id,
			updated_at = EXCLUDED.updated_at
	`, r.tables.NodeSettings)

	_, err := r.pool.Exec(ctx, query,
		settings.NodeID,
		settings.FolderID,
		settings.FolderName,
		settings.FolderPath,
		settings.AccountID,
		settings.AuthorizerID,
		settings.UpdatedAt,
	)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("node settings for %s: %w", settings.NodeID, domain.ErrNotFound)
		}
		return fmt.Errorf("save node settings: %w", err)
	}

	return nil
}
