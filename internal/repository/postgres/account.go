package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
)

// PostgresAccountRepository implements the AccountRepository interface
type PostgresAccountRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(config *RepositoryConfig) repositories.AccountRepository {
	return &PostgresAccountRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetByID retrieves an account by ID
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id string) (*models.ExternalAccount, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, provider, provider_user_id, display_name,
		       access_token, refresh_token, expiry, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Accounts)

	var account models.ExternalAccount
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.OwnerID,
		&account.Provider,
		&account.ProviderUserID,
		&account.DisplayName,
		&account.AccessToken,
		&account.RefreshToken,
		&account.Expiry,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	return &account, nil
}

// ListByOwner lists the accounts a user has linked
func (r *PostgresAccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.ExternalAccount, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, provider, provider_user_id, display_name,
		       access_token, refresh_token, expiry, created_at, updated_at
		FROM %s
		WHERE owner_id = $1
		ORDER BY created_at ASC
	`, r.tables.Accounts)

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.ExternalAccount
	for rows.Next() {
		var account models.ExternalAccount
		err := rows.Scan(
			&account.ID,
			&account.OwnerID,
			&account.Provider,
			&account.ProviderUserID,
			&account.DisplayName,
			&account.AccessToken,
			&account.RefreshToken,
			&account.Expiry,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// UpdateTokens persists a refreshed access/refresh token pair
func (r *PostgresAccountRepository) UpdateTokens(ctx context.Context, account *models.ExternalAccount) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET access_token = $1, refresh_token = $2, expiry = $3, updated_at = $4
		WHERE id = $5
	`, r.tables.Accounts)

	result, err := r.pool.Exec(ctx, query,
		account.AccessToken,
		account.RefreshToken,
		account.Expiry,
		account.UpdatedAt,
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("update tokens: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", account.ID, domain.ErrNotFound)
	}

	return nil
}

// RecordGrant records that a node may use an account's credential
func (r *PostgresAccountRepository) RecordGrant(ctx context.Context, grant *models.Grant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (account_id, node_id, metadata, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, node_id) DO UPDATE SET metadata = EXCLUDED.metadata
	`, r.tables.Grants)

	_, err := r.pool.Exec(ctx, query,
		grant.AccountID,
		grant.NodeID,
		grant.Metadata,
		grant.CreatedAt,
	)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("grant for account %s: %w", grant.AccountID, domain.ErrNotFound)
		}
		return fmt.Errorf("record grant: %w", err)
	}

	return nil
}

// HasGrant reports whether a grant exists for the account/node pair
func (r *PostgresAccountRepository) HasGrant(ctx context.Context, accountID, nodeID string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE account_id = $1 AND node_id = $2)
	`, r.tables.Grants)

	var exists bool
	if err := r.pool.QueryRow(ctx, query, accountID, nodeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check grant: %w", err)
	}

	return exists, nil
}

// DeleteGrant removes the grant for the account/node pair
func (r *PostgresAccountRepository) DeleteGrant(ctx context.Context, accountID, nodeID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE account_id = $1 AND node_id = $2
	`, r.tables.Grants)

	if _, err := r.pool.Exec(ctx, query, accountID, nodeID); err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}

	return nil
}
