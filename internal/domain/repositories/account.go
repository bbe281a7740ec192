package repositories

import (
	"context"

	"stratus/internal/domain/models"
)

// AccountRepository persists OAuth credentials and the grants that allow
// nodes to use them.
type AccountRepository interface {
	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id string) (*models.ExternalAccount, error)

	// ListByOwner lists the accounts linked by a user
	ListByOwner(ctx context.Context, ownerID string) ([]models.ExternalAccount, error)

	// UpdateTokens persists a refreshed access/refresh token pair
	UpdateTokens(ctx context.Context, account *models.ExternalAccount) error

	// RecordGrant records that a node may use an account's credential.
	// Re-recording an existing grant updates its metadata.
	RecordGrant(ctx context.Context, grant *models.Grant) error

	// HasGrant reports whether a grant exists for the account/node pair
	HasGrant(ctx context.Context, accountID, nodeID string) (bool, error)

	// DeleteGrant removes the grant for the account/node pair, if any
	DeleteGrant(ctx context.Context, accountID, nodeID string) error
}
