package repositories

import (
	"context"

	"stratus/internal/domain/models"
)

// ContributorRepository reads the contributor list of a node.
type ContributorRepository interface {
	// ListUsers returns the node's contributors as users, in display order
	ListUsers(ctx context.Context, nodeID string) ([]models.User, error)

	// ListUsersByIDs returns the subset of the node's contributors whose
	// user IDs appear in ids, preserving display order
	ListUsersByIDs(ctx context.Context, nodeID string, ids []string) ([]models.User, error)
}
