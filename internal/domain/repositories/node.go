package repositories

import (
	"context"

	"stratus/internal/domain/models"
)

// NodeSettingsRepository persists the per-node addon record. Updates are
// simple read-modify-write, last write wins.
type NodeSettingsRepository interface {
	// Get retrieves the settings record for a node
	Get(ctx context.Context, nodeID string) (*models.NodeSettings, error)

	// Save upserts the settings record
	Save(ctx context.Context, settings *models.NodeSettings) error
}

// NodeLogRepository appends audit-log entries to a node.
type NodeLogRepository interface {
	Append(ctx context.Context, entry *models.NodeLog) error
}
