package models

import "time"

// Audit log action tags for node settings mutations.
const (
	LogFolderSelected   = "folder_selected"
	LogNodeAuthorized   = "node_authorized"
	LogNodeDeauthorized = "node_deauthorized"
)

// NodeSettings is the per-node addon record. FolderID nil means the node is
// unconfigured; AccountID nil means no credential is linked.
type NodeSettings struct {
	NodeID       string    `json:"node_id" db:"node_id"`
	FolderID     *string   `json:"folder_id" db:"folder_id"`
	FolderName   string    `json:"folder_name" db:"folder_name"`
	FolderPath   string    `json:"folder_path" db:"folder_path"`
	AccountID    *string   `json:"account_id" db:"account_id"`
	AuthorizerID *string   `json:"authorizer_id" db:"authorizer_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Configured reports whether a folder has been linked.
func (s *NodeSettings) Configured() bool {
	return s.FolderID != nil
}

// HasAuth reports whether a credential is linked to the node.
func (s *NodeSettings) HasAuth() bool {
	return s.AccountID != nil
}

// FolderEntry is one row in a folder listing: either the synthetic root or a
// folder-typed child of the requested folder. Path is a logical,
// slash-joined path, not a filesystem path.
type FolderEntry struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Path  string     `json:"path"`
	Kind  string     `json:"kind"`
	Addon string     `json:"addon"`
	URLs  FolderURLs `json:"urls"`
}

// FolderURLs carries the self-referential listing link for a folder entry.
type FolderURLs struct {
	Folders string `json:"folders"`
}

// NodeLog is an audit-log entry appended to the owning node on every
// state-changing addon operation.
type NodeLog struct {
	ID        string         `json:"id" db:"id"`
	NodeID    string         `json:"node_id" db:"node_id"`
	Action    string         `json:"action" db:"action"`
	ActorID   string         `json:"actor_id" db:"actor_id"`
	Params    map[string]any `json:"params" db:"params"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}
