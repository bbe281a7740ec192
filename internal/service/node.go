package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
)

// folderMetadata is the derived name/path of a node's linked folder. Stale
// means the last remote refresh failed and the persisted values were kept.
type folderMetadata struct {
	Name  string
	Path  string
	Stale bool
}

// metadataCache memoizes folder metadata per node. Entries are only added on
// a successful remote fetch and invalidated on SetFolder/Deauthorize, so a
// node's metadata is recomputed at most once between mutations.
type metadataCache struct {
	mu      sync.Mutex
	entries map[string]folderMetadata
}

func newMetadataCache() *metadataCache {
	return &metadataCache{entries: make(map[string]folderMetadata)}
}

func (c *metadataCache) get(nodeID string) (folderMetadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	md, ok := c.entries[nodeID]
	return md, ok
}

func (c *metadataCache) put(nodeID string, md folderMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[nodeID] = md
}

func (c *metadataCache) invalidate(nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, nodeID)
}

// Credentials is the token payload handed to the file-access service.
type Credentials struct {
	Token string `json:"token"`
}

// StorageSettings is the folder payload handed to the file-access service.
type StorageSettings struct {
	Folder string `json:"folder"`
}

// FolderInfo describes the linked folder in a settings snapshot.
type FolderInfo struct {
	ID    *string `json:"id"`
	Name  string  `json:"name"`
	Path  string  `json:"path"`
	Stale bool    `json:"stale,omitempty"`
}

// ConfigURLs are the addon endpoints for a node, echoed alongside settings.
type ConfigURLs struct {
	Config      string `json:"config"`
	Folders     string `json:"folders"`
	ImportAuth  string `json:"importAuth"`
	Deauthorize string `json:"deauthorize"`
	Accounts    string `json:"accounts"`
}

// SettingsSnapshot is the serialized node settings returned by the config
// and import-auth endpoints.
type SettingsSnapshot struct {
	NodeHasAuth bool       `json:"node_has_auth"`
	UserHasAuth bool       `json:"user_has_auth"`
	UserIsOwner bool       `json:"user_is_owner"`
	OwnerName   string     `json:"owner_name,omitempty"`
	Folder      FolderInfo `json:"folder"`
	URLs        ConfigURLs `json:"urls"`
}

// NodeService owns the per-node addon record: folder selection, credential
// import, deauthorization, and the serialized views of all of it. Every
// state change appends an audit-log entry to the owning node.
type NodeService struct {
	nodes     repositories.NodeSettingsRepository
	accounts  repositories.AccountRepository
	logs      repositories.NodeLogRepository
	refresher *TokenRefresher
	client    StorageClient
	cache     *metadataCache
	logger    *slog.Logger
}

// NewNodeService creates a new node settings service
func NewNodeService(
	nodes repositories.NodeSettingsRepository,
	accounts repositories.AccountRepository,
	logs repositories.NodeLogRepository,
	refresher *TokenRefresher,
	client StorageClient,
	logger *slog.Logger,
) *NodeService {
	return &NodeService{
		nodes:     nodes,
		accounts:  accounts,
		logs:      logs,
		refresher: refresher,
		client:    client,
		cache:     newMetadataCache(),
		logger:    logger,
	}
}

// Get loads the settings record for a node.
func (s *NodeService) Get(ctx context.Context, nodeID string) (*models.NodeSettings, error) {
	return s.nodes.Get(ctx, nodeID)
}

// SetFolder links a remote folder to the node, refreshes its derived
// name/path, records a grant if one is missing, and audit-logs the change.
func (s *NodeService) SetFolder(ctx context.Context, nodeID, folderID, actorID string) (*models.NodeSettings, error) {
	settings, err := s.nodes.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if !settings.HasAuth() {
		return nil, &domain.ForbiddenError{Message: "no credential linked to node"}
	}

	settings.FolderID = &folderID
	s.cache.invalidate(nodeID)

	md := s.refreshFolderData(ctx, settings)
	if md != nil && !md.Stale {
		settings.FolderName = md.Name
		settings.FolderPath = md.Path
	}

	settings.UpdatedAt = time.Now()
	if err := s.nodes.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("save node settings: %w", err)
	}

	granted, err := s.accounts.HasGrant(ctx, *settings.AccountID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("check grant: %w", err)
	}
	if !granted {
		grant := &models.Grant{
			AccountID: *settings.AccountID,
			NodeID:    nodeID,
			Metadata:  map[string]any{"folder": folderID},
			CreatedAt: time.Now(),
		}
		if err := s.accounts.RecordGrant(ctx, grant); err != nil {
			return nil, fmt.Errorf("record grant: %w", err)
		}
	}

	s.appendLog(ctx, nodeID, models.LogFolderSelected, actorID, map[string]any{
		"folder_id":   folderID,
		"folder_name": settings.FolderName,
	})

	return settings, nil
}

// SetUserAuth imports a user's credential onto the node and audit-logs it.
// The caller is responsible for verifying the account belongs to the
// importing user.
func (s *NodeService) SetUserAuth(ctx context.Context, nodeID string, account *models.ExternalAccount, actorID string) (*models.NodeSettings, error) {
	settings, err := s.nodes.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	settings.AccountID = &account.ID
	settings.AuthorizerID = &account.OwnerID
	settings.UpdatedAt = time.Now()
	if err := s.nodes.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("save node settings: %w", err)
	}

	s.appendLog(ctx, nodeID, models.LogNodeAuthorized, actorID, map[string]any{
		"account_id": account.ID,
	})

	return settings, nil
}

// Deauthorize resets the node to the unconfigured state: folder fields,
// cached metadata and the credential reference are all cleared. Idempotent;
// a second call re-persists the null state without touching any credential.
func (s *NodeService) Deauthorize(ctx context.Context, nodeID, actorID string) error {
	settings, err := s.nodes.Get(ctx, nodeID)
	if err != nil {
		return err
	}

	var clearedFolder any
	if settings.FolderID != nil {
		clearedFolder = *settings.FolderID
	}

	if settings.AccountID != nil {
		if err := s.accounts.DeleteGrant(ctx, *settings.AccountID, nodeID); err != nil {
			return fmt.Errorf("delete grant: %w", err)
		}
	}

	settings.FolderID = nil
	settings.FolderName = ""
	settings.FolderPath = ""
	settings.AccountID = nil
	settings.AuthorizerID = nil
	settings.UpdatedAt = time.Now()
	s.cache.invalidate(nodeID)

	if err := s.nodes.Save(ctx, settings); err != nil {
		return fmt.Errorf("save node settings: %w", err)
	}

	s.appendLog(ctx, nodeID, models.LogNodeDeauthorized, actorID, map[string]any{
		"folder_id": clearedFolder,
	})

	return nil
}

// SerializeCredentials returns a fresh token for the file-access service.
func (s *NodeService) SerializeCredentials(ctx context.Context, nodeID string) (*Credentials, error) {
	settings, err := s.nodes.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if !settings.HasAuth() {
		return nil, &domain.AddonError{Message: "addon is not authorized"}
	}

	account, err := s.accounts.GetByID(ctx, *settings.AccountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	account, err = s.refresher.EnsureFresh(ctx, account)
	if err != nil {
		return nil, err
	}

	return &Credentials{Token: account.AccessToken}, nil
}

// SerializeSettings returns the folder payload for the file-access service.
func (s *NodeService) SerializeSettings(ctx context.Context, nodeID string) (*StorageSettings, error) {
	settings, err := s.nodes.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if !settings.Configured() {
		return nil, &domain.AddonError{Message: "folder is not configured"}
	}

	return &StorageSettings{Folder: *settings.FolderID}, nil
}

// FetchFolderName returns the linked folder's display name, refreshing the
// memoized metadata first.
func (s *NodeService) FetchFolderName(ctx context.Context, nodeID string) (string, error) {
	settings, err := s.nodes.Get(ctx, nodeID)
	if err != nil {
		return "", err
	}

	if md := s.refreshFolderData(ctx, settings); md != nil {
		return DisplayFolderName(md.Name), nil
	}
	return DisplayFolderName(settings.FolderName), nil
}

// FetchFullFolderPath returns the linked folder's full logical path,
// refreshing the memoized metadata first.
func (s *NodeService) FetchFullFolderPath(ctx context.Context, nodeID string) (string, error) {
	settings, err := s.nodes.Get(ctx, nodeID)
	if err != nil {
		return "", err
	}

	if md := s.refreshFolderData(ctx, settings); md != nil {
		return md.Path, nil
	}
	return settings.FolderPath, nil
}

// Serialize builds the settings snapshot for the given caller.
func (s *NodeService) Serialize(ctx context.Context, settings *models.NodeSettings, userID string) (*SettingsSnapshot, error) {
	snapshot := &SettingsSnapshot{
		NodeHasAuth: settings.HasAuth(),
		URLs:        NodeConfigURLs(settings.NodeID),
	}

	userAccounts, err := s.accounts.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	snapshot.UserHasAuth = len(userAccounts) > 0

	if settings.HasAuth() {
		snapshot.UserIsOwner = settings.AuthorizerID != nil && *settings.AuthorizerID == userID

		account, err := s.accounts.GetByID(ctx, *settings.AccountID)
		if err == nil {
			snapshot.OwnerName = account.DisplayName
		} else {
			s.logger.Warn("load authorizing account failed", "node_id", settings.NodeID, "error", err)
		}
	}

	snapshot.Folder = FolderInfo{
		ID:   settings.FolderID,
		Name: DisplayFolderName(settings.FolderName),
		Path: settings.FolderPath,
	}
	if settings.Configured() {
		md := s.refreshFolderData(ctx, settings)
		if md != nil {
			snapshot.Folder.Name = DisplayFolderName(md.Name)
			snapshot.Folder.Path = md.Path
			snapshot.Folder.Stale = md.Stale
		}
	}

	return snapshot, nil
}

// refreshFolderData recomputes the linked folder's name and path, memoized
// per node. A failed remote fetch keeps the persisted values and flags them
// stale instead of surfacing the error; the next call retries.
func (s *NodeService) refreshFolderData(ctx context.Context, settings *models.NodeSettings) *folderMetadata {
	if settings.FolderID == nil {
		return nil
	}

	if md, ok := s.cache.get(settings.NodeID); ok {
		return &md
	}

	md, err := s.fetchFolderData(ctx, settings)
	if err != nil {
		s.logger.Warn("folder metadata refresh failed, keeping stored values",
			"node_id", settings.NodeID, "folder_id", *settings.FolderID, "error", err)
		return &folderMetadata{Name: settings.FolderName, Path: settings.FolderPath, Stale: true}
	}

	settings.FolderName = md.Name
	settings.FolderPath = md.Path
	if err := s.nodes.Save(ctx, settings); err != nil {
		s.logger.Warn("persist refreshed folder metadata failed", "node_id", settings.NodeID, "error", err)
	}

	s.cache.put(settings.NodeID, *md)
	return md
}

func (s *NodeService) fetchFolderData(ctx context.Context, settings *models.NodeSettings) (*folderMetadata, error) {
	if !settings.HasAuth() {
		return nil, &domain.AddonError{Message: "addon is not authorized"}
	}

	account, err := s.accounts.GetByID(ctx, *settings.AccountID)
	if err != nil {
		return nil, err
	}
	account, err = s.refresher.EnsureFresh(ctx, account)
	if err != nil {
		return nil, err
	}

	folder, err := s.client.GetFolder(ctx, account.AccessToken, *settings.FolderID)
	if err != nil {
		return nil, err
	}

	return &folderMetadata{
		Name: folder.Name,
		Path: FullFolderPath(folder),
	}, nil
}

func (s *NodeService) appendLog(ctx context.Context, nodeID, action, actorID string, params map[string]any) {
	entry := &models.NodeLog{
		NodeID:    nodeID,
		Action:    action,
		ActorID:   actorID,
		Params:    params,
		CreatedAt: time.Now(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.Error("append node log failed", "node_id", nodeID, "action", action, "error", err)
	}
}

// NodeConfigURLs returns the addon endpoints for a node.
func NodeConfigURLs(nodeID string) ConfigURLs {
	base := fmt.Sprintf("/api/nodes/%s/%s", nodeID, AddonShortName)
	return ConfigURLs{
		Config:      base + "/config",
		Folders:     base + "/folders",
		ImportAuth:  base + "/import-auth",
		Deauthorize: base + "/config",
		Accounts:    "/api/users/me/accounts",
	}
}
