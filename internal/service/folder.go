package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
	"stratus/internal/storage/onedrive"
)

// AddonShortName identifies this integration in listings and audit logs.
const AddonShortName = "stratus"

// Synthetic root listing. folderId "0" bootstraps browsing without a remote
// call.
const (
	rootFolderID   = "0"
	rootFolderName = "/ (Full Stratus)"
	rootFolderPath = "All Files"
)

// StorageClient is the slice of the provider client the services need.
type StorageClient interface {
	GetFolder(ctx context.Context, token, folderID string) (*onedrive.RemoteFolder, error)
}

// FolderService turns remote folder identifiers into navigable listings with
// logical slash-joined paths.
type FolderService struct {
	accounts  repositories.AccountRepository
	refresher *TokenRefresher
	client    StorageClient
	logger    *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	accounts repositories.AccountRepository,
	refresher *TokenRefresher,
	client StorageClient,
	logger *slog.Logger,
) *FolderService {
	return &FolderService{
		accounts:  accounts,
		refresher: refresher,
		client:    client,
		logger:    logger,
	}
}

// ListChildren lists the folder-typed children of folderID for browsing.
// A nil folderID yields the synthetic root entry without touching the
// provider. Non-folder items are dropped silently.
func (s *FolderService) ListChildren(ctx context.Context, settings *models.NodeSettings, folderID *string) ([]models.FolderEntry, error) {
	if !settings.HasAuth() {
		return nil, &domain.ForbiddenError{Message: "no credential linked to node"}
	}

	if folderID == nil {
		return []models.FolderEntry{{
			ID:    rootFolderID,
			Name:  rootFolderName,
			Path:  rootFolderPath,
			Kind:  "folder",
			Addon: AddonShortName,
			URLs:  models.FolderURLs{Folders: ListChildrenURL(settings.NodeID, rootFolderID)},
		}}, nil
	}

	account, err := s.accounts.GetByID(ctx, *settings.AccountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	account, err = s.refresher.EnsureFresh(ctx, account)
	if err != nil {
		// A credential that cannot be refreshed is an authorization
		// failure from the caller's point of view.
		if errors.Is(err, domain.ErrAuthExpired) {
			return nil, &domain.ForbiddenError{Message: "credential could not be refreshed"}
		}
		return nil, err
	}

	folder, err := s.client.GetFolder(ctx, account.AccessToken, *folderID)
	if err != nil {
		return nil, err
	}
	if folder.IsDeleted {
		return nil, &domain.NotFoundError{Message: "folder has been deleted"}
	}

	fullPath := FullFolderPath(folder)

	entries := make([]models.FolderEntry, 0, len(folder.ItemCollection.Entries))
	for _, item := range folder.ItemCollection.Entries {
		if item.Type != "folder" {
			continue
		}
		entries = append(entries, models.FolderEntry{
			ID:    item.ID,
			Name:  item.Name,
			Path:  fullPath + "/" + item.Name,
			Kind:  "folder",
			Addon: AddonShortName,
			URLs:  models.FolderURLs{Folders: ListChildrenURL(settings.NodeID, item.ID)},
		})
	}

	return entries, nil
}

// FullFolderPath joins the ancestor names and the folder's own name with
// "/". This is a logical path, never a host filesystem path.
func FullFolderPath(folder *onedrive.RemoteFolder) string {
	parts := make([]string, 0, len(folder.PathCollection.Entries)+1)
	for _, entry := range folder.PathCollection.Entries {
		parts = append(parts, entry.Name)
	}
	parts = append(parts, folder.Name)
	return strings.Join(parts, "/")
}

// ListChildrenURL builds the self-referential listing link for a folder.
func ListChildrenURL(nodeID, folderID string) string {
	return fmt.Sprintf("/api/nodes/%s/%s/folders?folderId=%s",
		url.PathEscape(nodeID), AddonShortName, url.QueryEscape(folderID))
}

// DisplayFolderName maps the provider's root label to the addon's display
// form.
func DisplayFolderName(name string) string {
	return strings.ReplaceAll(name, rootFolderPath, rootFolderName)
}
