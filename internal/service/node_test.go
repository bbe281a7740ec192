package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/storage/onedrive"
)

func reportsFolder() *onedrive.RemoteFolder {
	return &onedrive.RemoteFolder{
		ID:   "123",
		Name: "Reports",
		PathCollection: onedrive.PathCollection{
			Entries: []onedrive.PathEntry{{Name: "Documents"}},
		},
	}
}

func newNodeService(settings *models.NodeSettings, client StorageClient) (*NodeService, *fakeNodeRepo, *fakeAccountRepo, *fakeLogRepo) {
	nodes := newFakeNodeRepo(settings)
	accounts := newFakeAccountRepo(testAccount())
	logs := &fakeLogRepo{}
	svc := NewNodeService(nodes, accounts, logs, testRefresher(accounts), client, testLogger())
	return svc, nodes, accounts, logs
}

func TestSetFolder(t *testing.T) {
	client := &fakeStorageClient{folders: map[string]*onedrive.RemoteFolder{"123": reportsFolder()}}
	svc, nodes, accounts, logs := newNodeService(authorizedSettings(), client)

	settings, err := svc.SetFolder(context.Background(), "n1", "123", "u1")
	if err != nil {
		t.Fatalf("SetFolder: %v", err)
	}

	if settings.FolderID == nil || *settings.FolderID != "123" {
		t.Errorf("FolderID = %v, want 123", settings.FolderID)
	}
	if settings.FolderName != "Reports" {
		t.Errorf("FolderName = %q, want Reports", settings.FolderName)
	}
	if settings.FolderPath != "Documents/Reports" {
		t.Errorf("FolderPath = %q, want Documents/Reports", settings.FolderPath)
	}

	stored, _ := nodes.Get(context.Background(), "n1")
	if stored.FolderName != "Reports" {
		t.Errorf("persisted FolderName = %q, want Reports", stored.FolderName)
	}

	if !accounts.grants["acct-1/n1"] {
		t.Error("grant was not recorded")
	}
	if len(logs.entries) != 1 || logs.entries[0].Action != models.LogFolderSelected {
		t.Errorf("logs = %+v, want one folder_selected entry", logs.entries)
	}
}

func TestSetFolderDoesNotRegrant(t *testing.T) {
	client := &fakeStorageClient{folders: map[string]*onedrive.RemoteFolder{"123": reportsFolder()}}
	svc, _, accounts, _ := newNodeService(authorizedSettings(), client)
	accounts.grants["acct-1/n1"] = true

	if _, err := svc.SetFolder(context.Background(), "n1", "123", "u1"); err != nil {
		t.Fatalf("SetFolder: %v", err)
	}
	if accounts.grantCalls != 0 {
		t.Errorf("grantCalls = %d, want 0", accounts.grantCalls)
	}
}

func TestSetFolderWithoutAuth(t *testing.T) {
	svc, _, _, _ := newNodeService(&models.NodeSettings{NodeID: "n1"}, &fakeStorageClient{})

	_, err := svc.SetFolder(context.Background(), "n1", "123", "u1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("error = %v, want forbidden", err)
	}
}

func TestSetFolderSoftFailKeepsStoredMetadata(t *testing.T) {
	initial := authorizedSettings()
	initial.FolderID = strPtr("old")
	initial.FolderName = "Old Name"
	initial.FolderPath = "Old/Path"

	client := &fakeStorageClient{err: &domain.TransientError{Message: "provider down"}}
	svc, nodes, _, _ := newNodeService(initial, client)

	settings, err := svc.SetFolder(context.Background(), "n1", "123", "u1")
	if err != nil {
		t.Fatalf("SetFolder: %v", err)
	}

	// The folder id changes but the refresh soft-fails, so stored
	// name/path survive.
	if *settings.FolderID != "123" {
		t.Errorf("FolderID = %q, want 123", *settings.FolderID)
	}
	if settings.FolderName != "Old Name" || settings.FolderPath != "Old/Path" {
		t.Errorf("metadata = %q/%q, want stored values kept", settings.FolderName, settings.FolderPath)
	}

	stored, _ := nodes.Get(context.Background(), "n1")
	if *stored.FolderID != "123" {
		t.Errorf("persisted FolderID = %q, want 123", *stored.FolderID)
	}
}

func TestSerializeFlagsStaleMetadata(t *testing.T) {
	initial := authorizedSettings()
	initial.FolderID = strPtr("123")
	initial.FolderName = "Reports"
	initial.FolderPath = "Documents/Reports"

	client := &fakeStorageClient{err: &domain.TransientError{Message: "provider down"}}
	svc, _, _, _ := newNodeService(initial, client)

	settings, _ := svc.Get(context.Background(), "n1")
	snapshot, err := svc.Serialize(context.Background(), settings, "u1")
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	if !snapshot.Folder.Stale {
		t.Error("Folder.Stale = false, want true after failed refresh")
	}
	if snapshot.Folder.Path != "Documents/Reports" {
		t.Errorf("Folder.Path = %q, want stored value", snapshot.Folder.Path)
	}
}

func TestFolderMetadataMemoized(t *testing.T) {
	initial := authorizedSettings()
	initial.FolderID = strPtr("123")

	client := &fakeStorageClient{folders: map[string]*onedrive.RemoteFolder{"123": reportsFolder()}}
	svc, _, _, _ := newNodeService(initial, client)

	ctx := context.Background()
	if _, err := svc.FetchFolderName(ctx, "n1"); err != nil {
		t.Fatalf("FetchFolderName: %v", err)
	}
	if _, err := svc.FetchFullFolderPath(ctx, "n1"); err != nil {
		t.Fatalf("FetchFullFolderPath: %v", err)
	}

	if client.calls != 1 {
		t.Errorf("remote calls = %d, want 1 (memoized)", client.calls)
	}
}

func TestFetchFullFolderPath(t *testing.T) {
	initial := authorizedSettings()
	initial.FolderID = strPtr("123")

	client := &fakeStorageClient{folders: map[string]*onedrive.RemoteFolder{"123": reportsFolder()}}
	svc, _, _, _ := newNodeService(initial, client)

	path, err := svc.FetchFullFolderPath(context.Background(), "n1")
	if err != nil {
		t.Fatalf("FetchFullFolderPath: %v", err)
	}
	if path != "Documents/Reports" {
		t.Errorf("path = %q, want Documents/Reports", path)
	}
}

func TestDeauthorizeIdempotent(t *testing.T) {
	initial := authorizedSettings()
	initial.FolderID = strPtr("123")
	initial.FolderName = "Reports"
	initial.FolderPath = "Documents/Reports"

	svc, nodes, accounts, logs := newNodeService(initial, &fakeStorageClient{})
	accounts.grants["acct-1/n1"] = true

	ctx := context.Background()
	if err := svc.Deauthorize(ctx, "n1", "u1"); err != nil {
		t.Fatalf("Deauthorize: %v", err)
	}

	stored, _ := nodes.Get(ctx, "n1")
	if stored.FolderID != nil || stored.AccountID != nil || stored.AuthorizerID != nil {
		t.Errorf("settings not cleared: %+v", stored)
	}
	if stored.FolderName != "" || stored.FolderPath != "" {
		t.Errorf("folder metadata not cleared: %q/%q", stored.FolderName, stored.FolderPath)
	}
	if accounts.deleteGrantCalls != 1 {
		t.Errorf("deleteGrantCalls = %d, want 1", accounts.deleteGrantCalls)
	}

	// Second call: same unconfigured state, no further credential mutation.
	if err := svc.Deauthorize(ctx, "n1", "u1"); err != nil {
		t.Fatalf("second Deauthorize: %v", err)
	}
	stored, _ = nodes.Get(ctx, "n1")
	if stored.FolderID != nil || stored.AccountID != nil {
		t.Errorf("settings not null after second call: %+v", stored)
	}
	if accounts.deleteGrantCalls != 1 {
		t.Errorf("deleteGrantCalls = %d after second call, want 1", accounts.deleteGrantCalls)
	}

	if len(logs.entries) != 2 {
		t.Fatalf("logs = %d entries, want 2", len(logs.entries))
	}
	for _, entry := range logs.entries {
		if entry.Action != models.LogNodeDeauthorized {
			t.Errorf("action = %q, want node_deauthorized", entry.Action)
		}
	}
	if logs.entries[0].Params["folder_id"] != "123" {
		t.Errorf("first log folder_id = %v, want 123", logs.entries[0].Params["folder_id"])
	}
}

func TestSetUserAuth(t *testing.T) {
	svc, nodes, _, logs := newNodeService(&models.NodeSettings{NodeID: "n1"}, &fakeStorageClient{})

	settings, err := svc.SetUserAuth(context.Background(), "n1", testAccount(), "u1")
	if err != nil {
		t.Fatalf("SetUserAuth: %v", err)
	}
	if settings.AccountID == nil || *settings.AccountID != "acct-1" {
		t.Errorf("AccountID = %v, want acct-1", settings.AccountID)
	}
	if settings.AuthorizerID == nil || *settings.AuthorizerID != "u1" {
		t.Errorf("AuthorizerID = %v, want u1", settings.AuthorizerID)
	}

	stored, _ := nodes.Get(context.Background(), "n1")
	if stored.AccountID == nil {
		t.Error("AccountID not persisted")
	}
	if len(logs.entries) != 1 || logs.entries[0].Action != models.LogNodeAuthorized {
		t.Errorf("logs = %+v, want one node_authorized entry", logs.entries)
	}
}

func TestSerializeCredentials(t *testing.T) {
	initial := authorizedSettings()
	svc, _, _, _ := newNodeService(initial, &fakeStorageClient{})

	creds, err := svc.SerializeCredentials(context.Background(), "n1")
	if err != nil {
		t.Fatalf("SerializeCredentials: %v", err)
	}
	if creds.Token != "tok" {
		t.Errorf("Token = %q, want tok", creds.Token)
	}
}

func TestSerializeCredentialsRefreshesExpiredToken(t *testing.T) {
	expired := testAccount()
	expired.RefreshToken = "refresh-1"
	expired.Expiry = time.Now().Add(-time.Minute)

	accounts := newFakeAccountRepo(expired)
	cfg := oauthConfigFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "fresh-token", "token_type": "Bearer", "expires_in": 3600}`))
	})
	svc := NewNodeService(
		newFakeNodeRepo(authorizedSettings()),
		accounts,
		&fakeLogRepo{},
		NewTokenRefresher(accounts, cfg, testLogger()),
		&fakeStorageClient{},
		testLogger(),
	)

	creds, err := svc.SerializeCredentials(context.Background(), "n1")
	if err != nil {
		t.Fatalf("SerializeCredentials: %v", err)
	}
	if creds.Token != "fresh-token" {
		t.Errorf("Token = %q, want fresh-token", creds.Token)
	}
	if accounts.updateCalls != 1 {
		t.Errorf("updateCalls = %d, want 1 (refreshed pair persisted)", accounts.updateCalls)
	}
}

func TestSerializeCredentialsUnauthorized(t *testing.T) {
	svc, _, _, _ := newNodeService(&models.NodeSettings{NodeID: "n1"}, &fakeStorageClient{})

	_, err := svc.SerializeCredentials(context.Background(), "n1")
	if !errors.Is(err, domain.ErrAddon) {
		t.Errorf("error = %v, want addon error", err)
	}
}

func TestSerializeSettings(t *testing.T) {
	initial := authorizedSettings()
	initial.FolderID = strPtr("123")
	svc, _, _, _ := newNodeService(initial, &fakeStorageClient{})

	settings, err := svc.SerializeSettings(context.Background(), "n1")
	if err != nil {
		t.Fatalf("SerializeSettings: %v", err)
	}
	if settings.Folder != "123" {
		t.Errorf("Folder = %q, want 123", settings.Folder)
	}
}

func TestSerializeSettingsUnconfigured(t *testing.T) {
	svc, _, _, _ := newNodeService(authorizedSettings(), &fakeStorageClient{})

	_, err := svc.SerializeSettings(context.Background(), "n1")
	if !errors.Is(err, domain.ErrAddon) {
		t.Errorf("error = %v, want addon error", err)
	}
}
