package service

import (
	"context"
	"errors"
	"testing"

	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/storage/onedrive"
)

func authorizedSettings() *models.NodeSettings {
	return &models.NodeSettings{
		NodeID:       "n1",
		AccountID:    strPtr("acct-1"),
		AuthorizerID: strPtr("u1"),
	}
}

func testAccount() *models.ExternalAccount {
	return &models.ExternalAccount{
		ID:          "acct-1",
		OwnerID:     "u1",
		Provider:    AddonShortName,
		AccessToken: "tok",
	}
}

func newFolderService(client StorageClient) (*FolderService, *fakeAccountRepo) {
	accounts := newFakeAccountRepo(testAccount())
	return NewFolderService(accounts, testRefresher(accounts), client, testLogger()), accounts
}

func TestListChildrenRoot(t *testing.T) {
	svc, _ := newFolderService(&fakeStorageClient{})

	entries, err := svc.ListChildren(context.Background(), authorizedSettings(), nil)
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	root := entries[0]
	if root.ID != "0" {
		t.Errorf("ID = %q, want 0", root.ID)
	}
	if root.Path != "All Files" {
		t.Errorf("Path = %q, want All Files", root.Path)
	}
	if root.Kind != "folder" {
		t.Errorf("Kind = %q, want folder", root.Kind)
	}
	if root.URLs.Folders != "/api/nodes/n1/stratus/folders?folderId=0" {
		t.Errorf("URLs.Folders = %q", root.URLs.Folders)
	}
}

func TestListChildrenRootNeedsNoRemoteCall(t *testing.T) {
	client := &fakeStorageClient{}
	svc, _ := newFolderService(client)

	if _, err := svc.ListChildren(context.Background(), authorizedSettings(), nil); err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if client.calls != 0 {
		t.Errorf("remote calls = %d, want 0", client.calls)
	}
}

func TestListChildrenFiltersFolders(t *testing.T) {
	client := &fakeStorageClient{folders: map[string]*onedrive.RemoteFolder{
		"123": {
			ID:   "123",
			Name: "Reports",
			PathCollection: onedrive.PathCollection{
				Entries: []onedrive.PathEntry{{Name: "Documents"}},
			},
			ItemCollection: onedrive.ItemCollection{
				Entries: []onedrive.Item{
					{ID: "1", Name: "Q1", Type: "folder"},
					{ID: "2", Name: "notes.txt", Type: "file"},
				},
			},
		},
	}}
	svc, _ := newFolderService(client)

	folderID := "123"
	entries, err := svc.ListChildren(context.Background(), authorizedSettings(), &folderID)
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (file must be dropped)", len(entries))
	}

	entry := entries[0]
	if entry.ID != "1" || entry.Name != "Q1" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Path != "Documents/Reports/Q1" {
		t.Errorf("Path = %q, want Documents/Reports/Q1", entry.Path)
	}
	if entry.URLs.Folders != "/api/nodes/n1/stratus/folders?folderId=1" {
		t.Errorf("URLs.Folders = %q", entry.URLs.Folders)
	}
}

func TestListChildrenDeletedFolder(t *testing.T) {
	client := &fakeStorageClient{folders: map[string]*onedrive.RemoteFolder{
		"gone": {ID: "gone", Name: "Old", IsDeleted: true},
	}}
	svc, _ := newFolderService(client)

	folderID := "gone"
	_, err := svc.ListChildren(context.Background(), authorizedSettings(), &folderID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestListChildrenWithoutAuth(t *testing.T) {
	svc, _ := newFolderService(&fakeStorageClient{})

	_, err := svc.ListChildren(context.Background(), &models.NodeSettings{NodeID: "n1"}, nil)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("error = %v, want forbidden", err)
	}
}

func TestListChildrenPassesThroughProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "transient", err: &domain.TransientError{Message: "retries exhausted"}, wantErr: domain.ErrTransient},
		{name: "forbidden", err: &domain.ForbiddenError{Message: "denied"}, wantErr: domain.ErrForbidden},
		{name: "missing", err: &domain.NotFoundError{Message: "gone"}, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newFolderService(&fakeStorageClient{err: tt.err})

			folderID := "123"
			_, err := svc.ListChildren(context.Background(), authorizedSettings(), &folderID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFullFolderPath(t *testing.T) {
	tests := []struct {
		name      string
		ancestors []string
		own       string
		want      string
	}{
		{name: "nested", ancestors: []string{"All Files", "Documents"}, own: "Reports", want: "All Files/Documents/Reports"},
		{name: "single ancestor", ancestors: []string{"Documents"}, own: "Reports", want: "Documents/Reports"},
		{name: "root child", ancestors: nil, own: "Reports", want: "Reports"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folder := &onedrive.RemoteFolder{Name: tt.own}
			for _, name := range tt.ancestors {
				folder.PathCollection.Entries = append(folder.PathCollection.Entries, onedrive.PathEntry{Name: name})
			}

			if got := FullFolderPath(folder); got != tt.want {
				t.Errorf("FullFolderPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayFolderName(t *testing.T) {
	if got := DisplayFolderName("All Files"); got != "/ (Full Stratus)" {
		t.Errorf("DisplayFolderName = %q", got)
	}
	if got := DisplayFolderName("Reports"); got != "Reports" {
		t.Errorf("DisplayFolderName = %q", got)
	}
}
