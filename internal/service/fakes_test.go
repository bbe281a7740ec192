package service

import (
	"context"
	"log/slog"

	"golang.org/x/oauth2"

	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/storage/onedrive"
)

type fakeAccountRepo struct {
	accounts         map[string]*models.ExternalAccount
	grants           map[string]bool
	updateCalls      int
	grantCalls       int
	deleteGrantCalls int
}

func newFakeAccountRepo(accounts ...*models.ExternalAccount) *fakeAccountRepo {
	repo := &fakeAccountRepo{
		accounts: make(map[string]*models.ExternalAccount),
		grants:   make(map[string]bool),
	}
	for _, a := range accounts {
		repo.accounts[a.ID] = a
	}
	return repo
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id string) (*models.ExternalAccount, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: "account " + id + " not found"}
	}
	cp := *account
	return &cp, nil
}

func (r *fakeAccountRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.ExternalAccount, error) {
	var out []models.ExternalAccount
	for _, a := range r.accounts {
		if a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) UpdateTokens(ctx context.Context, account *models.ExternalAccount) error {
	r.updateCalls++
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) RecordGrant(ctx context.Context, grant *models.Grant) error {
	r.grantCalls++
	r.grants[grant.AccountID+"/"+grant.NodeID] = true
	return nil
}

func (r *fakeAccountRepo) HasGrant(ctx context.Context, accountID, nodeID string) (bool, error) {
	return r.grants[accountID+"/"+nodeID], nil
}

func (r *fakeAccountRepo) DeleteGrant(ctx context.Context, accountID, nodeID string) error {
	r.deleteGrantCalls++
	delete(r.grants, accountID+"/"+nodeID)
	return nil
}

type fakeNodeRepo struct {
	settings  map[string]*models.NodeSettings
	saveCalls int
}

func newFakeNodeRepo(settings ...*models.NodeSettings) *fakeNodeRepo {
	repo := &fakeNodeRepo{settings: make(map[string]*models.NodeSettings)}
	for _, s := range settings {
		repo.settings[s.NodeID] = s
	}
	return repo
}

func (r *fakeNodeRepo) Get(ctx context.Context, nodeID string) (*models.NodeSettings, error) {
	settings, ok := r.settings[nodeID]
	if !ok {
		return nil, &domain.NotFoundError{Message: "node " + nodeID + " not found"}
	}
	cp := *settings
	return &cp, nil
}

func (r *fakeNodeRepo) Save(ctx context.Context, settings *models.NodeSettings) error {
	r.saveCalls++
	cp := *settings
	r.settings[settings.NodeID] = &cp
	return nil
}

type fakeLogRepo struct {
	entries []*models.NodeLog
}

func (r *fakeLogRepo) Append(ctx context.Context, entry *models.NodeLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

type fakeContributorRepo struct {
	users []models.User
}

func (r *fakeContributorRepo) ListUsers(ctx context.Context, nodeID string) ([]models.User, error) {
	return r.users, nil
}

func (r *fakeContributorRepo) ListUsersByIDs(ctx context.Context, nodeID string, ids []string) ([]models.User, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.User
	for _, u := range r.users {
		if want[u.ID] {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeStorageClient struct {
	folders map[string]*onedrive.RemoteFolder
	err     error
	calls   int
}

func (c *fakeStorageClient) GetFolder(ctx context.Context, token, folderID string) (*onedrive.RemoteFolder, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	folder, ok := c.folders[folderID]
	if !ok {
		return nil, &domain.NotFoundError{Message: "folder not found"}
	}
	return folder, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testRefresher never has to refresh in service tests: fake accounts carry a
// zero expiry, which means the token does not expire.
func testRefresher(accounts *fakeAccountRepo) *TokenRefresher {
	return NewTokenRefresher(accounts, &oauth2.Config{}, testLogger())
}

func strPtr(s string) *string {
	return &s
}
