package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
)

// TokenRefresher guarantees a usable access token before any remote call.
// Expired tokens are refreshed against the provider's token endpoint and the
// new pair is persisted. A single refresh failure surfaces immediately; no
// retries.
type TokenRefresher struct {
	accounts repositories.AccountRepository
	oauth    *oauth2.Config
	logger   *slog.Logger
}

// NewTokenRefresher creates a token refresher backed by the given OAuth app
// configuration.
func NewTokenRefresher(accounts repositories.AccountRepository, oauth *oauth2.Config, logger *slog.Logger) *TokenRefresher {
	return &TokenRefresher{
		accounts: accounts,
		oauth:    oauth,
		logger:   logger,
	}
}

// EnsureFresh returns the account with a valid access token. Unexpired
// tokens are returned unchanged; expired ones are refreshed and persisted.
func (r *TokenRefresher) EnsureFresh(ctx context.Context, account *models.ExternalAccount) (*models.ExternalAccount, error) {
	if !account.TokenExpired() {
		return account, nil
	}

	stored := &oauth2.Token{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		Expiry:       account.Expiry,
	}

	fresh, err := r.oauth.TokenSource(ctx, stored).Token()
	if err != nil {
		r.logger.Warn("token refresh failed", "account_id", account.ID, "error", err)
		return nil, &domain.AuthExpiredError{Message: "token refresh failed"}
	}

	account.AccessToken = fresh.AccessToken
	if fresh.RefreshToken != "" {
		account.RefreshToken = fresh.RefreshToken
	}
	account.Expiry = fresh.Expiry
	account.UpdatedAt = time.Now()

	if err := r.accounts.UpdateTokens(ctx, account); err != nil {
		return nil, fmt.Errorf("persist refreshed tokens: %w", err)
	}

	r.logger.Debug("token refreshed", "account_id", account.ID, "expiry", account.Expiry)
	return account, nil
}
