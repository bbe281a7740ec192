package models

import "time"

// ExternalAccount holds a user's OAuth credential for the storage provider,
// plus the provider-side identity captured when the account was linked.
// One account may be shared by several nodes through grants.
type ExternalAccount struct {
	ID             string    `json:"id" db:"id"`
	OwnerID        string    `json:"owner_id" db:"owner_id"`
	Provider       string    `json:"provider" db:"provider"`
	ProviderUserID string    `json:"provider_user_id" db:"provider_user_id"`
	DisplayName    string    `json:"display_name" db:"display_name"`
	AccessToken    string    `json:"-" db:"access_token"`
	RefreshToken   string    `json:"-" db:"refresh_token"`
	Expiry         time.Time `json:"-" db:"expiry"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// TokenExpired reports whether the stored access token needs a refresh.
// A zero expiry means the provider never expires the token.
func (a *ExternalAccount) TokenExpired() bool {
	if a.Expiry.IsZero() {
		return false
	}
	return time.Now().After(a.Expiry)
}

// Grant records that a node has been allowed to use an account's credential.
// A node settings record may reference an account only while a grant exists.
type Grant struct {
	AccountID string         `json:"account_id" db:"account_id"`
	NodeID    string         `json:"node_id" db:"node_id"`
	Metadata  map[string]any `json:"metadata" db:"metadata"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}
