package service

import (
	"context"
	"fmt"
	"log/slog"

	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
)

// DefaultAbbrevCount is how many contributors an abbreviated list shows
// before collapsing the tail into "& N others".
const DefaultAbbrevCount = 3

// ContributorDisplay is one entry in an abbreviated contributor list. The
// separator is what the UI prints after the name: ",", " &" or nothing.
type ContributorDisplay struct {
	UserID    string `json:"user_id"`
	Separator string `json:"separator"`
}

// AbbrevResult is a display-ready abbreviated contributor list.
type AbbrevResult struct {
	Contributors []ContributorDisplay `json:"contributors"`
	OthersCount  int                  `json:"others_count"`
	OthersSuffix string               `json:"others_suffix"`
}

// ContributorInfo is the full serialized form of one contributor.
type ContributorInfo struct {
	ID         string `json:"id"`
	FullName   string `json:"fullname"`
	Registered bool   `json:"registered"`
	Active     bool   `json:"active"`
}

// Abbreviate truncates a contributor list to maxCount entries with
// natural-language separators: "A" alone, "A & B", "A, B & C",
// "A, B & 2 others".
func Abbreviate(users []models.User, maxCount int) *AbbrevResult {
	n := len(users)
	result := &AbbrevResult{Contributors: []ContributorDisplay{}}

	shown := n
	if maxCount < shown {
		shown = maxCount
	}

	for i := 0; i < shown; i++ {
		var separator string
		switch {
		case i == maxCount-1 && n > maxCount:
			separator = " &"
			result.OthersCount = n - maxCount
			if result.OthersCount > 1 {
				result.OthersSuffix = "s"
			}
		case i == n-1:
			separator = ""
		case i == n-2:
			separator = " &"
		default:
			separator = ","
		}

		result.Contributors = append(result.Contributors, ContributorDisplay{
			UserID:    users[i].ID,
			Separator: separator,
		})
	}

	return result
}

// ContributorService serves contributor views for a node, independent of
// the storage addon except for the share-email authorization check.
type ContributorService struct {
	contributors repositories.ContributorRepository
	nodes        repositories.NodeSettingsRepository
	logger       *slog.Logger
}

// NewContributorService creates a new contributor service
func NewContributorService(
	contributors repositories.ContributorRepository,
	nodes repositories.NodeSettingsRepository,
	logger *slog.Logger,
) *ContributorService {
	return &ContributorService{
		contributors: contributors,
		nodes:        nodes,
		logger:       logger,
	}
}

// AbbreviatedList builds the abbreviated contributor summary for a node.
// When userIDs is non-empty, only those contributors are considered, in
// display order.
func (s *ContributorService) AbbreviatedList(ctx context.Context, nodeID string, userIDs []string, maxCount int) (*AbbrevResult, error) {
	if maxCount <= 0 {
		maxCount = DefaultAbbrevCount
	}

	var (
		users []models.User
		err   error
	)
	if len(userIDs) > 0 {
		users, err = s.contributors.ListUsersByIDs(ctx, nodeID, userIDs)
	} else {
		users, err = s.contributors.ListUsers(ctx, nodeID)
	}
	if err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}

	return Abbreviate(users, maxCount), nil
}

// List returns the node's full serialized contributor list.
func (s *ContributorService) List(ctx context.Context, nodeID string) ([]ContributorInfo, error) {
	users, err := s.contributors.ListUsers(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}

	infos := make([]ContributorInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, ContributorInfo{
			ID:         user.ID,
			FullName:   user.FullName,
			Registered: user.IsRegistered,
			Active:     user.IsActive,
		})
	}
	return infos, nil
}

// ShareEmails lists the emails of the node's contributors other than the
// caller. Only the user who authorized the addon may ask.
func (s *ContributorService) ShareEmails(ctx context.Context, nodeID, callerID string) ([]string, error) {
	settings, err := s.nodes.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if !settings.HasAuth() {
		return nil, &domain.ValidationError{Message: "addon is not authorized"}
	}
	if settings.AuthorizerID == nil || *settings.AuthorizerID != callerID {
		return nil, &domain.ForbiddenError{Message: "only the authorizing user may list share emails"}
	}

	users, err := s.contributors.ListUsers(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}

	emails := make([]string, 0, len(users))
	for _, user := range users {
		if user.ID == callerID {
			continue
		}
		emails = append(emails, user.Email)
	}
	return emails, nil
}
