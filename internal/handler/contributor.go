package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"stratus/internal/httputil"
	"stratus/internal/service"
)

// ContributorHandler handles contributor listing HTTP requests
type ContributorHandler struct {
	contributors *service.ContributorService
	logger       *slog.Logger
}

// NewContributorHandler creates a new contributor handler
func NewContributorHandler(contributors *service.ContributorService, logger *slog.Logger) *ContributorHandler {
	return &ContributorHandler{
		contributors: contributors,
		logger:       logger,
	}
}

// List returns the node's full serialized contributor list
// GET /api/nodes/{id}/contributors
func (h *ContributorHandler) List(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")

	infos, err := h.contributors.List(r.Context(), nodeID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"contributors": infos})
}

// Abbrev returns the abbreviated contributor view
// GET /api/nodes/{id}/contributors/abbrev?maxCount=&user_ids=
func (h *ContributorHandler) Abbrev(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")

	maxCount := service.DefaultAbbrevCount
	if v := r.URL.Query().Get("maxCount"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			httputil.RespondError(w, http.StatusBadRequest, "maxCount must be a positive integer")
			return
		}
		maxCount = parsed
	}

	var userIDs []string
	if v := r.URL.Query().Get("user_ids"); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				userIDs = append(userIDs, id)
			}
		}
	}

	result, err := h.contributors.AbbreviatedList(r.Context(), nodeID, userIDs, maxCount)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ShareEmails lists contributor emails for sharing, minus the caller
// GET /api/nodes/{id}/stratus/share-emails
func (h *ContributorHandler) ShareEmails(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")
	userID := httputil.GetUserID(r)

	emails, err := h.contributors.ShareEmails(r.Context(), nodeID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"emails": emails})
}
