package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"stratus/internal/domain"
	"stratus/internal/domain/repositories"
	"stratus/internal/httputil"
	"stratus/internal/service"
)

// AddonHandler handles the per-node storage addon HTTP requests
type AddonHandler struct {
	nodes    *service.NodeService
	folders  *service.FolderService
	accounts repositories.AccountRepository
	logger   *slog.Logger
}

// NewAddonHandler creates a new addon handler
func NewAddonHandler(
	nodes *service.NodeService,
	folders *service.FolderService,
	accounts repositories.AccountRepository,
	logger *slog.Logger,
) *AddonHandler {
	return &AddonHandler{
		nodes:    nodes,
		folders:  folders,
		accounts: accounts,
		logger:   logger,
	}
}

// accountView is a linked account stripped of its tokens.
type accountView struct {
	ID             string `json:"id"`
	Provider       string `json:"provider"`
	ProviderUserID string `json:"provider_user_id"`
	DisplayName    string `json:"display_name"`
}

// ListAccounts lists the calling user's linked accounts
// GET /api/users/me/accounts
func (h *AddonHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	accounts, err := h.accounts.ListByOwner(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountView{
			ID:             a.ID,
			Provider:       a.Provider,
			ProviderUserID: a.ProviderUserID,
			DisplayName:    a.DisplayName,
		})
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"accounts": views})
}

// GetConfig returns the node's serialized addon settings
// GET /api/nodes/{id}/stratus/config
func (h *AddonHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")
	userID := httputil.GetUserID(r)

	settings, err := h.nodes.Get(r.Context(), nodeID)
	if err != nil {
		handleError(w, err)
		return
	}

	snapshot, err := h.nodes.Serialize(r.Context(), settings, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, snapshot)
}

type selectedFolder struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

type setConfigRequest struct {
	Selected selectedFolder `json:"selected"`
}

func (req *setConfigRequest) Validate() error {
	if err := validation.ValidateStruct(&req.Selected,
		validation.Field(&req.Selected.ID, validation.Required),
		validation.Field(&req.Selected.Path, validation.Required),
	); err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	return nil
}

// SetConfig links the selected remote folder to the node
// PUT /api/nodes/{id}/stratus/config
func (h *AddonHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")
	userID := httputil.GetUserID(r)

	var req setConfigRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		handleError(w, err)
		return
	}

	settings, err := h.nodes.SetFolder(r.Context(), nodeID, req.Selected.ID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"folder": map[string]string{
			"name": service.DisplayFolderName(settings.FolderName),
			"path": settings.FolderPath,
		},
		"urls": service.NodeConfigURLs(nodeID),
	})
}

type importAuthRequest struct {
	ExternalAccountID string `json:"external_account_id"`
}

// ImportAuth links one of the caller's accounts to the node
// POST /api/nodes/{id}/stratus/import-auth
func (h *AddonHandler) ImportAuth(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")
	userID := httputil.GetUserID(r)

	var req importAuthRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ExternalAccountID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "external_account_id is required")
		return
	}

	account, err := h.accounts.GetByID(r.Context(), req.ExternalAccountID)
	if err != nil {
		handleError(w, err)
		return
	}
	if account.OwnerID != userID {
		handleError(w, &domain.ForbiddenError{Message: "account does not belong to the requesting user"})
		return
	}

	settings, err := h.nodes.SetUserAuth(r.Context(), nodeID, account, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	snapshot, err := h.nodes.Serialize(r.Context(), settings, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, snapshot)
}

// RemoveAuth deauthorizes the node
// DELETE /api/nodes/{id}/stratus/config
func (h *AddonHandler) RemoveAuth(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")
	userID := httputil.GetUserID(r)

	if err := h.nodes.Deauthorize(r.Context(), nodeID, userID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFolders lists the children of a remote folder, or the synthetic root
// when no folderId is given
// GET /api/nodes/{id}/stratus/folders?folderId=
func (h *AddonHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")

	settings, err := h.nodes.Get(r.Context(), nodeID)
	if err != nil {
		handleError(w, err)
		return
	}

	var folderID *string
	if v := r.URL.Query().Get("folderId"); v != "" {
		folderID = &v
	}

	entries, err := h.folders.ListChildren(r.Context(), settings, folderID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"folders": entries})
}
