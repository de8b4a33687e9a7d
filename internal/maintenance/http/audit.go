package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
	"github.com/aussiebroadwan/traceline/pkg/httpx"
	"github.com/aussiebroadwan/traceline/pkg/jobsdk"
	"github.com/aussiebroadwan/traceline/pkg/slogx"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type AuditHandler struct {
	Store store.Store
}

// ServeHTTP lists recent audit entries
//
//	@Summary		List audit entries
//	@Description	Returns the most recent audit entries, newest first. Requires audit:read scope.
//	@Tags			Audit
//	@Produce		json
//	@Param			action	query		string					false	"Filter by action (job name)"
//	@Param			since	query		string					false	"Only entries at or after this RFC3339 time"
//	@Param			limit	query		int						false	"Maximum entries (default 50, max 500)"
//	@Success		200		{object}	jobsdk.AuditListResponse	"Audit entries"
//	@Failure		400		{object}	jobsdk.ErrorResponse		"Invalid query parameter"
//	@Failure		401		{object}	jobsdk.ErrorResponse		"Unauthorized - missing or invalid token"
//	@Failure		403		{object}	jobsdk.ErrorResponse		"Forbidden - missing required scope"
//	@Failure		500		{object}	jobsdk.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/v1/audit [get].
func (h *AuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	q := r.URL.Query()

	filter := domain.AuditFilter{Action: q.Get("action"), Limit: defaultAuditLimit}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpx.WriteJSON(w, http.StatusBadRequest, jobsdk.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "limit must be a positive integer",
			})
			return
		}
		filter.Limit = min(n, maxAuditLimit)
	}

	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, jobsdk.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "since must be an RFC3339 timestamp",
			})
			return
		}
		filter.Since = since
	}

	entries, err := h.Store.AuditLog().ListAuditEntries(ctx, filter)
	if err != nil {
		log.Error("failed to list audit entries", "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, jobsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to retrieve audit entries",
		})
		return
	}

	resp := jobsdk.AuditListResponse{Entries: make([]jobsdk.AuditEntryResponse, len(entries))}
	for i, e := range entries {
		item := jobsdk.AuditEntryResponse{
			ID:        e.ID,
			Actor:     e.Actor,
			Action:    e.Action,
			Result:    string(e.Result),
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		}
		if e.Error != nil {
			item.Error = *e.Error
		}
		resp.Entries[i] = item
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
