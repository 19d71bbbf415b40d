package handlers

import (
	"net/http"

	"timelined/pkg/httpx"
	"timelined/pkg/logger"
	"timelined/pkg/timeline"
)

type migrateReq struct {
	GroupID      int64 `json:"group_id"`
	SupergroupID int64 `json:"supergroup_id"`
}

// Migrate links a legacy group to the supergroup it became. The
// supergroup is created when unknown; the group must exist.
func (h *Handlers) Migrate(w http.ResponseWriter, r *http.Request) {
	var req migrateReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.GroupID == 0 || req.SupergroupID == 0 || req.GroupID == req.SupergroupID {
		httpx.WriteError(w, http.StatusBadRequest, "group and supergroup ids required")
		return
	}
	h.ensure(req.GroupID)
	h.ensure(req.SupergroupID)
	if err := h.Reg.LinkMigration(req.GroupID, req.SupergroupID); err != nil {
		if err == timeline.ErrNotFound {
			httpx.WriteError(w, http.StatusNotFound, "group not found")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var summary timeline.Summary
	_ = h.Reg.With(req.SupergroupID, func(t *timeline.Timeline) error {
		summary = t.Summary(h.now())
		return nil
	})
	logger.Info("migration_applied", "group", req.GroupID, "supergroup", req.SupergroupID)
	httpx.WriteJSON(w, http.StatusOK, summary)
}
