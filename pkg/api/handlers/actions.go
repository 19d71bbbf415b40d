package handlers

import (
	"net/http"

	"timelined/pkg/httpx"
	"timelined/pkg/models"
	"timelined/pkg/telemetry"
	"timelined/pkg/timeline"
)

type sendActionReq struct {
	UserID   int64                 `json:"user_id"`
	Kind     models.SendActionKind `json:"kind,omitempty"`
	Progress int                   `json:"progress,omitempty"`
	Cancel   bool                  `json:"cancel,omitempty"`
}

func validActionKind(k models.SendActionKind) bool {
	switch k {
	case models.SendActionTyping, models.SendActionRecordVideo,
		models.SendActionUploadVideo, models.SendActionRecordVoice,
		models.SendActionUploadVoice, models.SendActionUploadPhoto,
		models.SendActionUploadFile, models.SendActionChooseLocation,
		models.SendActionChooseContact, models.SendActionPlayGame:
		return true
	}
	return false
}

// RegisterAction records or cancels a peer activity.
func (h *Handlers) RegisterAction(w http.ResponseWriter, r *http.Request) {
	var req sendActionReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "user id required")
		return
	}
	if !req.Cancel && !validActionKind(req.Kind) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid action kind")
		return
	}
	h.withConv(w, r, func(t *timeline.Timeline) error {
		now := h.now()
		var active bool
		if req.Cancel {
			t.CancelSendAction(req.UserID)
			active = t.UpdateSendActions(now)
		} else {
			active = t.RegisterSendAction(req.UserID, req.Kind, req.Progress, now)
			telemetry.SendActions.WithLabelValues(string(req.Kind)).Inc()
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"active": active,
			"status": t.SendActionStatus(now),
		})
		return nil
	})
}

// GetActions returns the aggregate activity status.
func (h *Handlers) GetActions(w http.ResponseWriter, r *http.Request) {
	h.withConv(w, r, func(t *timeline.Timeline) error {
		now := h.now()
		active := t.UpdateSendActions(now)
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"active": active,
			"status": t.SendActionStatus(now),
		})
		return nil
	})
}
