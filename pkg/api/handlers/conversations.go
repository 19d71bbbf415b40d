package handlers

import (
	"net/http"

	"timelined/pkg/httpx"
	"timelined/pkg/logger"
	"timelined/pkg/models"
	"timelined/pkg/store"
	"timelined/pkg/telemetry"
	"timelined/pkg/timeline"
)

type upsertConversationReq struct {
	Info models.ConversationInfo `json:"info"`
	// FullyLoaded declares a brand-new conversation with no history to
	// fetch; the timeline is complete from the start.
	FullyLoaded bool `json:"fully_loaded,omitempty"`
}

// UpsertConversation creates or updates a conversation.
func (h *Handlers) UpsertConversation(w http.ResponseWriter, r *http.Request) {
	var req upsertConversationReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Info.ID == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "conversation id required")
		return
	}
	switch req.Info.Kind {
	case models.ConvUser, models.ConvGroup, models.ConvSupergroup:
	default:
		httpx.WriteError(w, http.StatusBadRequest, "invalid conversation kind")
		return
	}
	var summary timeline.Summary
	h.Reg.Upsert(req.Info, func(t *timeline.Timeline) {
		if req.FullyLoaded {
			t.MarkFullyLoaded()
		}
		summary = t.Summary(h.now())
	})
	telemetry.ActiveConversations.Set(float64(h.Reg.Len()))
	if err := store.SaveSnapshot(req.Info.ID, store.Snapshot{Info: req.Info}); err != nil {
		logger.Warn("snapshot_save_failed", "conv", req.Info.ID, "error", err.Error())
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

// ListConversations returns summaries for every registered
// conversation.
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	out := make([]timeline.Summary, 0)
	for _, id := range h.Reg.IDs() {
		_ = h.Reg.With(id, func(t *timeline.Timeline) error {
			out = append(out, t.Summary(now))
			return nil
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"conversations": out})
}

// GetConversation returns one conversation summary.
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	h.withConv(w, r, func(t *timeline.Timeline) error {
		httpx.WriteJSON(w, http.StatusOK, t.Summary(h.now()))
		return nil
	})
}

// DeleteConversation wipes a conversation from memory, the media
// index and the store.
func (h *Handlers) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := convID(r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}
	_ = h.Reg.With(id, func(t *timeline.Timeline) error {
		t.Clear(timeline.ClearDelete)
		return nil
	})
	removed := h.Reg.Remove(id)
	h.Media.Forget(id)
	if err := store.DeleteConversation(id); err != nil {
		logger.Warn("conversation_delete_failed", "conv", id, "error", err.Error())
	}
	telemetry.ActiveConversations.Set(float64(h.Reg.Len()))
	if !removed {
		httpx.WriteError(w, http.StatusNotFound, "conversation not found")
		return
	}
	logger.Info("conversation_deleted", "conv", id)
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type clearReq struct {
	// UpTill deletes server messages below the id and converts the
	// boundary into a history-cleared notice. Zero clears everything.
	UpTill models.MsgID `json:"up_till,omitempty"`
	// Unload drops loaded blocks only, keeping counters and summary.
	Unload bool `json:"unload,omitempty"`
}

// ClearConversation clears or unloads a conversation's history.
func (h *Handlers) ClearConversation(w http.ResponseWriter, r *http.Request) {
	var req clearReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withConv(w, r, func(t *timeline.Timeline) error {
		id := t.Info().ID
		switch {
		case req.Unload:
			t.UnloadBlocks()
		case req.UpTill != 0:
			t.ClearUpTill(req.UpTill)
			if n, err := store.DeleteMessagesBelow(id, req.UpTill); err != nil {
				logger.Warn("store_clear_failed", "conv", id, "error", err.Error())
			} else {
				logger.Info("history_cleared_up_till", "conv", id, "up_till", int64(req.UpTill), "deleted", n)
			}
		default:
			t.Clear(timeline.ClearHistory)
			if _, err := store.DeleteMessagesBelow(id, models.ServerMaxID); err != nil {
				logger.Warn("store_clear_failed", "conv", id, "error", err.Error())
			}
		}
		httpx.WriteJSON(w, http.StatusOK, t.Summary(h.now()))
		return nil
	})
}
