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

type addMessageReq struct {
	Message models.Message `json:"message"`
	// Type is "unread" (default for incoming), "last" for
	// already-read arrivals, or "existing" to register without
	// attaching.
	Type string `json:"type,omitempty"`
}

func parseNewMessageType(s string) (timeline.NewMessageType, bool) {
	switch s {
	case "", "unread":
		return timeline.NewMessageUnread, true
	case "last":
		return timeline.NewMessageLast, true
	case "existing":
		return timeline.NewMessageExisting, true
	}
	return 0, false
}

// AddMessage ingests one message at the bottom edge.
func (h *Handlers) AddMessage(w http.ResponseWriter, r *http.Request) {
	var req addMessageReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	typ, ok := parseNewMessageType(req.Type)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "invalid message type")
		return
	}
	if req.Message.ID == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "message id required")
		return
	}
	h.withConv(w, r, func(t *timeline.Timeline) error {
		it := t.AddNewMessage(req.Message, typ)
		telemetry.MessagesIngested.WithLabelValues(req.Type).Inc()
		id := t.Info().ID
		if req.Message.ID.IsServer() {
			if err := store.SaveMessage(id, it.Data); err != nil {
				logger.Warn("message_save_failed", "conv", id, "msg", int64(req.Message.ID), "error", err.Error())
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"message":  it.Data,
			"attached": it.Block() != nil,
			"summary":  t.Summary(h.now()),
		})
		return nil
	})
}

// GetMessages serves a page of messages newest-first, from memory
// when loaded, falling back to the store.
func (h *Handlers) GetMessages(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	before := queryID(r, "before_id")
	h.withConv(w, r, func(t *timeline.Timeline) error {
		msgs := t.Slice(limit, before)
		source := "memory"
		if len(msgs) < limit && !t.LoadedAtTop() {
			oldest := before
			if len(msgs) > 0 {
				oldest = msgs[len(msgs)-1].ID
			}
			stored, err := store.ListMessages(t.Info().ID, limit-len(msgs), oldest)
			if err == nil && len(stored) > 0 {
				msgs = append(msgs, stored...)
				source = "memory+store"
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"messages": msgs,
			"source":   source,
		})
		return nil
	})
}

type sliceReq struct {
	// Messages are delivered newest-first, the order a history fetch
	// returns them. An empty slice marks the edge reached.
	Messages []models.Message `json:"messages"`
}

// AddOlderSlice attaches a fetched page in front of the loaded span.
func (h *Handlers) AddOlderSlice(w http.ResponseWriter, r *http.Request) {
	var req sliceReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withConv(w, r, func(t *timeline.Timeline) error {
		t.AddOlderSlice(req.Messages)
		telemetry.SlicesAttached.WithLabelValues("older").Inc()
		h.persistSlice(t.Info().ID, req.Messages)
		httpx.WriteJSON(w, http.StatusOK, sliceResult(t))
		return nil
	})
}

// AddNewerSlice attaches a fetched page behind the loaded span.
func (h *Handlers) AddNewerSlice(w http.ResponseWriter, r *http.Request) {
	var req sliceReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withConv(w, r, func(t *timeline.Timeline) error {
		t.AddNewerSlice(req.Messages)
		telemetry.SlicesAttached.WithLabelValues("newer").Inc()
		h.persistSlice(t.Info().ID, req.Messages)
		httpx.WriteJSON(w, http.StatusOK, sliceResult(t))
		return nil
	})
}

func (h *Handlers) persistSlice(convID int64, msgs []models.Message) {
	server := msgs[:0:0]
	for _, m := range msgs {
		if m.ID.IsServer() {
			server = append(server, m)
		}
	}
	if len(server) == 0 {
		return
	}
	if err := store.SaveMessages(convID, server); err != nil {
		logger.Warn("slice_save_failed", "conv", convID, "count", len(server), "error", err.Error())
	}
}

func sliceResult(t *timeline.Timeline) map[string]any {
	return map[string]any{
		"loaded_at_top":    t.LoadedAtTop(),
		"loaded_at_bottom": t.LoadedAtBottom(),
		"loaded":           t.Size(),
		"blocks":           t.BlockSizes(),
	}
}

type editMessageReq struct {
	Content models.Content `json:"content"`
}

// EditMessage replaces a message's content.
func (h *Handlers) EditMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := msgID(r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	var req editMessageReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withConv(w, r, func(t *timeline.Timeline) error {
		if !t.EditMessage(id, req.Content) {
			httpx.WriteError(w, http.StatusNotFound, "message not found")
			return nil
		}
		if it := t.Lookup(id); it != nil && id.IsServer() {
			if err := store.SaveMessage(t.Info().ID, it.Data); err != nil {
				logger.Warn("message_save_failed", "conv", t.Info().ID, "msg", int64(id), "error", err.Error())
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]bool{"edited": true})
		return nil
	})
}

// DeleteMessage removes a message. Ids never loaded still adjust the
// unread count when they sit past the inbox cursor.
func (h *Handlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := msgID(r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	h.withConv(w, r, func(t *timeline.Timeline) error {
		removed := t.RemoveMessage(id)
		if !removed {
			t.UnknownMessageDeleted(id)
		}
		convID := t.Info().ID
		h.Media.OnMessageRemoved(convID, id)
		if id.IsServer() {
			if err := store.DeleteMessage(convID, id); err != nil {
				logger.Warn("message_delete_failed", "conv", convID, "msg", int64(id), "error", err.Error())
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"removed": removed,
			"summary": t.Summary(h.now()),
		})
		return nil
	})
}

// GetRange reports the loaded span for gap-fill fetches.
func (h *Handlers) GetRange(w http.ResponseWriter, r *http.Request) {
	h.withConv(w, r, func(t *timeline.Timeline) error {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"range":            t.RangeForDifferenceRequest(),
			"min_msg_id":       t.MinMsgID(),
			"max_msg_id":       t.MaxMsgID(),
			"msg_id_for_read":  t.MsgIDForRead(),
			"loaded_at_top":    t.LoadedAtTop(),
			"loaded_at_bottom": t.LoadedAtBottom(),
			"blocks":           t.BlockSizes(),
		})
		return nil
	})
}
