package handlers

import (
	"net/http"

	"timelined/pkg/httpx"
	"timelined/pkg/models"
	"timelined/pkg/telemetry"
	"timelined/pkg/timeline"
)

type readReq struct {
	UpTo models.MsgID `json:"up_to"`
	// StillUnread, when the caller knows it, overrides local counting.
	StillUnread *int `json:"still_unread,omitempty"`
}

// ReadInbox advances the incoming read cursor.
func (h *Handlers) ReadInbox(w http.ResponseWriter, r *http.Request) {
	var req readReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withConv(w, r, func(t *timeline.Timeline) error {
		t.InboxRead(req.UpTo, req.StillUnread)
		telemetry.ReadsApplied.WithLabelValues("inbox").Inc()
		httpx.WriteJSON(w, http.StatusOK, readState(t))
		return nil
	})
}

// ReadOutbox advances the outgoing read cursor.
func (h *Handlers) ReadOutbox(w http.ResponseWriter, r *http.Request) {
	var req readReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withConv(w, r, func(t *timeline.Timeline) error {
		t.OutboxRead(req.UpTo)
		telemetry.ReadsApplied.WithLabelValues("outbox").Inc()
		httpx.WriteJSON(w, http.StatusOK, readState(t))
		return nil
	})
}

// GetUnread reports the unread accounting for a conversation.
func (h *Handlers) GetUnread(w http.ResponseWriter, r *http.Request) {
	h.withConv(w, r, func(t *timeline.Timeline) error {
		httpx.WriteJSON(w, http.StatusOK, readState(t))
		return nil
	})
}

func readState(t *timeline.Timeline) map[string]any {
	out := map[string]any{
		"chat_list_unread_count": t.ChatListUnreadCount(),
		"mention_ids":            t.UnreadMentionIDs(),
	}
	if v, ok := t.UnreadCount(); ok {
		out["unread_count"] = v
	}
	if v, ok := t.UnreadMentionsCount(); ok {
		out["mentions_count"] = v
	}
	if v, ok := t.InboxReadTill(); ok {
		out["inbox_read_till"] = v
	}
	if v, ok := t.OutboxReadTill(); ok {
		out["outbox_read_till"] = v
	}
	if first := t.FirstUnread(); first != nil {
		out["first_unread_id"] = first.ID()
	}
	return out
}

type dialogReq struct {
	Entry models.DialogEntry `json:"entry"`
}

// ApplyDialog folds a server dialog entry into the conversation.
func (h *Handlers) ApplyDialog(w http.ResponseWriter, r *http.Request) {
	var req dialogReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withConv(w, r, func(t *timeline.Timeline) error {
		t.ApplyDialog(req.Entry)
		httpx.WriteJSON(w, http.StatusOK, t.Summary(h.now()))
		return nil
	})
}
