package handlers

import (
	"net/http"

	"timelined/pkg/httpx"
	"timelined/pkg/models"
	"timelined/pkg/timeline"
)

type draftsView struct {
	Local *models.Draft `json:"local,omitempty"`
	Cloud *models.Draft `json:"cloud,omitempty"`
	Edit  *models.Draft `json:"edit,omitempty"`
}

func draftView(t *timeline.Timeline) draftsView {
	return draftsView{
		Local: t.LocalDraft().Clone(),
		Cloud: t.CloudDraft().Clone(),
		Edit:  t.EditDraft().Clone(),
	}
}

// GetDrafts returns the three draft slots.
func (h *Handlers) GetDrafts(w http.ResponseWriter, r *http.Request) {
	h.withConv(w, r, func(t *timeline.Timeline) error {
		httpx.WriteJSON(w, http.StatusOK, draftView(t))
		return nil
	})
}

type putDraftReq struct {
	// Slot is "local", "cloud" or "edit"; empty means local.
	Slot  string        `json:"slot,omitempty"`
	Draft *models.Draft `json:"draft"`
}

// PutDraft writes one draft slot. Cloud writes go through the save
// path so later cloud echoes inside the debounce window are ignored.
func (h *Handlers) PutDraft(w http.ResponseWriter, r *http.Request) {
	var req putDraftReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withConv(w, r, func(t *timeline.Timeline) error {
		switch req.Slot {
		case "", "local":
			t.SetLocalDraft(req.Draft.Clone())
		case "cloud":
			t.CreateCloudDraft(req.Draft)
			t.ApplyCloudDraft()
		case "edit":
			t.SetEditDraft(req.Draft.Clone())
		default:
			httpx.WriteError(w, http.StatusBadRequest, "invalid draft slot")
			return nil
		}
		httpx.WriteJSON(w, http.StatusOK, draftView(t))
		return nil
	})
}

// DeleteDraft clears one draft slot, or all when slot is "all".
func (h *Handlers) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	slot := r.URL.Query().Get("slot")
	h.withConv(w, r, func(t *timeline.Timeline) error {
		switch slot {
		case "", "local":
			t.ClearLocalDraft()
		case "cloud":
			t.ClearCloudDraft()
		case "edit":
			t.ClearEditDraft()
		case "all":
			t.ClearLocalDraft()
			t.ClearCloudDraft()
			t.ClearEditDraft()
		default:
			httpx.WriteError(w, http.StatusBadRequest, "invalid draft slot")
			return nil
		}
		httpx.WriteJSON(w, http.StatusOK, draftView(t))
		return nil
	})
}

type sentDraftReq struct {
	Text string `json:"text"`
	// Clear marks the send settled instead of recording it.
	Clear bool `json:"clear,omitempty"`
}

// SentDraft records or settles the text of a just-dispatched message
// so the cloud echo of it gets suppressed.
func (h *Handlers) SentDraft(w http.ResponseWriter, r *http.Request) {
	var req sentDraftReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.withConv(w, r, func(t *timeline.Timeline) error {
		if req.Clear {
			t.ClearSentDraftText(req.Text)
		} else {
			t.SetSentDraftText(req.Text)
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return nil
	})
}
