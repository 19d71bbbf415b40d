// Package handlers implements the /v1 HTTP API over the timeline
// registry, the media index and the store.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"timelined/pkg/httpx"
	"timelined/pkg/mediaindex"
	"timelined/pkg/models"
	"timelined/pkg/store"
	"timelined/pkg/timeline"
)

type Handlers struct {
	Reg   *timeline.Registry
	Media *mediaindex.Index
	Clock timeline.Clock
}

func New(reg *timeline.Registry, media *mediaindex.Index, clock timeline.Clock) *Handlers {
	return &Handlers{Reg: reg, Media: media, Clock: clock}
}

func (h *Handlers) now() time.Time { return h.Clock.Now() }

func convID(r *http.Request) (int64, bool) {
	raw, ok := mux.Vars(r)["id"]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func msgID(r *http.Request) (models.MsgID, bool) {
	raw, ok := mux.Vars(r)["msgId"]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return models.MsgID(id), true
}

func queryInt(r *http.Request, key string, def int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

func queryID(r *http.Request, key string) models.MsgID {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return models.MsgID(v)
		}
	}
	return 0
}

// ensure makes the conversation live in the registry, warming it from
// the store when a snapshot exists.
func (h *Handlers) ensure(id int64) bool {
	if h.Reg.Has(id) {
		return true
	}
	snap, ok, err := store.LoadSnapshot(id)
	if err != nil || !ok {
		return false
	}
	h.Reg.Upsert(snap.Info, func(t *timeline.Timeline) {
		t.ApplyDialog(snap.Dialog)
		if snap.LocalDraft != nil {
			t.SetLocalDraft(snap.LocalDraft)
		}
		if snap.EditDraft != nil {
			t.SetEditDraft(snap.EditDraft)
		}
	})
	return true
}

// withConv resolves the conversation or writes the 404.
func (h *Handlers) withConv(w http.ResponseWriter, r *http.Request, fn func(*timeline.Timeline) error) {
	id, ok := convID(r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}
	if !h.ensure(id) {
		httpx.WriteError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err := h.Reg.With(id, fn); err != nil {
		if err == timeline.ErrNotFound {
			httpx.WriteError(w, http.StatusNotFound, "conversation not found")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
