package handlers

import (
	"net/http"

	"timelined/pkg/httpx"
	"timelined/pkg/models"
	"timelined/pkg/timeline"
)

// GetMedia pages the shared-media index for one conversation.
func (h *Handlers) GetMedia(w http.ResponseWriter, r *http.Request) {
	typ := models.MediaType(r.URL.Query().Get("type"))
	switch typ {
	case models.MediaPhoto, models.MediaVideo, models.MediaFile,
		models.MediaVoice, models.MediaLink:
	default:
		httpx.WriteError(w, http.StatusBadRequest, "invalid media type")
		return
	}
	limit := queryInt(r, "limit", 50)
	before := queryID(r, "before_id")
	h.withConv(w, r, func(t *timeline.Timeline) error {
		page := h.Media.Query(t.Info().ID, typ, limit, before)
		httpx.WriteJSON(w, http.StatusOK, page)
		return nil
	})
}

// GetMediaCounts returns per-type media totals.
func (h *Handlers) GetMediaCounts(w http.ResponseWriter, r *http.Request) {
	h.withConv(w, r, func(t *timeline.Timeline) error {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"counts": h.Media.Counts(t.Info().ID),
		})
		return nil
	})
}
