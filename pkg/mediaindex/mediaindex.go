// Package mediaindex keeps a per-conversation index of media-bearing
// messages so shared-media pages can be served without walking the
// timeline blocks. It implements the timeline engine's MediaIndex
// callback interface.
package mediaindex

import (
	"sort"
	"sync"

	"timelined/pkg/models"
	"timelined/pkg/timeline"
)

type convIndex struct {
	byType map[models.MediaType][]models.MsgID
	loaded timeline.IDRange
}

// Index is safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	convs map[int64]*convIndex
}

func New() *Index {
	return &Index{convs: make(map[int64]*convIndex)}
}

// OnMessagesAdded merges media ids from an attached span and widens
// the known-covered range.
func (x *Index) OnMessagesAdded(convID int64, msgs []models.Message, loaded timeline.IDRange) {
	x.mu.Lock()
	defer x.mu.Unlock()
	c := x.convs[convID]
	if c == nil {
		c = &convIndex{byType: make(map[models.MediaType][]models.MsgID)}
		x.convs[convID] = c
	}
	for _, m := range msgs {
		if !m.HasMedia() || !m.ID.IsServer() {
			continue
		}
		c.byType[m.Content.Media.Type] = insertSorted(c.byType[m.Content.Media.Type], m.ID)
	}
	if loaded.From != 0 || loaded.Till != 0 {
		if c.loaded.From == 0 || (loaded.From != 0 && loaded.From < c.loaded.From) {
			c.loaded.From = loaded.From
		}
		if loaded.Till > c.loaded.Till {
			c.loaded.Till = loaded.Till
		}
	}
}

// OnBottomInvalidated withdraws the claim that the index covers
// through the newest message: the bottom edge was unloaded.
func (x *Index) OnBottomInvalidated(convID int64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	c := x.convs[convID]
	if c == nil {
		return
	}
	var max models.MsgID
	for _, ids := range c.byType {
		if n := len(ids); n > 0 && ids[n-1] > max {
			max = ids[n-1]
		}
	}
	c.loaded.Till = max
}

// OnMessageRemoved drops a deleted message from the index.
func (x *Index) OnMessageRemoved(convID int64, id models.MsgID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	c := x.convs[convID]
	if c == nil {
		return
	}
	for typ, ids := range c.byType {
		i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
		if i < len(ids) && ids[i] == id {
			c.byType[typ] = append(ids[:i], ids[i+1:]...)
		}
	}
}

// Page is one shared-media query result.
type Page struct {
	IDs []models.MsgID `json:"ids"`
	// Covered reports whether the returned span falls inside the range
	// the index has seen; outside it, holes are possible.
	Covered bool `json:"covered"`
}

// Query returns up to limit ids of the given type strictly below
// beforeID (all when 0), newest-first.
func (x *Index) Query(convID int64, typ models.MediaType, limit int, beforeID models.MsgID) Page {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	c := x.convs[convID]
	if c == nil {
		return Page{}
	}
	ids := c.byType[typ]
	hi := len(ids)
	if beforeID != 0 {
		hi = sort.Search(len(ids), func(i int) bool { return ids[i] >= beforeID })
	}
	out := make([]models.MsgID, 0, limit)
	for i := hi - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, ids[i])
	}
	covered := c.loaded.From != 0
	if covered && len(out) > 0 {
		covered = out[len(out)-1] >= c.loaded.From
	}
	return Page{IDs: out, Covered: covered}
}

// Counts returns per-type totals for a conversation.
func (x *Index) Counts(convID int64) map[models.MediaType]int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make(map[models.MediaType]int)
	if c := x.convs[convID]; c != nil {
		for typ, ids := range c.byType {
			out[typ] = len(ids)
		}
	}
	return out
}

// Forget drops a conversation from the index.
func (x *Index) Forget(convID int64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.convs, convID)
}

func insertSorted(ids []models.MsgID, id models.MsgID) []models.MsgID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
