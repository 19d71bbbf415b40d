package timeline

import (
	"timelined/pkg/logger"
	"timelined/pkg/models"
)

// UnreadMentionType tells AddToUnreadMentions whether the id belongs to
// a message that just arrived or to one that existed before.
type UnreadMentionType int

const (
	MentionNew UnreadMentionType = iota
	MentionExisting
)

// mentionsList tracks unread-mention ids in arrival order next to the
// server's count, which may exceed what is loaded locally.
type mentionsList struct {
	ids   map[models.MsgID]struct{}
	order []models.MsgID
	count optInt
}

func (m *mentionsList) has(id models.MsgID) bool {
	_, ok := m.ids[id]
	return ok
}

func (m *mentionsList) insert(id models.MsgID) {
	if m.ids == nil {
		m.ids = make(map[models.MsgID]struct{})
	}
	if m.has(id) {
		return
	}
	m.ids[id] = struct{}{}
	m.order = append(m.order, id)
}

func (m *mentionsList) erase(id models.MsgID) bool {
	if !m.has(id) {
		return false
	}
	delete(m.ids, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// InboxRead advances the incoming read cursor through upTo. A zero
// upTo reads through everything currently readable. stillUnread, when
// the caller knows it, overrides local counting.
func (t *Timeline) InboxRead(upTo models.MsgID, stillUnread *int) {
	if upTo == 0 {
		if upTo = t.MsgIDForRead(); upTo == 0 {
			return
		}
	}
	if stillUnread != nil && t.loadedAtBottom {
		t.SetUnreadCount(*stillUnread)
	} else if count, ok := t.countStillUnreadLocal(upTo); ok {
		t.SetUnreadCount(count)
	}
	t.setInboxReadTill(upTo)
	t.firstUnread = nil
}

// InboxReadItem is InboxRead positioned at a loaded item.
func (t *Timeline) InboxReadItem(it *Item) {
	t.InboxRead(it.ID(), nil)
}

// OutboxRead advances the outgoing read cursor through upTo and clears
// the unread flag on loaded outgoing messages the peer has now seen.
func (t *Timeline) OutboxRead(upTo models.MsgID) {
	if upTo == 0 {
		upTo = t.MsgIDForRead()
	}
	t.setOutboxReadTill(upTo)
	for i := len(t.blocks) - 1; i >= 0; i-- {
		for j := len(t.blocks[i].items) - 1; j >= 0; j-- {
			it := t.blocks[i].items[j]
			if it.Data.Out && it.ID().IsServer() && it.ID() <= upTo {
				it.Data.Unread = false
			}
		}
	}
}

// OutboxReadItem is OutboxRead positioned at a loaded item.
func (t *Timeline) OutboxReadItem(it *Item) {
	t.OutboxRead(it.ID())
}

// setInboxReadTill accumulates the cursor: it never moves backwards.
func (t *Timeline) setInboxReadTill(upTo models.MsgID) {
	if v, ok := t.inboxReadBefore.get(); !ok || upTo+1 > v {
		t.inboxReadBefore.set(upTo + 1)
	}
}

func (t *Timeline) setOutboxReadTill(upTo models.MsgID) {
	if v, ok := t.outboxReadBefore.get(); !ok || upTo+1 > v {
		t.outboxReadBefore.set(upTo + 1)
	}
}

// InboxReadTill returns the highest incoming id known read, ok=false
// until any inbox read state is known.
func (t *Timeline) InboxReadTill() (models.MsgID, bool) {
	if v, ok := t.inboxReadBefore.get(); ok {
		return v - 1, true
	}
	return 0, false
}

// OutboxReadTill returns the highest outgoing id known read.
func (t *Timeline) OutboxReadTill() (models.MsgID, bool) {
	if v, ok := t.outboxReadBefore.get(); ok {
		return v - 1, true
	}
	return 0, false
}

// IsServerSideUnread reports whether the message sits past the relevant
// read cursor. Unknown cursors count as unread.
func (t *Timeline) IsServerSideUnread(msg *models.Message) bool {
	if !msg.ID.IsServer() {
		return false
	}
	if msg.Out {
		v, ok := t.outboxReadBefore.get()
		return !ok || msg.ID >= v
	}
	v, ok := t.inboxReadBefore.get()
	return !ok || msg.ID >= v
}

// UnreadCount returns the unread counter, ok=false when not yet known.
func (t *Timeline) UnreadCount() (int, bool) {
	return t.unreadCount.get()
}

// UnreadCountOrZero is UnreadCount collapsed for display.
func (t *Timeline) UnreadCountOrZero() int {
	return t.unreadCount.or(0)
}

// SetUnreadCount installs an authoritative unread count and realigns
// the first-unread pointer and the inbox cursor with it.
func (t *Timeline) SetUnreadCount(count int) {
	if count < 0 {
		count = 0
	}
	if v, ok := t.unreadCount.get(); ok && v == count {
		return
	}
	t.unreadCount.set(count)
	switch {
	case count == 1:
		if t.loadedAtBottom {
			t.firstUnread = t.lastItem()
		}
		if last := t.MsgIDForRead(); last != 0 {
			t.setInboxReadTill(last - 1)
		}
	case count == 0:
		t.firstUnread = nil
		if last := t.MsgIDForRead(); last != 0 {
			t.setInboxReadTill(last)
		}
	default:
		if t.firstUnread == nil && t.loadedAtBottom {
			t.calculateFirstUnreadMessage()
		}
	}
}

// ChangeUnreadCount shifts a known unread counter, clamping at zero.
func (t *Timeline) ChangeUnreadCount(delta int) {
	if v, ok := t.unreadCount.get(); ok {
		t.SetUnreadCount(v + delta)
	}
}

// UnknownMessageDeleted accounts for a deletion the timeline never
// loaded: past the inbox cursor it must have been unread.
func (t *Timeline) UnknownMessageDeleted(id models.MsgID) {
	if v, ok := t.inboxReadBefore.get(); ok && id >= v {
		t.ChangeUnreadCount(-1)
	}
}

// countUnread counts loaded incoming unread messages above upTo,
// scanning newest-first and stopping each block at the first server id
// at or below the cursor.
func (t *Timeline) countUnread(upTo models.MsgID) int {
	result := 0
	for i := len(t.blocks) - 1; i >= 0; i-- {
		items := t.blocks[i].items
		for j := len(items) - 1; j >= 0; j-- {
			it := items[j]
			if it.ID().IsServer() && it.ID() <= upTo {
				break
			}
			if !it.Data.Out && it.Data.Unread && it.ID() > upTo {
				result++
			}
		}
	}
	return result
}

// countStillUnreadLocal reports the unread count after reading through
// readTill, when the loaded span is sufficient to know it.
func (t *Timeline) countStillUnreadLocal(readTill models.MsgID) (int, bool) {
	if t.IsEmpty() {
		return 0, false
	}
	if before, ok := t.inboxReadBefore.get(); ok {
		if t.MinMsgID() <= before && t.MaxMsgID() >= readTill {
			return t.countUnread(readTill), true
		}
	}
	minID := t.MinMsgID()
	if !t.loadedAtBottom || (t.loadedAtTop && minID == 0) || minID > readTill {
		return 0, false
	}
	return t.countUnread(readTill), true
}

// FirstUnread returns the oldest loaded unread incoming item, nil when
// unknown or none.
func (t *Timeline) FirstUnread() *Item { return t.firstUnread }

// calculateFirstUnreadMessage locates the oldest incoming item at or
// past the inbox cursor. Without a cursor there is nothing to anchor on.
func (t *Timeline) calculateFirstUnreadMessage() {
	if t.firstUnread != nil {
		return
	}
	before, ok := t.inboxReadBefore.get()
	if !ok {
		return
	}
	for i := len(t.blocks) - 1; i >= 0; i-- {
		items := t.blocks[i].items
		for j := len(items) - 1; j >= 0; j-- {
			it := items[j]
			if !it.ID().IsServer() || it.Data.Out {
				continue
			}
			if it.ID() >= before {
				t.firstUnread = it
			} else {
				return
			}
		}
	}
}

// UnreadMentionsCount returns the mention counter, ok=false when the
// server never reported one.
func (t *Timeline) UnreadMentionsCount() (int, bool) {
	return t.mentions.count.get()
}

// UnreadMentionIDs returns the loaded unread-mention ids in order.
func (t *Timeline) UnreadMentionIDs() []models.MsgID {
	out := make([]models.MsgID, len(t.mentions.order))
	copy(out, t.mentions.order)
	return out
}

// SetUnreadMentionsCount installs the server's mention count. A local
// set larger than the report wins, the report is stale.
func (t *Timeline) SetUnreadMentionsCount(count int) {
	if loaded := len(t.mentions.order); loaded > count {
		logger.Warn("mention_count_below_local",
			"conv", t.info.ID, "reported", count, "local", loaded)
		count = loaded
	}
	t.mentions.count.set(count)
}

// AddToUnreadMentions records an unread mention id. With every mention
// already loaded a new one appends and bumps the count; with a partial
// set only pre-existing ids may be slotted in, a new id would reorder
// the gap.
func (t *Timeline) AddToUnreadMentions(id models.MsgID, typ UnreadMentionType) {
	if !id.IsServer() {
		return
	}
	allLoaded := false
	if count, ok := t.mentions.count.get(); ok {
		allLoaded = len(t.mentions.order) >= count
	}
	if allLoaded {
		if typ == MentionNew {
			t.mentions.insert(id)
			if count, ok := t.mentions.count.get(); ok {
				t.mentions.count.set(count + 1)
			}
		}
	} else if len(t.mentions.order) > 0 && typ != MentionNew {
		t.mentions.insert(id)
	}
}

// EraseFromUnreadMentions drops a mention id and decrements the count.
func (t *Timeline) EraseFromUnreadMentions(id models.MsgID) {
	if t.mentions.erase(id) {
		if count, ok := t.mentions.count.get(); ok && count > 0 {
			t.mentions.count.set(count - 1)
		}
	}
}

// checkAddAllToUnreadMentions rebuilds the mention set from the loaded
// messages once the whole conversation is in memory.
func (t *Timeline) checkAddAllToUnreadMentions() {
	if !t.loadedAtTop || !t.loadedAtBottom {
		return
	}
	for _, b := range t.blocks {
		for _, it := range b.items {
			if it.Data.Mention && it.Data.Unread && !it.Data.Out {
				t.mentions.insert(it.ID())
			}
		}
	}
	t.mentions.count.set(len(t.mentions.order))
}
