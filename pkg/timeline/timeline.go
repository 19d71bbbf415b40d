package timeline

import (
	"timelined/pkg/logger"
	"timelined/pkg/models"
)

// NewMessageType tells AddNewMessage how the message reached us.
type NewMessageType int

const (
	// NewMessageUnread is a fresh incoming message the user has not seen.
	NewMessageUnread NewMessageType = iota
	// NewMessageLast is a fresh message already counted as read, e.g.
	// one the user just sent.
	NewMessageLast
	// NewMessageExisting registers the message without appending it to
	// the loaded span; it may be attached later by a slice fetch.
	NewMessageExisting
)

// ClearType selects how much of the timeline Clear drops.
type ClearType int

const (
	// ClearUnload frees the loaded blocks but keeps all counters and
	// summary state; the history can be reloaded.
	ClearUnload ClearType = iota
	// ClearHistory wipes the messages for good, leaving an empty but
	// fully-loaded conversation.
	ClearHistory
	// ClearDelete wipes everything including drafts and the summary.
	ClearDelete
)

// IDRange is a half-open-ended span of server message ids.
type IDRange struct {
	From models.MsgID `json:"from"`
	Till models.MsgID `json:"till"`
}

// Timeline is the in-memory state of one conversation: the loaded
// block span, read and unread accounting, drafts, peer activity and
// the chat-list summary. Methods are not safe for concurrent use; the
// owning Registry serializes access.
type Timeline struct {
	reg  *Registry
	info models.ConversationInfo

	blocks   []*Block
	building *frontBlockBuilder
	byID     map[models.MsgID]*Item

	loadedAtTop    bool
	loadedAtBottom bool

	lastMessage     maybeItem
	chatListMessage maybeItem

	inboxReadBefore  optID
	outboxReadBefore optID
	unreadCount      optInt
	firstUnread      *Item
	mentions         mentionsList

	joinedMessage *Item
	lastAuthors   []int64

	drafts   draftState
	presence presenceState

	pendingNotifies []*Item
}

func newTimeline(reg *Registry, info models.ConversationInfo) *Timeline {
	return &Timeline{
		reg:  reg,
		info: info,
		byID: make(map[models.MsgID]*Item),
	}
}

// Info returns the conversation metadata.
func (t *Timeline) Info() models.ConversationInfo { return t.info }

// UpdateInfo replaces mutable conversation metadata, keeping identity.
func (t *Timeline) UpdateInfo(info models.ConversationInfo) {
	info.ID = t.info.ID
	t.info = info
}

// IsEmpty reports whether no items are loaded.
func (t *Timeline) IsEmpty() bool {
	for _, b := range t.blocks {
		if len(b.items) > 0 {
			return false
		}
	}
	return true
}

// Size returns the number of loaded items.
func (t *Timeline) Size() int {
	n := 0
	for _, b := range t.blocks {
		n += len(b.items)
	}
	return n
}

// LoadedAtTop reports whether the oldest message is loaded.
func (t *Timeline) LoadedAtTop() bool { return t.loadedAtTop }

// LoadedAtBottom reports whether the newest message is loaded.
func (t *Timeline) LoadedAtBottom() bool { return t.loadedAtBottom }

// Lookup returns the loaded or registered item for an id.
func (t *Timeline) Lookup(id models.MsgID) *Item { return t.byID[id] }

func (t *Timeline) now() int64 { return t.reg.clock.Now().Unix() }

// createItem registers a message, reusing the known item for its id.
// detachExisting pulls an already-placed item out of its block so the
// caller can re-place it.
func (t *Timeline) createItem(msg models.Message, detachExisting bool) *Item {
	if existing := t.byID[msg.ID]; existing != nil {
		if detachExisting && existing.attached() {
			existing.block.remove(existing)
		}
		return existing
	}
	msg.ConvID = t.info.ID
	it := &Item{Data: msg}
	t.byID[msg.ID] = it
	return it
}

// createItems registers a slice delivered newest-first and returns the
// items oldest-first, ready for placement.
func (t *Timeline) createItems(msgs []models.Message) []*Item {
	out := make([]*Item, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, t.createItem(msgs[i], false))
	}
	return out
}

// AddNewMessage ingests one message at the bottom edge. When the
// bottom is not loaded, or the conversation has migrated away, the
// message is registered and reflected in the summary without being
// placed into blocks.
func (t *Timeline) AddNewMessage(msg models.Message, typ NewMessageType) *Item {
	if typ == NewMessageExisting {
		return t.createItem(msg, false)
	}
	if !t.loadedAtBottom || t.migrateTo() != nil {
		it := t.createItem(msg, false)
		t.setLastMessageItem(it)
		if typ == NewMessageUnread {
			t.newItemAdded(it)
		}
		return it
	}
	return t.addNewToBack(t.createItem(msg, true), typ == NewMessageUnread)
}

// addNewToBack appends a registered item to the loaded bottom edge.
func (t *Timeline) addNewToBack(it *Item, unread bool) *Item {
	if it.attached() {
		return it
	}
	t.addItemToBlock(it)
	if it.ID().IsServer() && it.Data.HasMedia() {
		till := it.ID()
		if t.loadedAtBottom {
			till = models.ServerMaxID
		}
		t.reg.media.OnMessagesAdded(t.info.ID, []models.Message{it.Data}, IDRange{From: it.ID(), Till: till})
	}
	t.touchLastAuthor(it)
	t.setLastMessageItem(it)
	if unread {
		t.newItemAdded(it)
	}
	t.checkForLoadedAtTop(it)
	return it
}

// newItemAdded reacts to a freshly-arrived message: activity resolves,
// cursors and counters move, notifications queue up.
func (t *Timeline) newItemAdded(it *Item) {
	if it.Data.AuthorID != 0 {
		t.clearSendAction(it.Data.AuthorID)
	}
	switch {
	case it.Data.Out:
		if !it.Data.Unread {
			t.OutboxReadItem(it)
		}
	case it.Data.Unread:
		if it.Data.Mention {
			t.AddToUnreadMentions(it.ID(), MentionNew)
		}
		t.ChangeUnreadCount(1)
		if t.firstUnread == nil && t.loadedAtBottom && it.attached() {
			t.firstUnread = it
		}
		t.pushNotification(it)
	default:
		t.InboxReadItem(it)
	}
}

// checkForLoadedAtTop detects that the true start of the conversation
// just got appended.
func (t *Timeline) checkForLoadedAtTop(added *Item) {
	switch t.info.Kind {
	case models.ConvGroup:
		if added.Data.IsGroupEssential() && !added.Data.IsGroupMigrate() {
			t.loadedAtTop = true
			t.addEdgesToSharedMedia()
		}
	case models.ConvSupergroup:
		if added.ID() == 1 {
			t.loadedAtTop = true
			t.checkJoinedMessage()
			t.addEdgesToSharedMedia()
		}
	}
}

// AddOlderSlice attaches a fetch of older messages, delivered
// newest-first, in front of the loaded span. An empty slice marks the
// top edge reached.
func (t *Timeline) AddOlderSlice(msgs []models.Message) {
	if len(msgs) == 0 {
		t.loadedAtTop = true
		t.checkJoinedMessage()
		return
	}
	added := t.createItems(msgs)
	placed := 0
	t.startBuildingFrontBlock(len(added))
	for _, it := range added {
		if it.attached() {
			continue
		}
		t.addItemToBuildingBlock(it)
		placed++
	}
	t.finishBuildingFrontBlock()
	if placed > 0 {
		if t.loadedAtBottom {
			t.addItemsToLists(added)
		}
		t.addToSharedMedia(added)
	}
	t.checkJoinedMessage()
	t.checkLastMessage()
}

// AddNewerSlice attaches a fetch of newer messages, delivered
// newest-first, behind the loaded span. An empty slice marks the
// bottom edge reached.
func (t *Timeline) AddNewerSlice(msgs []models.Message) {
	wasLoaded := t.loadedAtBottom
	if len(msgs) == 0 {
		t.loadedAtBottom = true
		if last := t.lastItem(); last != nil {
			t.setLastMessageItem(last)
		}
		t.addEdgesToSharedMedia()
	} else {
		added := t.createItems(msgs)
		placed := 0
		for _, it := range added {
			if it.attached() {
				continue
			}
			t.addItemToBlock(it)
			placed++
		}
		if placed > 0 {
			t.addToSharedMedia(added)
		}
	}
	if !wasLoaded && t.loadedAtBottom {
		t.checkAddAllToUnreadMentions()
	}
	t.checkJoinedMessage()
	t.checkLastMessage()
}

// addItemsToLists walks an attached older slice newest-first, feeding
// author recency and pre-existing unread mentions.
func (t *Timeline) addItemsToLists(added []*Item) {
	for i := len(added) - 1; i >= 0; i-- {
		it := added[i]
		if it.Data.Mention && it.Data.Unread && !it.Data.Out {
			t.AddToUnreadMentions(it.ID(), MentionExisting)
		}
		if id := it.Data.AuthorID; id != 0 && t.isGroupish() && !it.Data.IsService() {
			if !containsID(t.lastAuthors, id) {
				t.lastAuthors = append(t.lastAuthors, id)
			}
		}
	}
}

func (t *Timeline) isGroupish() bool {
	return t.info.Kind == models.ConvGroup || t.info.Kind == models.ConvSupergroup
}

// touchLastAuthor promotes the author of a new message to the front of
// the recency list.
func (t *Timeline) touchLastAuthor(it *Item) {
	id := it.Data.AuthorID
	if id == 0 || !t.isGroupish() || it.Data.IsService() {
		return
	}
	for i, v := range t.lastAuthors {
		if v == id {
			copy(t.lastAuthors[1:i+1], t.lastAuthors[:i])
			t.lastAuthors[0] = id
			return
		}
	}
	t.lastAuthors = append([]int64{id}, t.lastAuthors...)
}

// RecentAuthors returns group member ids by message recency.
func (t *Timeline) RecentAuthors() []int64 {
	out := make([]int64, len(t.lastAuthors))
	copy(out, t.lastAuthors)
	return out
}

func containsID(s []int64, id int64) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// addToSharedMedia reports an attached span to the media index with
// the range the loaded edges now cover.
func (t *Timeline) addToSharedMedia(added []*Item) {
	var msgs []models.Message
	for _, it := range added {
		if it.ID().IsServer() && it.Data.HasMedia() {
			msgs = append(msgs, it.Data)
		}
	}
	if len(msgs) == 0 {
		return
	}
	t.reg.media.OnMessagesAdded(t.info.ID, msgs, t.sharedMediaRange())
}

// addEdgesToSharedMedia widens the index range after an edge was
// reached without new media.
func (t *Timeline) addEdgesToSharedMedia() {
	t.reg.media.OnMessagesAdded(t.info.ID, nil, t.sharedMediaRange())
}

func (t *Timeline) sharedMediaRange() IDRange {
	r := IDRange{From: t.MinMsgID(), Till: t.MaxMsgID()}
	if t.loadedAtTop {
		r.From = 1
	}
	if t.loadedAtBottom {
		r.Till = models.ServerMaxID
	}
	return r
}

// MarkFullyLoaded declares the conversation completely in memory, used
// for freshly-created conversations with no history.
func (t *Timeline) MarkFullyLoaded() {
	t.loadedAtTop = true
	t.loadedAtBottom = true
	if _, known := t.unreadCount.get(); !known {
		upTo := models.MsgID(0)
		if v, ok := t.inboxReadBefore.get(); ok {
			upTo = v - 1
		}
		t.SetUnreadCount(t.countUnread(upTo))
	}
	t.checkAddAllToUnreadMentions()
	t.checkJoinedMessage()
	t.checkLastMessage()
	t.addEdgesToSharedMedia()
}

// lastAvailableMessage returns the newest loaded item.
func (t *Timeline) lastAvailableMessage() *Item { return t.lastItem() }

// LastMessage returns the newest message of the conversation, loaded
// or not, ok=false while unknown.
func (t *Timeline) LastMessage() (*models.Message, bool) {
	if !t.lastMessage.valueKnown() {
		return nil, false
	}
	if it := t.lastMessage.value(); it != nil {
		return &it.Data, true
	}
	return nil, true
}

// setLastMessageItem records the newest message and cascades into the
// chat-list summary when that was already resolved.
func (t *Timeline) setLastMessageItem(it *Item) {
	if t.lastMessage.is(it) {
		return
	}
	if it == nil {
		t.lastMessage.setNone()
	} else {
		t.lastMessage.set(it)
	}
	if t.chatListMessage.valueKnown() {
		t.setChatListMessageFromLast()
	}
}

// ClearLastMessage forgets the summary entirely, forcing a re-request.
func (t *Timeline) ClearLastMessage() {
	t.lastMessage.reset()
	t.chatListMessage.reset()
}

// checkLastMessage reconciles the known last message with the loaded
// bottom edge.
func (t *Timeline) checkLastMessage() {
	if last := t.lastMessage.value(); t.lastMessage.valueKnown() && last != nil {
		if !t.loadedAtBottom && last.attached() {
			t.loadedAtBottom = true
			t.checkAddAllToUnreadMentions()
			t.addEdgesToSharedMedia()
		}
	} else if t.loadedAtBottom {
		if it := t.lastAvailableMessage(); it != nil {
			t.setLastMessageItem(it)
		}
	}
}

// ChatListMessage returns the message the chat list shows for this
// conversation, ok=false while unresolved.
func (t *Timeline) ChatListMessage() (*models.Message, bool) {
	if !t.chatListMessage.valueKnown() {
		return nil, false
	}
	if it := t.chatListMessage.value(); it != nil {
		return &it.Data, true
	}
	return nil, true
}

// ChatListUnreadCount is the badge count, including the unread left
// behind in a migrated-from legacy group.
func (t *Timeline) ChatListUnreadCount() int {
	count := t.UnreadCountOrZero()
	if from := t.migrateFrom(); from != nil {
		count += from.UnreadCountOrZero()
	}
	return count
}

// setChatListMessageFromLast resolves the summary from the last
// message, walking past migration markers; failure leaves it unknown.
func (t *Timeline) setChatListMessageFromLast() {
	if it, known := t.computeChatListMessageFromLast(); known {
		t.setChatListMessage(it)
	} else {
		t.chatListMessage.reset()
	}
}

// computeChatListMessageFromLast picks what the chat list should show.
// A migrate marker is never shown: on the legacy side the message
// before it is used when loaded; on the supergroup side resolution is
// deferred to the migrated-from history.
func (t *Timeline) computeChatListMessageFromLast() (*Item, bool) {
	if !t.lastMessage.valueKnown() {
		return nil, false
	}
	last := t.lastMessage.value()
	if last == nil || !last.Data.IsGroupMigrate() {
		return last, true
	}
	if t.info.Kind == models.ConvGroup {
		prev := last.Previous()
		for prev != nil && prev.Data.IsGroupMigrate() {
			prev = prev.Previous()
		}
		if prev != nil {
			return prev, true
		}
		if last.attached() && t.loadedAtTop {
			return nil, true
		}
	}
	return nil, false
}

func (t *Timeline) setChatListMessage(it *Item) {
	if t.chatListMessage.is(it) {
		return
	}
	if it == nil {
		t.chatListMessage.setNone()
	} else {
		t.chatListMessage.set(it)
	}
}

// RequestChatListMessage resolves the summary, asking collaborators
// for whatever is missing.
func (t *Timeline) RequestChatListMessage() {
	if !t.lastMessage.valueKnown() {
		t.reg.transport.RequestDialogEntry(t.info.ID)
		return
	}
	if !t.chatListMessage.valueKnown() {
		t.setChatListMessageFromLast()
	}
	if !t.chatListMessage.valueKnown() {
		t.setFakeChatListMessage()
	}
}

// setFakeChatListMessage fills the summary when the last message is a
// migrate marker with nothing loaded before it.
func (t *Timeline) setFakeChatListMessage() {
	switch t.info.Kind {
	case models.ConvGroup:
		// the message before the marker must be fetched
		before := models.MsgID(0)
		if last := t.lastMessage.value(); last != nil {
			before = last.ID()
		}
		t.reg.transport.RequestOlderMessages(t.info.ID, before, 1)
	case models.ConvSupergroup:
		from := t.migrateFrom()
		if from == nil {
			return
		}
		if !from.chatListMessage.valueKnown() {
			from.RequestChatListMessage()
		}
		if from.chatListMessage.valueKnown() {
			t.setChatListMessage(from.chatListMessage.value())
		}
	}
}

// RefreshChatListMessage recomputes the summary from scratch.
func (t *Timeline) RefreshChatListMessage() {
	t.chatListMessage.reset()
	t.RequestChatListMessage()
}

// ApplyDialog folds a server dialog entry into local state: counters,
// cursors, top message and cloud draft.
func (t *Timeline) ApplyDialog(entry models.DialogEntry) {
	t.applyDialogFields(entry.UnreadCount, entry.ReadInboxMaxID, entry.ReadOutboxMaxID)
	t.applyDialogTopMessage(entry.TopMessageID)
	t.SetUnreadMentionsCount(entry.UnreadMentionsCount)
	if d := entry.Draft; d != nil {
		if !t.SkipCloudDraft(d.Text, d.ReplyToID, d.Date) {
			t.SetCloudDraft(d.Clone())
			t.ApplyCloudDraft()
		} else {
			logger.Debug("cloud_draft_skipped", "conv", t.info.ID, "date", d.Date)
		}
	}
}

// applyDialogFields trusts the server's counters unless our inbox
// cursor already moved past what the server has seen.
func (t *Timeline) applyDialogFields(unread int, maxInboxRead, maxOutboxRead models.MsgID) {
	if before, ok := t.inboxReadBefore.get(); !ok || maxInboxRead+1 >= before {
		t.SetUnreadCount(unread)
		t.setInboxReadTill(maxInboxRead)
	}
	t.setOutboxReadTill(maxOutboxRead)
}

// applyDialogTopMessage resolves the reported top message against the
// registered items. Callers ingest the accompanying messages first.
func (t *Timeline) applyDialogTopMessage(topID models.MsgID) {
	if topID != 0 {
		if it := t.byID[topID]; it != nil {
			t.setLastMessageItem(it)
		} else {
			t.setLastMessageItem(nil)
		}
	} else {
		t.setLastMessageItem(nil)
	}
	t.checkLastMessage()
}

// EditMessage replaces the content of a registered message in place.
func (t *Timeline) EditMessage(id models.MsgID, content models.Content) bool {
	it := t.byID[id]
	if it == nil {
		return false
	}
	it.Data.Content = content
	return true
}

// RemoveMessage detaches and forgets a loaded message, adjusting
// whatever state pointed at it. Returns false when the id is unknown.
func (t *Timeline) RemoveMessage(id models.MsgID) bool {
	it := t.byID[id]
	if it == nil {
		return false
	}
	t.itemRemoved(it)
	return true
}

func (t *Timeline) itemRemoved(it *Item) {
	if t.firstUnread == it {
		t.firstUnread = nil
	}
	if t.joinedMessage == it {
		t.joinedMessage = nil
	}
	t.removeNotification(it)
	t.EraseFromUnreadMentions(it.ID())
	if it.attached() {
		it.block.remove(it)
	}
	delete(t.byID, it.ID())
	if t.lastMessage.is(it) {
		t.lastMessage.reset()
		if t.loadedAtBottom {
			if last := t.lastAvailableMessage(); last != nil {
				t.setLastMessageItem(last)
			}
		}
	}
	if t.chatListMessage.is(it) {
		t.chatListMessage.reset()
		t.RefreshChatListMessage()
	}
	if !it.Data.Out && it.Data.Unread && t.IsServerSideUnread(&it.Data) {
		t.ChangeUnreadCount(-1)
	}
}

// ClearUpTill deletes every server message below availableMin and
// turns the boundary message into a history-cleared notice.
func (t *Timeline) ClearUpTill(availableMin models.MsgID) {
	var remove []*Item
	for id, it := range t.byID {
		if !id.IsServer() {
			continue
		}
		if id < availableMin {
			remove = append(remove, it)
		} else if id == availableMin {
			it.Data.Content = models.Content{Kind: models.KindService, Action: models.ActionHistoryClear}
			it.Data.Mention = false
			t.EraseFromUnreadMentions(id)
		}
	}
	for _, it := range remove {
		t.itemRemoved(it)
	}
	t.RequestChatListMessage()
}

// Clear drops loaded state according to the clear type.
func (t *Timeline) Clear(typ ClearType) {
	t.firstUnread = nil
	t.joinedMessage = nil
	t.building = nil
	for _, b := range t.blocks {
		for _, it := range b.items {
			it.detach()
		}
		b.timeline = nil
	}
	t.blocks = nil
	if typ == ClearUnload {
		if t.loadedAtBottom {
			t.reg.media.OnBottomInvalidated(t.info.ID)
		}
		t.loadedAtTop = false
		t.loadedAtBottom = false
		return
	}
	t.pendingNotifies = nil
	t.mentions = mentionsList{}
	t.byID = make(map[models.MsgID]*Item)
	t.lastAuthors = nil
	t.SetUnreadCount(0)
	t.lastMessage.setNone()
	t.chatListMessage.setNone()
	if typ == ClearDelete {
		t.drafts = draftState{}
	}
	t.loadedAtTop = true
	t.loadedAtBottom = true
}

// UnloadBlocks is Clear(ClearUnload).
func (t *Timeline) UnloadBlocks() { t.Clear(ClearUnload) }

// InsertJoinedMessage synthesizes the local "joined" notice at the
// invite date. Nothing is inserted when the join is already covered by
// the migrated-from history.
func (t *Timeline) InsertJoinedMessage() *Item {
	if t.joinedMessage != nil || t.info.Kind != models.ConvSupergroup ||
		t.info.InviterID == 0 || t.info.InviteDate == 0 {
		return t.joinedMessage
	}
	if t.info.MigratedFromID != 0 && t.loadedAtTop {
		return nil
	}
	it := t.createItem(models.Message{
		ID:       t.reg.nextLocalID(),
		Date:     t.info.InviteDate,
		AuthorID: t.info.InviterID,
		Content:  models.Content{Kind: models.KindService, Action: models.ActionUserJoined},
	}, false)
	t.insertLocalMessage(it)
	t.joinedMessage = it
	return it
}

// checkJoinedMessage inserts the joined notice once the loaded span
// provably covers the invite date.
func (t *Timeline) checkJoinedMessage() {
	if t.joinedMessage != nil || t.info.Kind != models.ConvSupergroup ||
		t.info.InviterID == 0 || t.info.InviteDate == 0 {
		return
	}
	if t.info.MigratedFromID != 0 && t.loadedAtTop {
		return
	}
	if t.IsEmpty() {
		if t.loadedAtTop && t.loadedAtBottom {
			t.InsertJoinedMessage()
		}
		return
	}
	first, last := t.firstItem(), t.lastItem()
	inviteDate := t.info.InviteDate
	if first.Date() <= inviteDate {
		if last.Date() >= inviteDate || t.loadedAtBottom {
			t.InsertJoinedMessage()
		}
	} else if t.loadedAtTop {
		t.InsertJoinedMessage()
	}
}

// JoinedMessage returns the synthesized joined notice, nil when absent.
func (t *Timeline) JoinedMessage() *Item { return t.joinedMessage }

// insertLocalMessage places a local item by date: at the tail, in the
// middle, or at the very front of the loaded span.
func (t *Timeline) insertLocalMessage(it *Item) {
	if t.IsEmpty() {
		t.addItemToBlock(it)
		if t.loadedAtBottom {
			t.setLastMessageItem(it)
		}
		return
	}
	date := it.Date()
	for bi := len(t.blocks) - 1; bi >= 0; bi-- {
		items := t.blocks[bi].items
		for ii := len(items) - 1; ii >= 0; ii-- {
			if items[ii].Date() <= date {
				if bi == len(t.blocks)-1 && ii == len(items)-1 {
					t.addItemToBlock(it)
					if t.loadedAtBottom {
						t.setLastMessageItem(it)
					}
				} else {
					t.addNewInTheMiddle(it, bi, ii+1)
				}
				return
			}
		}
	}
	t.addNewInTheMiddle(it, 0, 0)
}

// migrateFrom returns the legacy-group timeline this supergroup
// continues, nil when not migrated or not loaded.
func (t *Timeline) migrateFrom() *Timeline {
	if t.info.MigratedFromID == 0 {
		return nil
	}
	return t.reg.peek(t.info.MigratedFromID)
}

// migrateTo returns the supergroup timeline this legacy group became.
func (t *Timeline) migrateTo() *Timeline {
	if t.info.MigratedToID == 0 {
		return nil
	}
	return t.reg.peek(t.info.MigratedToID)
}

// MinMsgID returns the lowest loaded server id, 0 when none.
func (t *Timeline) MinMsgID() models.MsgID {
	for _, b := range t.blocks {
		for _, it := range b.items {
			if it.ID().IsServer() {
				return it.ID()
			}
		}
	}
	return 0
}

// MaxMsgID returns the highest loaded server id, 0 when none.
func (t *Timeline) MaxMsgID() models.MsgID {
	for i := len(t.blocks) - 1; i >= 0; i-- {
		items := t.blocks[i].items
		for j := len(items) - 1; j >= 0; j-- {
			if items[j].ID().IsServer() {
				return items[j].ID()
			}
		}
	}
	return 0
}

// MsgIDForRead is the id a read-all marks through: the last message
// when known, topped by the loaded maximum when the bottom is loaded.
func (t *Timeline) MsgIDForRead() models.MsgID {
	var result models.MsgID
	if last := t.lastMessage.value(); last != nil && last.ID().IsServer() {
		result = last.ID()
	}
	if t.loadedAtBottom {
		if max := t.MaxMsgID(); max > result {
			result = max
		}
	}
	return result
}

// LastSentMessage returns the newest own sendable message, used to
// pick the edit target; only meaningful with the bottom loaded.
func (t *Timeline) LastSentMessage() *Item {
	if !t.loadedAtBottom {
		return nil
	}
	for i := len(t.blocks) - 1; i >= 0; i-- {
		items := t.blocks[i].items
		for j := len(items) - 1; j >= 0; j-- {
			it := items[j]
			if it.Data.Out && it.ID().IsServer() && !it.Data.IsService() {
				return it
			}
		}
	}
	return nil
}

// RangeForDifferenceRequest is the loaded server-id span a gap-fill
// fetch should cover, zero when nothing server-side is loaded.
func (t *Timeline) RangeForDifferenceRequest() IDRange {
	from := t.MinMsgID()
	if from == 0 {
		return IDRange{}
	}
	return IDRange{From: from, Till: t.MaxMsgID() + 1}
}

// Slice returns up to limit loaded messages strictly older than
// beforeID (all when 0), newest-first.
func (t *Timeline) Slice(limit int, beforeID models.MsgID) []models.Message {
	if limit <= 0 {
		limit = 50
	}
	out := make([]models.Message, 0, limit)
	for i := len(t.blocks) - 1; i >= 0 && len(out) < limit; i-- {
		items := t.blocks[i].items
		for j := len(items) - 1; j >= 0 && len(out) < limit; j-- {
			it := items[j]
			if beforeID != 0 && it.ID() >= beforeID {
				continue
			}
			out = append(out, it.Data)
		}
	}
	return out
}

// BlockSizes exposes the block layout for diagnostics.
func (t *Timeline) BlockSizes() []int {
	out := make([]int, len(t.blocks))
	for i, b := range t.blocks {
		out[i] = len(b.items)
	}
	return out
}

func (t *Timeline) pushNotification(it *Item) {
	t.pendingNotifies = append(t.pendingNotifies, it)
	t.reg.notifier.NotifyUnread(t.info.ID, it.Data)
}

func (t *Timeline) removeNotification(it *Item) {
	for i, n := range t.pendingNotifies {
		if n == it {
			t.pendingNotifies = append(t.pendingNotifies[:i], t.pendingNotifies[i+1:]...)
			return
		}
	}
}

// CurrentNotification returns the oldest queued notification, nil when
// the queue is empty.
func (t *Timeline) CurrentNotification() *Item {
	if len(t.pendingNotifies) == 0 {
		return nil
	}
	return t.pendingNotifies[0]
}

// SkipNotification pops the oldest queued notification.
func (t *Timeline) SkipNotification() {
	if len(t.pendingNotifies) > 0 {
		t.pendingNotifies = t.pendingNotifies[1:]
	}
}
