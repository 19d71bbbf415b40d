package timeline

import (
	"testing"

	"timelined/pkg/models"
)

func serviceMsg(id int64, action models.ServiceAction) models.Message {
	return models.Message{
		ID:      models.MsgID(id),
		Date:    1000 + id,
		Content: models.Content{Kind: models.KindService, Action: action},
	}
}

func TestAddNewMessageWithoutBottomOnlyUpdatesSummary(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	it := tl.AddNewMessage(textMsg(7, false, true), NewMessageUnread)
	if it.attached() {
		t.Fatal("message attached to blocks while the bottom is not loaded")
	}
	last, known := tl.LastMessage()
	if !known || last == nil || last.ID != 7 {
		t.Fatalf("last message = %v (%v), want id 7", last, known)
	}
	if tl.Size() != 0 {
		t.Fatalf("loaded size = %d, want 0", tl.Size())
	}
}

func TestEmptyNewerSlicePromotesLastLoaded(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.AddNewerSlice(descSlice(5, 1))
	if tl.LoadedAtBottom() {
		t.Fatal("bottom marked loaded too early")
	}
	tl.AddNewerSlice(nil)
	if !tl.LoadedAtBottom() {
		t.Fatal("empty newer slice must mark the bottom loaded")
	}
	last, known := tl.LastMessage()
	if !known || last == nil || last.ID != 5 {
		t.Fatalf("last message = %v (%v), want id 5", last, known)
	}
}

func TestCheckLastMessageDetectsLoadedBottom(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.AddNewMessage(textMsg(9, false, false), NewMessageExisting)
	tl.applyDialogTopMessage(9)
	if tl.LoadedAtBottom() {
		t.Fatal("detached last message must not imply a loaded bottom")
	}
	tl.AddNewerSlice(descSlice(9, 5))
	if !tl.LoadedAtBottom() {
		t.Fatal("attached last message must imply a loaded bottom")
	}
}

func TestChatListSummarySkipsMigrateMarker(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvGroup)
	tl.MarkFullyLoaded()
	tl.AddNewMessage(textMsg(1, false, false), NewMessageLast)
	tl.AddNewMessage(textMsg(2, false, false), NewMessageLast)
	tl.AddNewMessage(serviceMsg(3, models.ActionMigrateTo), NewMessageLast)
	tl.RequestChatListMessage()
	msg, known := tl.ChatListMessage()
	if !known || msg == nil || msg.ID != 2 {
		t.Fatalf("chat list message = %v (%v), want id 2 before the marker", msg, known)
	}
}

func TestChatListSummaryUnknownWhenMarkerUnanchored(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvGroup)
	marker := serviceMsg(3, models.ActionMigrateTo)
	tl.AddNewMessage(marker, NewMessageExisting)
	tl.applyDialogTopMessage(3)
	if _, known := tl.ChatListMessage(); known {
		t.Fatal("summary must stay unknown while nothing before the marker is loaded")
	}
}

func TestSupergroupSummaryDefersToLegacyGroup(t *testing.T) {
	reg, group, _ := newTestConv(t, models.ConvGroup)
	group.MarkFullyLoaded()
	group.AddNewMessage(textMsg(1, false, false), NewMessageLast)
	group.AddNewMessage(textMsg(2, false, false), NewMessageLast)
	group.AddNewMessage(serviceMsg(3, models.ActionMigrateTo), NewMessageLast)

	reg.get(models.ConversationInfo{ID: 200, Kind: models.ConvSupergroup})
	if err := reg.LinkMigration(100, 200); err != nil {
		t.Fatalf("link migration: %v", err)
	}
	super := reg.peek(200)
	super.MarkFullyLoaded()
	super.AddNewMessage(serviceMsg(1, models.ActionMigrateFrom), NewMessageLast)

	super.RequestChatListMessage()
	msg, known := super.ChatListMessage()
	if !known || msg == nil || msg.ID != 2 {
		t.Fatalf("supergroup summary = %v (%v), want legacy id 2", msg, known)
	}
}

func TestChatListUnreadCountIncludesLegacySibling(t *testing.T) {
	reg, group, _ := newTestConv(t, models.ConvGroup)
	group.SetUnreadCount(3)
	reg.get(models.ConversationInfo{ID: 200, Kind: models.ConvSupergroup})
	if err := reg.LinkMigration(100, 200); err != nil {
		t.Fatalf("link migration: %v", err)
	}
	super := reg.peek(200)
	super.SetUnreadCount(2)
	if got := super.ChatListUnreadCount(); got != 5 {
		t.Fatalf("badge = %d, want 5", got)
	}
	if got := group.ChatListUnreadCount(); got != 3 {
		t.Fatalf("legacy badge = %d, want its own 3", got)
	}
}

func TestMigrationMovesLocalDraft(t *testing.T) {
	reg, group, _ := newTestConv(t, models.ConvGroup)
	group.SetLocalDraft(&models.Draft{Text: "mid-sentence", ReplyToID: 9, Date: 10})
	reg.get(models.ConversationInfo{ID: 200, Kind: models.ConvSupergroup})
	if err := reg.LinkMigration(100, 200); err != nil {
		t.Fatalf("link migration: %v", err)
	}
	super := reg.peek(200)
	if d := super.LocalDraft(); d == nil || d.Text != "mid-sentence" || d.ReplyToID != 0 {
		t.Fatalf("draft after migration = %+v", d)
	}
}

func TestAddNewMessageOnMigratedGroupStaysDetached(t *testing.T) {
	reg, group, _ := newTestConv(t, models.ConvGroup)
	group.MarkFullyLoaded()
	reg.get(models.ConversationInfo{ID: 200, Kind: models.ConvSupergroup})
	if err := reg.LinkMigration(100, 200); err != nil {
		t.Fatalf("link migration: %v", err)
	}
	it := group.AddNewMessage(textMsg(5, false, true), NewMessageUnread)
	if it.attached() {
		t.Fatal("messages must not attach to a migrated-away group")
	}
	if last, known := group.LastMessage(); !known || last.ID != 5 {
		t.Fatal("summary must still track the new message")
	}
}

func TestItemRemovedClearsWeakReferences(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	for id := int64(1); id <= 3; id++ {
		tl.AddNewMessage(textMsg(id, false, true), NewMessageUnread)
	}
	first := tl.FirstUnread()
	if first == nil {
		t.Fatal("first unread not set")
	}
	before, _ := tl.UnreadCount()
	if !tl.RemoveMessage(first.ID()) {
		t.Fatal("remove failed")
	}
	if tl.FirstUnread() == first {
		t.Fatal("first unread still points at the removed item")
	}
	if after, _ := tl.UnreadCount(); after != before-1 {
		t.Fatalf("unread = %d after removal, want %d", after, before-1)
	}
	if tl.Lookup(first.ID()) != nil {
		t.Fatal("removed item still registered")
	}
}

func TestRemoveReadIncomingKeepsUnreadCount(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	for id := int64(1); id <= 4; id++ {
		tl.AddNewMessage(textMsg(id, false, true), NewMessageUnread)
	}
	tl.InboxRead(2, nil)
	if got, _ := tl.UnreadCount(); got != 2 {
		t.Fatalf("unread after read-through-2 = %d, want 2", got)
	}
	// the flag on item 1 is stale, the cursor already moved past it
	tl.RemoveMessage(1)
	if got, _ := tl.UnreadCount(); got != 2 {
		t.Fatalf("unread = %d after removing a read message, want 2", got)
	}
	tl.RemoveMessage(3)
	if got, _ := tl.UnreadCount(); got != 1 {
		t.Fatalf("unread = %d after removing an unread message, want 1", got)
	}
}

func TestRemoveLastMessageFallsBackToLoadedTail(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	for id := int64(1); id <= 3; id++ {
		tl.AddNewMessage(textMsg(id, false, false), NewMessageLast)
	}
	tl.RemoveMessage(3)
	last, known := tl.LastMessage()
	if !known || last == nil || last.ID != 2 {
		t.Fatalf("last message = %v (%v) after tail removal, want id 2", last, known)
	}
}

func TestClearUpTillConvertsBoundary(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	for id := int64(1); id <= 5; id++ {
		tl.AddNewMessage(textMsg(id, false, true), NewMessageUnread)
	}
	tl.ClearUpTill(3)
	if tl.Lookup(1) != nil || tl.Lookup(2) != nil {
		t.Fatal("messages below the boundary survived")
	}
	boundary := tl.Lookup(3)
	if boundary == nil || boundary.Data.Content.Action != models.ActionHistoryClear {
		t.Fatalf("boundary = %+v, want a history-cleared notice", boundary)
	}
	if tl.Lookup(4) == nil || tl.Lookup(5) == nil {
		t.Fatal("messages above the boundary must survive")
	}
}

func TestUnloadKeepsCountersDropsBlocks(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	for id := int64(1); id <= 4; id++ {
		tl.AddNewMessage(textMsg(id, false, true), NewMessageUnread)
	}
	unread, _ := tl.UnreadCount()
	tl.UnloadBlocks()
	if tl.Size() != 0 || tl.LoadedAtTop() || tl.LoadedAtBottom() {
		t.Fatal("unload must drop blocks and edge flags")
	}
	if got, _ := tl.UnreadCount(); got != unread {
		t.Fatalf("unread = %d after unload, want preserved %d", got, unread)
	}
}

func TestClearHistoryWipesEverythingLoaded(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	for id := int64(1); id <= 4; id++ {
		tl.AddNewMessage(textMsg(id, false, true), NewMessageUnread)
	}
	tl.Clear(ClearHistory)
	if tl.Size() != 0 || !tl.LoadedAtTop() || !tl.LoadedAtBottom() {
		t.Fatal("cleared history must be empty and fully loaded")
	}
	if got, _ := tl.UnreadCount(); got != 0 {
		t.Fatalf("unread = %d after clear, want 0", got)
	}
}

func TestJoinedNoticeInsertedByInviteDate(t *testing.T) {
	fc := &fakeClock{}
	reg := NewRegistry(Options{Clock: fc})
	tl := reg.get(models.ConversationInfo{
		ID: 300, Kind: models.ConvSupergroup, SelfID: 1,
		InviterID: 9, InviteDate: 1003,
	})
	tl.AddNewerSlice(descSlice(6, 1))
	tl.AddNewerSlice(nil)

	joined := tl.JoinedMessage()
	if joined == nil {
		t.Fatal("joined notice not inserted")
	}
	if joined.ID().IsServer() {
		t.Fatal("joined notice must carry a local id")
	}
	ids := collectIDs(tl)
	// dates are 1000+id, invite at 1003 lands after message 3
	want := []models.MsgID{1, 2, 3, joined.ID(), 4, 5, 6}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestJoinedNoticeSkippedWhenLegacyHistoryCoversIt(t *testing.T) {
	fc := &fakeClock{}
	reg := NewRegistry(Options{Clock: fc})
	reg.get(models.ConversationInfo{ID: 100, Kind: models.ConvGroup})
	tl := reg.get(models.ConversationInfo{
		ID: 300, Kind: models.ConvSupergroup, SelfID: 1,
		InviterID: 9, InviteDate: 1003,
	})
	if err := reg.LinkMigration(100, 300); err != nil {
		t.Fatalf("link migration: %v", err)
	}
	// the invite predates the supergroup's own history, which continues
	// below in the legacy group
	tl.AddNewerSlice(descSlice(6, 4))
	tl.AddOlderSlice(nil)
	if tl.JoinedMessage() != nil {
		t.Fatal("joined notice must not duplicate the migrated history")
	}
}

func TestMsgIDForReadPrefersLoadedMaximum(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	tl.AddNewMessage(textMsg(4, false, false), NewMessageLast)
	tl.AddNewMessage(textMsg(9, false, false), NewMessageLast)
	if got := tl.MsgIDForRead(); got != 9 {
		t.Fatalf("msg id for read = %d, want 9", got)
	}
	tl2Reg := NewRegistry(Options{})
	tl2 := tl2Reg.get(models.ConversationInfo{ID: 1, Kind: models.ConvUser})
	tl2.AddNewMessage(textMsg(12, false, false), NewMessageExisting)
	tl2.applyDialogTopMessage(12)
	if got := tl2.MsgIDForRead(); got != 12 {
		t.Fatalf("msg id for read = %d without loaded bottom, want last message 12", got)
	}
}

func TestRangeForDifferenceRequest(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.AddNewerSlice(descSlice(20, 11))
	got := tl.RangeForDifferenceRequest()
	if got.From != 11 || got.Till != 21 {
		t.Fatalf("range = %+v, want [11,21)", got)
	}
	_, empty, _ := newTestConv(t, models.ConvUser)
	if r := empty.RangeForDifferenceRequest(); r.From != 0 || r.Till != 0 {
		t.Fatalf("empty range = %+v", r)
	}
}

func TestRecentAuthorsPromoteOnNewMessage(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvGroup)
	tl.MarkFullyLoaded()
	a := textMsg(1, false, false)
	a.AuthorID = 11
	b := textMsg(2, false, false)
	b.AuthorID = 22
	c := textMsg(3, false, false)
	c.AuthorID = 11
	tl.AddNewMessage(a, NewMessageLast)
	tl.AddNewMessage(b, NewMessageLast)
	tl.AddNewMessage(c, NewMessageLast)
	authors := tl.RecentAuthors()
	if len(authors) != 2 || authors[0] != 11 || authors[1] != 22 {
		t.Fatalf("authors = %v, want [11 22]", authors)
	}
}

func TestGroupCreationNoticeMarksTopLoaded(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvGroup)
	tl.AddNewerSlice(nil)
	tl.AddNewMessage(serviceMsg(1, models.ActionGroupCreated), NewMessageLast)
	if !tl.LoadedAtTop() {
		t.Fatal("group creation notice pins the start of history")
	}
}

func TestNotificationQueueForIncomingUnread(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	tl.AddNewMessage(textMsg(1, false, true), NewMessageUnread)
	tl.AddNewMessage(textMsg(2, true, false), NewMessageLast)
	tl.AddNewMessage(textMsg(3, false, true), NewMessageUnread)
	if cur := tl.CurrentNotification(); cur == nil || cur.ID() != 1 {
		t.Fatalf("current notification = %v, want id 1", cur)
	}
	tl.SkipNotification()
	if cur := tl.CurrentNotification(); cur == nil || cur.ID() != 3 {
		t.Fatalf("current notification = %v, want id 3", cur)
	}
}
