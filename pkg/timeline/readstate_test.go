package timeline

import (
	"testing"

	"timelined/pkg/models"
)

func TestInboxReadCountsRemainingUnread(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	for id := int64(1); id <= 10; id++ {
		tl.AddNewMessage(textMsg(id, false, true), NewMessageUnread)
	}
	if got, _ := tl.UnreadCount(); got != 10 {
		t.Fatalf("unread after ingest = %d, want 10", got)
	}
	tl.InboxRead(7, nil)
	if got, _ := tl.UnreadCount(); got != 3 {
		t.Fatalf("unread after read-through-7 = %d, want 3", got)
	}
	if till, ok := tl.InboxReadTill(); !ok || till != 7 {
		t.Fatalf("inbox read till = %d (%v), want 7", till, ok)
	}
}

func TestInboxReadBelowLoadedSpanKeepsCountUnknown(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.AddNewerSlice(descSlice(110, 100))
	tl.AddNewerSlice(nil)
	if count, ok := tl.countStillUnreadLocal(50); ok {
		t.Fatalf("count = %d below the loaded span, want unknown", count)
	}
	tl.InboxRead(50, nil)
	if got, known := tl.UnreadCount(); known {
		t.Fatalf("unread = %d after reading below the loaded span, want unknown", got)
	}
	if till, ok := tl.InboxReadTill(); !ok || till != 50 {
		t.Fatalf("inbox read till = %d (%v), want 50", till, ok)
	}
}

func TestInboxReadAllWithNothingKnownIsNoOp(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.InboxRead(0, nil)
	if till, ok := tl.InboxReadTill(); ok {
		t.Fatalf("inbox read till = %d on an empty conversation, want unknown", till)
	}
}

func TestReadCursorsNeverMoveBackwards(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	for id := int64(1); id <= 5; id++ {
		tl.AddNewMessage(textMsg(id, false, true), NewMessageUnread)
	}
	tl.InboxRead(5, nil)
	tl.InboxRead(2, nil)
	if till, _ := tl.InboxReadTill(); till != 5 {
		t.Fatalf("inbox cursor regressed to %d", till)
	}
	tl.OutboxRead(9)
	tl.OutboxRead(3)
	if till, _ := tl.OutboxReadTill(); till != 9 {
		t.Fatalf("outbox cursor regressed to %d", till)
	}
}

func TestSetUnreadCountOneAnchorsFirstUnreadAtLast(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	for id := int64(1); id <= 4; id++ {
		tl.AddNewMessage(textMsg(id, false, false), NewMessageLast)
	}
	tl.SetUnreadCount(1)
	first := tl.FirstUnread()
	if first == nil || first.ID() != 4 {
		t.Fatalf("first unread = %v, want the last item", first)
	}
	if till, _ := tl.InboxReadTill(); till != 3 {
		t.Fatalf("inbox cursor = %d, want 3", till)
	}
}

func TestSetUnreadCountZeroReadsThroughEverything(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	for id := int64(1); id <= 4; id++ {
		tl.AddNewMessage(textMsg(id, false, true), NewMessageUnread)
	}
	tl.SetUnreadCount(0)
	if tl.FirstUnread() != nil {
		t.Fatal("first unread must clear at zero")
	}
	if till, _ := tl.InboxReadTill(); till != 4 {
		t.Fatalf("inbox cursor = %d, want 4", till)
	}
}

func TestOutboxReadClearsOutgoingUnreadFlags(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	tl.AddNewMessage(textMsg(1, false, false), NewMessageLast)
	out := textMsg(2, true, true)
	tl.AddNewMessage(out, NewMessageLast)
	tl.OutboxRead(2)
	if it := tl.Lookup(2); it.Data.Unread {
		t.Fatal("outgoing message still flagged unread after outbox read")
	}
	if till, _ := tl.OutboxReadTill(); till != 2 {
		t.Fatalf("outbox cursor = %d, want 2", till)
	}
}

func TestIsServerSideUnread(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	in := textMsg(5, false, true)
	if !tl.IsServerSideUnread(&in) {
		t.Fatal("unknown inbox cursor must count as unread")
	}
	tl.setInboxReadTill(5)
	if tl.IsServerSideUnread(&in) {
		t.Fatal("message at the cursor must count as read")
	}
	past := textMsg(6, false, true)
	if !tl.IsServerSideUnread(&past) {
		t.Fatal("message past the cursor must count as unread")
	}
	local := textMsg(-3, false, true)
	if tl.IsServerSideUnread(&local) {
		t.Fatal("local ids never participate in cursor math")
	}
}

func TestUnknownMessageDeletedDecrementsPastCursor(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.SetUnreadCount(5)
	tl.setInboxReadTill(10)
	tl.UnknownMessageDeleted(15)
	if got, _ := tl.UnreadCount(); got != 4 {
		t.Fatalf("unread = %d after deleting unseen message, want 4", got)
	}
	tl.UnknownMessageDeleted(3)
	if got, _ := tl.UnreadCount(); got != 4 {
		t.Fatalf("unread = %d after deleting already-read message, want 4", got)
	}
}

func TestMentionCountTrustsLargerLocalSet(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvSupergroup)
	tl.SetUnreadMentionsCount(0)
	tl.AddToUnreadMentions(3, MentionNew)
	tl.AddToUnreadMentions(7, MentionNew)
	tl.SetUnreadMentionsCount(1)
	if got, _ := tl.UnreadMentionsCount(); got != 2 {
		t.Fatalf("mentions count = %d, want local 2 over reported 1", got)
	}
}

func TestAddToUnreadMentionsRules(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvSupergroup)
	// partial set: a New id would reorder the gap, Existing may slot in
	tl.SetUnreadMentionsCount(3)
	tl.AddToUnreadMentions(5, MentionExisting)
	if len(tl.UnreadMentionIDs()) != 0 {
		t.Fatal("existing mention must not join an empty partial set")
	}
	tl.mentions.insert(2)
	tl.AddToUnreadMentions(5, MentionExisting)
	if got := tl.UnreadMentionIDs(); len(got) != 2 {
		t.Fatalf("mention ids = %v, want 2 entries", got)
	}
	tl.AddToUnreadMentions(9, MentionNew)
	if len(tl.UnreadMentionIDs()) != 2 {
		t.Fatal("new mention must not join a partial set")
	}
	// fully loaded: New appends and bumps
	tl.AddToUnreadMentions(4, MentionExisting)
	tl.AddToUnreadMentions(11, MentionNew)
	if got, _ := tl.UnreadMentionsCount(); got != 4 {
		t.Fatalf("mentions count = %d, want 4", got)
	}
}

func TestEraseFromUnreadMentions(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvSupergroup)
	tl.SetUnreadMentionsCount(0)
	tl.AddToUnreadMentions(3, MentionNew)
	tl.EraseFromUnreadMentions(3)
	if got, _ := tl.UnreadMentionsCount(); got != 0 {
		t.Fatalf("mentions count = %d after erase, want 0", got)
	}
	if len(tl.UnreadMentionIDs()) != 0 {
		t.Fatal("mention id survived erase")
	}
}

func TestStillUnreadOverrideWinsWhenBottomLoaded(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.MarkFullyLoaded()
	for id := int64(1); id <= 6; id++ {
		tl.AddNewMessage(textMsg(id, false, true), NewMessageUnread)
	}
	still := 2
	tl.InboxRead(6, &still)
	if got, _ := tl.UnreadCount(); got != 2 {
		t.Fatalf("unread = %d, want caller-supplied 2", got)
	}
}
