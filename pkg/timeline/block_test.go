package timeline

import (
	"testing"
	"time"

	"timelined/pkg/models"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestConv(t *testing.T, kind models.ConversationKind) (*Registry, *Timeline, *fakeClock) {
	t.Helper()
	fc := &fakeClock{now: time.Unix(1700000000, 0)}
	reg := NewRegistry(Options{Clock: fc})
	tl := reg.get(models.ConversationInfo{ID: 100, Kind: kind, SelfID: 1})
	return reg, tl, fc
}

func textMsg(id int64, out, unread bool) models.Message {
	return models.Message{
		ID:       models.MsgID(id),
		Date:     1000 + id,
		AuthorID: 2,
		Out:      out,
		Unread:   unread,
		Content:  models.Content{Kind: models.KindText, Text: "m"},
	}
}

// newest-first, the order a fetch returns them
func descSlice(from, to int64) []models.Message {
	var out []models.Message
	for id := from; id >= to; id-- {
		out = append(out, textMsg(id, false, false))
	}
	return out
}

func collectIDs(tl *Timeline) []models.MsgID {
	var out []models.MsgID
	for _, b := range tl.blocks {
		for _, it := range b.items {
			out = append(out, it.ID())
		}
	}
	return out
}

func TestAppendOpensNewBlockAtSoftCap(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.loadedAtBottom = true
	for id := int64(1); id <= int64(blockSoftCap)+5; id++ {
		tl.AddNewMessage(textMsg(id, false, false), NewMessageLast)
	}
	if len(tl.blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(tl.blocks))
	}
	if got := len(tl.blocks[0].items); got != blockSoftCap {
		t.Fatalf("first block has %d items, want %d", got, blockSoftCap)
	}
	if got := len(tl.blocks[1].items); got != 5 {
		t.Fatalf("second block has %d items, want 5", got)
	}
	for bi, b := range tl.blocks {
		if b.index != bi {
			t.Fatalf("block %d carries index %d", bi, b.index)
		}
		for ii, it := range b.items {
			if it.index != ii {
				t.Fatalf("item %d in block %d carries index %d", ii, bi, it.index)
			}
		}
	}
}

func TestFrontBlockInstalledWithSingleRenumber(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.loadedAtBottom = true
	for id := int64(60); id <= 62; id++ {
		tl.AddNewMessage(textMsg(id, false, false), NewMessageLast)
	}
	oldFirst := tl.firstItem()

	tl.AddOlderSlice(descSlice(59, 40))

	if len(tl.blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(tl.blocks))
	}
	if tl.blocks[0].index != 0 || tl.blocks[1].index != 1 {
		t.Fatalf("blocks not renumbered: %d, %d", tl.blocks[0].index, tl.blocks[1].index)
	}
	ids := collectIDs(tl)
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("order broken at %d: %v", i, ids)
		}
	}
	// the old front edge now links back into the new block
	if oldFirst.Previous() == nil || oldFirst.Previous().ID() != 59 {
		t.Fatalf("old first item not relinked, prev=%v", oldFirst.Previous())
	}
}

func TestEmptyOlderSliceMarksTop(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.AddNewerSlice(descSlice(5, 1))
	tl.AddOlderSlice(nil)
	if !tl.LoadedAtTop() {
		t.Fatal("empty older slice must mark the top loaded")
	}
}

func TestInteriorInsertShiftsIndexes(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.loadedAtBottom = true
	for id := int64(1); id <= 5; id++ {
		tl.AddNewMessage(textMsg(id, false, false), NewMessageLast)
	}
	it := tl.createItem(models.Message{ID: -7, Date: 1003, Content: models.Content{Kind: models.KindService, Action: models.ActionUserJoined}}, false)
	tl.addNewInTheMiddle(it, 0, 3)

	b := tl.blocks[0]
	if len(b.items) != 6 {
		t.Fatalf("block has %d items, want 6", len(b.items))
	}
	if b.items[3] != it {
		t.Fatalf("inserted item not at slot 3")
	}
	for i, item := range b.items {
		if item.index != i {
			t.Fatalf("item at %d carries index %d", i, item.index)
		}
	}
	if b.items[4].Previous() != it {
		t.Fatal("successor not relinked to inserted item")
	}
}

func TestRemoveRenumbersAndDropsEmptyBlock(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.loadedAtBottom = true
	for id := int64(1); id <= 3; id++ {
		tl.AddNewMessage(textMsg(id, false, false), NewMessageLast)
	}
	second := tl.blocks[0].items[1]
	third := tl.blocks[0].items[2]
	second.block.remove(second)
	if len(tl.blocks[0].items) != 2 {
		t.Fatalf("block has %d items after removal", len(tl.blocks[0].items))
	}
	if third.index != 1 {
		t.Fatalf("tail item index %d, want 1", third.index)
	}
	if third.Previous() == nil || third.Previous().ID() != 1 {
		t.Fatal("tail item not relinked across removal")
	}

	for _, id := range []models.MsgID{1, 3} {
		it := tl.byID[id]
		it.block.remove(it)
	}
	if len(tl.blocks) != 0 {
		t.Fatalf("empty block not dropped, %d blocks remain", len(tl.blocks))
	}
}

func TestAttachTwicePanics(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.loadedAtBottom = true
	it := tl.AddNewMessage(textMsg(1, false, false), NewMessageLast)
	defer func() {
		if recover() == nil {
			t.Fatal("double attach must panic")
		}
	}()
	tl.addItemToBlock(it)
}

func TestAppendWhileBuildingFrontBlockPanics(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.startBuildingFrontBlock(3)
	defer func() {
		if recover() == nil {
			t.Fatal("append during front build must panic")
		}
	}()
	tl.prepareBlockForAddingItem()
}

func TestOlderSliceIdempotent(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.AddNewerSlice(descSlice(20, 11))
	tl.AddOlderSlice(descSlice(10, 1))
	size := tl.Size()
	tl.AddOlderSlice(descSlice(10, 1))
	if tl.Size() != size {
		t.Fatalf("duplicate slice changed size from %d to %d", size, tl.Size())
	}
	if tl.LoadedAtTop() {
		t.Fatal("duplicate slice alone must not mark the top loaded")
	}
}
