package timeline

import (
	"fmt"

	"timelined/pkg/models"
)

// blockSoftCap is the preferred number of items per block. Appends open
// a fresh block once the tail reaches it; interior inserts may push a
// block past it without splitting.
const blockSoftCap = 50

// Item is one message attached to a timeline. It remembers its block
// and its index inside that block so removal and neighbour lookups stay
// O(1) plus renumbering.
type Item struct {
	Data models.Message

	block *Block
	index int
	// prev caches the previous item across block boundaries, the one
	// relation incremental consumers need when edges move.
	prev *Item
}

// ID returns the message id.
func (it *Item) ID() models.MsgID { return it.Data.ID }

// Date returns the message timestamp.
func (it *Item) Date() int64 { return it.Data.Date }

// Out reports whether the message was sent by the conversation owner.
func (it *Item) Out() bool { return it.Data.Out }

// Previous returns the item immediately before this one, crossing block
// boundaries, or nil at the loaded front edge.
func (it *Item) Previous() *Item { return it.prev }

// Block returns the block the item is attached to, nil when detached.
func (it *Item) Block() *Block { return it.block }

func (it *Item) attached() bool { return it.block != nil }

func (it *Item) attach(b *Block, index int) {
	if it.block != nil {
		panic(fmt.Sprintf("timeline: item %d attached twice", it.Data.ID))
	}
	it.block = b
	it.index = index
}

func (it *Item) detach() {
	it.block = nil
	it.index = 0
	it.prev = nil
}

// Block is one contiguous run of items. Blocks are ordered by index
// within the timeline; items are ordered by index within the block.
type Block struct {
	timeline *Timeline
	index    int
	items    []*Item
}

// Items returns the block's items in timeline order.
func (b *Block) Items() []*Item { return b.items }

// Index returns the block's position within the timeline.
func (b *Block) Index() int { return b.index }

func newBlock(t *Timeline, index int) *Block {
	return &Block{timeline: t, index: index}
}

// append attaches an item at the end of the block.
func (b *Block) append(it *Item) {
	it.attach(b, len(b.items))
	b.items = append(b.items, it)
}

// insertAt attaches an item at position i, shifting the tail.
func (b *Block) insertAt(i int, it *Item) {
	it.attach(b, i)
	b.items = append(b.items, nil)
	copy(b.items[i+1:], b.items[i:])
	b.items[i] = it
	for j := i + 1; j < len(b.items); j++ {
		b.items[j].index = j
	}
}

// remove detaches the item and closes the gap. Empty blocks are
// destroyed by the owning timeline.
func (b *Block) remove(it *Item) {
	i := it.index
	if i < 0 || i >= len(b.items) || b.items[i] != it {
		panic(fmt.Sprintf("timeline: item %d removed from wrong slot", it.Data.ID))
	}
	t := b.timeline
	next := b.nextItem(i)
	b.items = append(b.items[:i], b.items[i+1:]...)
	for j := i; j < len(b.items); j++ {
		b.items[j].index = j
	}
	it.detach()
	if next != nil {
		t.relinkPrevious(next)
	}
	if len(b.items) == 0 {
		t.removeBlock(b)
	}
}

// nextItem returns the item after index i, looking into the following
// block when i is the last slot.
func (b *Block) nextItem(i int) *Item {
	if i+1 < len(b.items) {
		return b.items[i+1]
	}
	t := b.timeline
	if b.index+1 < len(t.blocks) {
		nb := t.blocks[b.index+1]
		if len(nb.items) > 0 {
			return nb.items[0]
		}
	}
	return nil
}

// first returns the block's first item, nil when empty.
func (b *Block) first() *Item {
	if len(b.items) == 0 {
		return nil
	}
	return b.items[0]
}

// last returns the block's last item, nil when empty.
func (b *Block) last() *Item {
	if len(b.items) == 0 {
		return nil
	}
	return b.items[len(b.items)-1]
}

// prepareBlockForAddingItem picks the block an appended item goes to,
// opening a new tail block when the last one hit the soft cap. Never
// called while a front block is being built.
func (t *Timeline) prepareBlockForAddingItem() *Block {
	if t.building != nil {
		panic("timeline: appending while building front block")
	}
	if len(t.blocks) > 0 {
		tail := t.blocks[len(t.blocks)-1]
		if len(tail.items) < blockSoftCap {
			return tail
		}
	}
	b := newBlock(t, len(t.blocks))
	t.blocks = append(t.blocks, b)
	return b
}

// addItemToBlock appends a created item at the bottom of the timeline.
func (t *Timeline) addItemToBlock(it *Item) {
	if it.attached() {
		panic(fmt.Sprintf("timeline: item %d already placed", it.Data.ID))
	}
	b := t.prepareBlockForAddingItem()
	var prev *Item
	if last := b.last(); last != nil {
		prev = last
	} else if b.index > 0 {
		prev = t.blocks[b.index-1].last()
	}
	b.append(it)
	it.prev = prev
}

// addNewInTheMiddle places an item inside an existing block at the
// given position, keeping in-block indexes dense.
func (t *Timeline) addNewInTheMiddle(it *Item, blockIndex, itemIndex int) {
	if blockIndex < 0 || blockIndex >= len(t.blocks) {
		panic("timeline: interior insert outside blocks")
	}
	b := t.blocks[blockIndex]
	if itemIndex < 0 || itemIndex > len(b.items) {
		panic("timeline: interior insert outside block items")
	}
	b.insertAt(itemIndex, it)
	t.relinkPrevious(it)
	if next := b.nextItem(itemIndex); next != nil {
		t.relinkPrevious(next)
	}
}

// frontBlockBuilder collects items for a block that will become the new
// first block once the older fetch finishes.
type frontBlockBuilder struct {
	block *Block
}

// startBuildingFrontBlock opens a detached block sized for the incoming
// older slice. Until finishBuildingFrontBlock runs, appends through the
// normal path are forbidden.
func (t *Timeline) startBuildingFrontBlock(expectedCount int) {
	if t.building != nil {
		panic("timeline: front block already building")
	}
	b := newBlock(t, 0)
	if expectedCount > 0 {
		b.items = make([]*Item, 0, expectedCount)
	}
	t.building = &frontBlockBuilder{block: b}
}

// addItemToBuildingBlock places a created item into the front block
// under construction.
func (t *Timeline) addItemToBuildingBlock(it *Item) {
	if t.building == nil {
		panic("timeline: no front block building")
	}
	t.building.block.append(it)
}

// finishBuildingFrontBlock installs the built block as blocks[0],
// renumbering the existing blocks exactly once, and relinks the old
// front edge. An empty build installs nothing.
func (t *Timeline) finishBuildingFrontBlock() *Block {
	fb := t.building
	if fb == nil {
		panic("timeline: front block not building")
	}
	t.building = nil
	if len(fb.block.items) == 0 {
		return nil
	}
	b := fb.block
	t.blocks = append([]*Block{b}, t.blocks...)
	for i, bl := range t.blocks {
		bl.index = i
	}
	// chain prev pointers inside the new block, then reconnect the
	// first item of the previously-first block to the new tail.
	var prev *Item
	for _, it := range b.items {
		it.prev = prev
		prev = it
	}
	if len(t.blocks) > 1 {
		if first := t.blocks[1].first(); first != nil {
			first.prev = b.last()
		}
	}
	return b
}

// removeBlock drops an emptied block and renumbers the rest.
func (t *Timeline) removeBlock(b *Block) {
	i := b.index
	if i < 0 || i >= len(t.blocks) || t.blocks[i] != b {
		panic("timeline: block removed from wrong slot")
	}
	t.blocks = append(t.blocks[:i], t.blocks[i+1:]...)
	for j := i; j < len(t.blocks); j++ {
		t.blocks[j].index = j
	}
	b.timeline = nil
}

// relinkPrevious recomputes the cached previous pointer for an item
// whose front neighbour changed.
func (t *Timeline) relinkPrevious(it *Item) {
	b := it.block
	if b == nil {
		return
	}
	if it.index > 0 {
		it.prev = b.items[it.index-1]
		return
	}
	for bi := b.index - 1; bi >= 0; bi-- {
		if last := t.blocks[bi].last(); last != nil {
			it.prev = last
			return
		}
	}
	it.prev = nil
}

// firstItem returns the oldest loaded item, nil when empty.
func (t *Timeline) firstItem() *Item {
	for _, b := range t.blocks {
		if it := b.first(); it != nil {
			return it
		}
	}
	return nil
}

// lastItem returns the newest loaded item, nil when empty.
func (t *Timeline) lastItem() *Item {
	for i := len(t.blocks) - 1; i >= 0; i-- {
		if it := t.blocks[i].last(); it != nil {
			return it
		}
	}
	return nil
}
