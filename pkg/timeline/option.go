package timeline

import "timelined/pkg/models"

// The engine distinguishes "not known yet" from "known to be absent"
// for unread counts, read cursors and last-message pointers. These
// small tri-state holders keep that explicit instead of overloading
// zero values.

type optInt struct {
	known bool
	v     int
}

func (o *optInt) set(v int)        { o.known, o.v = true, v }
func (o *optInt) get() (int, bool) { return o.v, o.known }
func (o *optInt) or(def int) int {
	if o.known {
		return o.v
	}
	return def
}

type optID struct {
	known bool
	v     models.MsgID
}

func (o *optID) set(v models.MsgID)        { o.known, o.v = true, v }
func (o *optID) get() (models.MsgID, bool) { return o.v, o.known }

// maybeItem is unknown / explicitly-none (known, nil) / present.
type maybeItem struct {
	known bool
	item  *Item
}

func (m *maybeItem) reset()            { m.known, m.item = false, nil }
func (m *maybeItem) setNone()          { m.known, m.item = true, nil }
func (m *maybeItem) set(it *Item)      { m.known, m.item = true, it }
func (m *maybeItem) value() *Item      { return m.item }
func (m *maybeItem) valueKnown() bool  { return m.known }
func (m *maybeItem) is(it *Item) bool  { return m.known && m.item == it }
func (m *maybeItem) isExplicit() bool  { return m.known && m.item == nil }
func (m *maybeItem) isPresent() bool   { return m.known && m.item != nil }
