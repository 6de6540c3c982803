package types

import "github.com/ryogrid/minicore/common"

// RID is a record identifier: the page it lives on plus its slot number.
// Slot 0 is reserved (common.EmptySlot); slot numbers are stable across
// insert/delete of other records on the same page, but not across
// deletion of the record they name.
type RID struct {
	PageID PageID
	SlotNo uint16
}

// NewRID builds an RID from its parts.
func NewRID(pageID PageID, slotNo uint16) RID {
	return RID{PageID: pageID, SlotNo: slotNo}
}

// IsEmpty reports whether r names the reserved empty slot.
func (r RID) IsEmpty() bool {
	return r.SlotNo == common.EmptySlot
}
