package page

import (
	"encoding/binary"

	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/storageerr"
	"github.com/ryogrid/minicore/types"
)

// Header layout, per spec: 20 fixed bytes, slot directory growing up
// from offset 20, record heap growing down from the end of the page.
const (
	offsetPrevPage  = 0
	offsetNextPage  = 4
	offsetCurPage   = 8
	offsetFreeSpace = 12
	offsetSlotCount = 14
	offsetPageType  = 16
	// offset 18..20 reserved, always zero.
	headerSize    = 20
	slotEntrySize = 4
)

// HFPage is the slotted-page layout shared by every page kind in the
// storage core. Higher-level views (SortedPage, DirPage, DataPage,
// HashDirPage, HashBucketPage) embed it.
type HFPage struct {
	pg *Page
}

// NewHFPage wraps pg as an HFPage view. pg must already have been
// initialized via Init, or read from disk as an existing HFPage.
func NewHFPage(pg *Page) *HFPage {
	return &HFPage{pg: pg}
}

func (h *HFPage) buf() []byte { return h.pg.Data() }

// Init resets pg into a freshly created, empty page of the given type.
func (h *HFPage) Init(pageType uint16) {
	h.pg.Reset()
	h.SetPrevPage(types.InvalidPageID)
	h.SetNextPage(types.InvalidPageID)
	h.SetPageType(pageType)
	h.setSlotCount(0)
	h.recomputeFreeSpace()
}

func (h *HFPage) PrevPage() types.PageID {
	return types.NewPageIDFromBytes(h.buf()[offsetPrevPage:])
}

func (h *HFPage) SetPrevPage(id types.PageID) {
	copy(h.buf()[offsetPrevPage:], id.Serialize())
}

func (h *HFPage) NextPage() types.PageID {
	return types.NewPageIDFromBytes(h.buf()[offsetNextPage:])
}

func (h *HFPage) SetNextPage(id types.PageID) {
	copy(h.buf()[offsetNextPage:], id.Serialize())
}

func (h *HFPage) CurPage() types.PageID {
	return types.NewPageIDFromBytes(h.buf()[offsetCurPage:])
}

func (h *HFPage) SetCurPage(id types.PageID) {
	copy(h.buf()[offsetCurPage:], id.Serialize())
}

// FreeSpace is the authoritative count of bytes available to a new
// record, including the 4 bytes its slot entry would consume.
func (h *HFPage) FreeSpace() uint16 {
	return binary.LittleEndian.Uint16(h.buf()[offsetFreeSpace:])
}

func (h *HFPage) setFreeSpace(v uint16) {
	binary.LittleEndian.PutUint16(h.buf()[offsetFreeSpace:], v)
}

// recomputeFreeSpace derives free_space fresh from heapTop and
// SlotCount rather than adjusting the stored value incrementally:
// incremental +/- bookkeeping double-counts the 4-byte slot-entry cost
// whenever a reuse-insert or a non-trailing delete leaves another
// non-trailing empty slot still pending, since neither event actually
// grows or shrinks the slot directory. Recomputing from the two
// quantities that genuinely determine the gap - where the heap starts,
// and how many slot entries the directory currently holds - can't drift.
func (h *HFPage) recomputeFreeSpace() {
	dirEnd := uint16(headerSize) + h.SlotCount()*slotEntrySize
	h.setFreeSpace(h.heapTop() - dirEnd)
}

func (h *HFPage) SlotCount() uint16 {
	return binary.LittleEndian.Uint16(h.buf()[offsetSlotCount:])
}

func (h *HFPage) setSlotCount(v uint16) {
	binary.LittleEndian.PutUint16(h.buf()[offsetSlotCount:], v)
}

func (h *HFPage) PageType() uint16 {
	return binary.LittleEndian.Uint16(h.buf()[offsetPageType:])
}

func (h *HFPage) SetPageType(t uint16) {
	binary.LittleEndian.PutUint16(h.buf()[offsetPageType:], t)
}

func slotOffset(i uint16) int { return headerSize + int(i)*slotEntrySize }

func (h *HFPage) slotAt(i uint16) (offset, length uint16) {
	o := slotOffset(i)
	return binary.LittleEndian.Uint16(h.buf()[o:]), binary.LittleEndian.Uint16(h.buf()[o+2:])
}

func (h *HFPage) setSlotAt(i uint16, offset, length uint16) {
	o := slotOffset(i)
	binary.LittleEndian.PutUint16(h.buf()[o:], offset)
	binary.LittleEndian.PutUint16(h.buf()[o+2:], length)
}

// heapTop returns the lowest offset currently occupied by record data,
// or PageSize if the page holds no live records.
func (h *HFPage) heapTop() uint16 {
	top := uint16(common.PageSize)
	for i := uint16(0); i < h.SlotCount(); i++ {
		off, length := h.slotAt(i)
		if length == common.EmptySlot {
			continue
		}
		if off < top {
			top = off
		}
	}
	return top
}

// InsertRecord stores record in the lowest available slot, extending the
// slot directory only if no empty slot can be reused, and returns the
// record's 1-based slot number.
func (h *HFPage) InsertRecord(record []byte) (uint16, error) {
	need := uint16(len(record)) + slotEntrySize
	if need > h.FreeSpace() {
		return 0, storageerr.ErrSpaceExhausted
	}

	idx, reuse := uint16(0), false
	for i := uint16(0); i < h.SlotCount(); i++ {
		_, length := h.slotAt(i)
		if length == common.EmptySlot {
			idx, reuse = i, true
			break
		}
	}
	if !reuse {
		idx = h.SlotCount()
	}

	top := h.heapTop()
	newOffset := top - uint16(len(record))
	copy(h.buf()[newOffset:newOffset+uint16(len(record))], record)
	h.setSlotAt(idx, newOffset, uint16(len(record)))
	if !reuse {
		h.setSlotCount(idx + 1)
	}
	h.recomputeFreeSpace()
	return idx + 1, nil
}

func (h *HFPage) validSlot(slotNo uint16) (uint16, error) {
	if slotNo == common.EmptySlot || slotNo > h.SlotCount() {
		return 0, storageerr.ErrInvalidRID
	}
	idx := slotNo - 1
	_, length := h.slotAt(idx)
	if length == common.EmptySlot {
		return 0, storageerr.ErrInvalidRID
	}
	return idx, nil
}

func (h *HFPage) SelectRecord(rid types.RID) ([]byte, error) {
	idx, err := h.validSlot(rid.SlotNo)
	if err != nil {
		return nil, err
	}
	off, length := h.slotAt(idx)
	out := make([]byte, length)
	copy(out, h.buf()[off:off+length])
	return out, nil
}

// UpdateRecord overwrites the record named by rid in place. The
// replacement must be exactly as long as the record it replaces.
func (h *HFPage) UpdateRecord(rid types.RID, record []byte) error {
	idx, err := h.validSlot(rid.SlotNo)
	if err != nil {
		return err
	}
	off, length := h.slotAt(idx)
	if uint16(len(record)) != length {
		return storageerr.ErrInvalidUpdate
	}
	copy(h.buf()[off:off+length], record)
	return nil
}

// DeleteRecord marks rid's slot empty and compacts the record heap so
// that live records stay contiguous. If deleting leaves a run of empty
// trailing slots, the slot directory shrinks to reclaim their storage.
func (h *HFPage) DeleteRecord(rid types.RID) error {
	idx, err := h.validSlot(rid.SlotNo)
	if err != nil {
		return err
	}
	off, length := h.slotAt(idx)
	top := h.heapTop()
	if top < off {
		copy(h.buf()[top+length:off+length], h.buf()[top:off])
		count := h.SlotCount()
		for i := uint16(0); i < count; i++ {
			if i == idx {
				continue
			}
			o2, l2 := h.slotAt(i)
			if l2 == common.EmptySlot {
				continue
			}
			if o2 >= top && o2 < off {
				h.setSlotAt(i, o2+length, l2)
			}
		}
	}
	h.setSlotAt(idx, 0, common.EmptySlot)

	count := h.SlotCount()
	for count > 0 {
		_, l := h.slotAt(count - 1)
		if l != common.EmptySlot {
			break
		}
		count--
	}
	h.setSlotCount(count)
	h.recomputeFreeSpace()
	return nil
}
