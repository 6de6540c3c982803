package page

import (
	"encoding/binary"

	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/types"
)

// dirEntrySize is 12: a data page id, its live record count, and its
// free-space byte count, each a 4-byte little-endian field packed straight
// into the slot heap the same way HFPage packs any other record -
// DirPage reuses HFPage's slot mechanism rather than a bespoke layout.
const dirEntrySize = 12

// MaxDirEntries is how many data-page entries fit on one DirPage.
const MaxDirEntries = (common.PageSize - headerSize) / (dirEntrySize + slotEntrySize)

// DirPage is one page of the heap file's directory: a linked list of
// fixed-size entries, each naming a data page and its occupancy.
type DirPage struct {
	*HFPage
}

func NewDirPage(pg *Page) *DirPage {
	return &DirPage{HFPage: NewHFPage(pg)}
}

type DirEntry struct {
	DataPageID types.PageID
	RecCount   uint32
	FreeCount  uint32
}

func encodeDirEntry(e DirEntry) []byte {
	buf := make([]byte, dirEntrySize)
	copy(buf[0:], e.DataPageID.Serialize())
	binary.LittleEndian.PutUint32(buf[4:], e.RecCount)
	binary.LittleEndian.PutUint32(buf[8:], e.FreeCount)
	return buf
}

func decodeDirEntry(b []byte) DirEntry {
	return DirEntry{
		DataPageID: types.NewPageIDFromBytes(b[0:]),
		RecCount:   binary.LittleEndian.Uint32(b[4:]),
		FreeCount:  binary.LittleEndian.Uint32(b[8:]),
	}
}

// EntryCount is the number of directory entries on this page.
func (d *DirPage) EntryCount() uint16 {
	return d.SlotCount()
}

// EntryAt reads the entry at 1-based slot slotNo.
func (d *DirPage) EntryAt(slotNo uint16) (DirEntry, error) {
	raw, err := d.SelectRecord(types.NewRID(d.CurPage(), slotNo))
	if err != nil {
		return DirEntry{}, err
	}
	return decodeDirEntry(raw), nil
}

// InsertEntry appends e and returns its 1-based slot number.
func (d *DirPage) InsertEntry(e DirEntry) (uint16, error) {
	return d.HFPage.InsertRecord(encodeDirEntry(e))
}

// UpdateEntry overwrites the entry at slotNo in place.
func (d *DirPage) UpdateEntry(slotNo uint16, e DirEntry) error {
	return d.HFPage.UpdateRecord(types.NewRID(d.CurPage(), slotNo), encodeDirEntry(e))
}

// DeleteEntry removes the entry at slotNo, compacting the heap and
// closing the resulting gap in the slot directory so remaining entries
// stay dense - unlike HFPage.DeleteRecord's lazy model, EntryCount()
// always equals the number of live entries afterward. Mirrors
// SortedPage.DeleteEntry, minus the key search since the caller already
// names the slot to remove.
func (d *DirPage) DeleteEntry(slotNo uint16) error {
	idx, err := d.validSlot(slotNo)
	if err != nil {
		return err
	}
	count := d.SlotCount()

	off, length := d.slotAt(idx)
	top := d.heapTop()
	if top < off {
		copy(d.buf()[top+length:off+length], d.buf()[top:off])
		for i := uint16(0); i < count; i++ {
			if i == idx {
				continue
			}
			o2, l2 := d.slotAt(i)
			if l2 == common.EmptySlot {
				continue
			}
			if o2 >= top && o2 < off {
				d.setSlotAt(i, o2+length, l2)
			}
		}
	}

	for i := idx; i < count-1; i++ {
		o2, l2 := d.slotAt(i + 1)
		d.setSlotAt(i, o2, l2)
	}
	d.setSlotAt(count-1, 0, common.EmptySlot)
	d.setFreeSpace(d.FreeSpace() + length + slotEntrySize)
	d.setSlotCount(count - 1)
	return nil
}
