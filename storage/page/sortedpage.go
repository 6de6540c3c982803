package page

import (
	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/storageerr"
)

// SortedPage keeps its slot directory dense and ordered by key: slot i's
// entry key is always <= slot i+1's. Hash bucket pages are SortedPages,
// which is what lets a bucket scan walk slots in order and stop early.
type SortedPage struct {
	*HFPage
}

func NewSortedPage(pg *Page) *SortedPage {
	return &SortedPage{HFPage: NewHFPage(pg)}
}

// EntryAt decodes the entry stored at 1-based slot slotNo.
func (s *SortedPage) EntryAt(slotNo uint16) (DataEntry, error) {
	idx, err := s.validSlot(slotNo)
	if err != nil {
		return DataEntry{}, err
	}
	off, length := s.slotAt(idx)
	return DecodeDataEntry(s.buf()[off : off+length]), nil
}

// findInsertPos returns the dense slot index at which e should be placed
// to keep the directory sorted by key: the index of the first existing
// entry whose key is not less than e.Key, or SlotCount() if e sorts last.
func (s *SortedPage) findInsertPos(e DataEntry) uint16 {
	count := s.SlotCount()
	for i := uint16(0); i < count; i++ {
		off, length := s.slotAt(i)
		existing := DecodeDataEntry(s.buf()[off : off+length])
		if !existing.Key.Less(e.Key) {
			return i
		}
	}
	return count
}

// InsertEntry places e's bytes on the heap and inserts a new slot
// descriptor at the position that keeps the directory sorted, shifting
// later descriptors right by one to make room.
func (s *SortedPage) InsertEntry(e DataEntry) error {
	encoded := e.Encode()
	need := uint16(len(encoded)) + slotEntrySize
	if need > s.FreeSpace() {
		return storageerr.ErrSpaceExhausted
	}

	pos := s.findInsertPos(e)
	count := s.SlotCount()

	top := s.heapTop()
	newOffset := top - uint16(len(encoded))
	copy(s.buf()[newOffset:newOffset+uint16(len(encoded))], encoded)

	for i := count; i > pos; i-- {
		off, length := s.slotAt(i - 1)
		s.setSlotAt(i, off, length)
	}
	s.setSlotAt(pos, newOffset, uint16(len(encoded)))
	s.setSlotCount(count + 1)
	s.setFreeSpace(s.FreeSpace() - need)
	return nil
}

// DeleteEntry removes the entry matching key and rid exactly, compacting
// the heap and closing the resulting gap in the slot directory so the
// remaining slots stay dense and sorted.
func (s *SortedPage) DeleteEntry(e DataEntry) error {
	count := s.SlotCount()
	pos := uint16(0)
	found := false
	for i := uint16(0); i < count; i++ {
		off, length := s.slotAt(i)
		existing := DecodeDataEntry(s.buf()[off : off+length])
		if existing.Key.Equal(e.Key) && existing.RID == e.RID {
			pos, found = i, true
			break
		}
	}
	if !found {
		return storageerr.ErrNotFound
	}

	off, length := s.slotAt(pos)
	top := s.heapTop()
	if top < off {
		copy(s.buf()[top+length:off+length], s.buf()[top:off])
		for i := uint16(0); i < count; i++ {
			if i == pos {
				continue
			}
			o2, l2 := s.slotAt(i)
			if o2 >= top && o2 < off {
				s.setSlotAt(i, o2+length, l2)
			}
		}
	}

	for i := pos; i < count-1; i++ {
		o2, l2 := s.slotAt(i + 1)
		s.setSlotAt(i, o2, l2)
	}
	s.setSlotAt(count-1, 0, common.EmptySlot)
	s.setSlotCount(count - 1)
	s.setFreeSpace(s.FreeSpace() + length + slotEntrySize)
	return nil
}

// NextEntry scans slots starting at fromSlot (1-based, inclusive) for one
// whose key equals key, returning its slot number or EmptySlot if none of
// the remaining slots match. Because entries are sorted, the scan can
// stop as soon as it passes key's position.
func (s *SortedPage) NextEntry(key SearchKey, fromSlot uint16) uint16 {
	count := s.SlotCount()
	for i := fromSlot; i <= count && i > 0; i++ {
		off, length := s.slotAt(i - 1)
		existing := DecodeDataEntry(s.buf()[off : off+length])
		if existing.Key.Equal(key) {
			return i
		}
		if key.Less(existing.Key) {
			break
		}
	}
	return common.EmptySlot
}

// CountEntries returns the number of live entries on the page.
func (s *SortedPage) CountEntries() uint16 {
	return s.SlotCount()
}
