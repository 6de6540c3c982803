package heap

import (
	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/storage/buffer"
	"github.com/ryogrid/minicore/storage/page"
	"github.com/ryogrid/minicore/types"
)

// Scan walks every record in a heap file, one directory page and one
// data page at a time. Grounded on the directory-walking loops in
// original_source's heap.HeapFile (getRecCnt, deleteFile): a scan is
// just that same directory traversal, resumable across GetNext calls.
// Per spec.md §4.4, it pins at most one DirPage and one DataPage at a
// time, holding each across calls until the scan advances past it;
// Close releases whichever of the two are still held.
//
// A Scan never re-visits a data page once it has advanced past it, so a
// record deleted after the scan's current position is simply skipped
// rather than causing an error; a record inserted after the current
// position may or may not be observed depending on which data page it
// lands on. Neither case is treated as an error.
type Scan struct {
	f *File

	dirH   *buffer.PinnedPage // currently pinned directory page, nil if none
	dirIdx uint16             // 1-based index of the last directory entry visited

	dataH   *buffer.PinnedPage // currently pinned data page, nil if none
	slotNo  uint16             // 1-based slot last returned on the current data page
	slotMax uint16
	closed  bool
}

func newScan(f *File) *Scan {
	return &Scan{f: f}
}

// GetNext returns the next record's RID and bytes, or ok=false once the
// scan is exhausted.
func (s *Scan) GetNext() (types.RID, []byte, bool, error) {
	if s.closed {
		return types.RID{}, nil, false, nil
	}
	for {
		if s.dataH != nil {
			for s.slotNo < s.slotMax {
				s.slotNo++
				dp := page.NewDataPage(s.dataH.Page())
				rid := types.NewRID(s.dataH.ID(), s.slotNo)
				bytes, err := dp.SelectRecord(rid)
				if err != nil {
					continue // slot was reused/emptied since dirIdx was read
				}
				return rid, bytes, true, nil
			}
			s.dataH.Unpin(common.UnpinClean)
			s.dataH = nil
		}

		if err := s.advanceDirEntry(); err != nil {
			s.closed = true
			return types.RID{}, nil, false, err
		}
		if s.dataH == nil && s.dirH == nil {
			s.closed = true
			return types.RID{}, nil, false, nil
		}
	}
}

// advanceDirEntry moves to the next directory entry's data page, pinning
// it, and following the directory page chain (re-pinning as it goes) as
// entries on the current directory page run out. It returns with dataH
// pinned to the next data page to scan, or with both dirH and dataH nil
// once the directory chain is exhausted.
func (s *Scan) advanceDirEntry() error {
	if s.dirH == nil {
		h, err := s.f.bp.PinPage(s.f.headID, common.PinDiskIO)
		if err != nil {
			return err
		}
		s.dirH = h
		s.dirIdx = 0
	}

	for {
		dir := page.NewDirPage(s.dirH.Page())
		count := dir.EntryCount()
		s.dirIdx++
		if s.dirIdx <= count {
			e, err := dir.EntryAt(s.dirIdx)
			if err != nil {
				continue // entry slot emptied since count was read
			}
			dh, err := s.f.bp.PinPage(e.DataPageID, common.PinDiskIO)
			if err != nil {
				return err
			}
			s.dataH = dh
			s.slotNo = 0
			s.slotMax = page.NewDataPage(dh.Page()).SlotCount()
			return nil
		}

		next := dir.NextPage()
		s.dirH.Unpin(common.UnpinClean)
		if next == types.InvalidPageID {
			s.dirH = nil
			return nil
		}
		nh, err := s.f.bp.PinPage(next, common.PinDiskIO)
		if err != nil {
			s.dirH = nil
			return err
		}
		s.dirH = nh
		s.dirIdx = 0
	}
}

// Close ends the scan, unpinning whichever directory and data page it
// currently holds. Safe to call more than once or on an exhausted scan.
func (s *Scan) Close() {
	if s.dataH != nil {
		s.dataH.Unpin(common.UnpinClean)
		s.dataH = nil
	}
	if s.dirH != nil {
		s.dirH.Unpin(common.UnpinClean)
		s.dirH = nil
	}
	s.closed = true
}
