package statichash

import (
	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/storage/page"
	"github.com/ryogrid/minicore/types"
)

// Scan is an equality scan over one hash index key: it walks the
// primary bucket page for that key's hash slot and every overflow page
// chained after it. Grounded on original_source's index.HashScan.
type Scan struct {
	idx *Index
	key page.SearchKey

	curPageID types.PageID
	curSlot   uint16
	done      bool
}

func newScan(idx *Index, key page.SearchKey) (*Scan, error) {
	dir, dh, slot, err := idx.locateDirSlot(key)
	if err != nil {
		return nil, err
	}
	bucketID := dir.Entry(slot)
	dh.Unpin(common.UnpinClean)

	s := &Scan{idx: idx, key: key, curPageID: bucketID}
	if bucketID == types.InvalidPageID {
		s.done = true
	}
	return s, nil
}

// GetNext returns the next matching RID, or ok=false once the scan is
// exhausted.
func (s *Scan) GetNext() (types.RID, bool, error) {
	if s.done {
		return types.RID{}, false, nil
	}
	for s.curPageID != types.InvalidPageID {
		h, err := s.idx.bp.PinPage(s.curPageID, common.PinDiskIO)
		if err != nil {
			return types.RID{}, false, err
		}
		bucket := page.NewHashBucketPage(h.Page())
		slot := bucket.NextEntry(s.key, s.curSlot+1)
		if slot != common.EmptySlot {
			e, err := bucket.EntryAt(slot)
			h.Unpin(common.UnpinClean)
			if err != nil {
				return types.RID{}, false, err
			}
			s.curSlot = slot
			return e.RID, true, nil
		}
		next := bucket.NextPage()
		h.Unpin(common.UnpinClean)
		s.curPageID = next
		s.curSlot = 0
	}
	s.done = true
	return types.RID{}, false, nil
}

// Close ends the scan. Since Scan never leaves a page pinned between
// GetNext calls, this only marks the scan exhausted.
func (s *Scan) Close() {
	s.done = true
}
