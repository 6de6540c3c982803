package buffer

import (
	"testing"

	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/storage/disk"
	"github.com/ryogrid/minicore/types"
)

// TestClockEvictionOrderMatchesPinOrder is a white-box check of spec.md's
// scenario S3: with a pool of N frames, pinning then unpinning N pages in
// construction order must assign them frames 0..N-1 in that same order,
// so that the clock replacer's later eviction choices land on the pages
// actually pinned first. A free list popped from the wrong end silently
// reverses this without tripping any black-box test, since none of them
// inspect which frame a page id landed in.
func TestClockEvictionOrderMatchesPinOrder(t *testing.T) {
	dm := disk.NewMemManager(nil)
	bp := NewBufferPool(4, dm, nil)

	ids := make([]types.PageID, 4)
	for i := range ids {
		h, err := bp.NewPage(1)
		if err != nil {
			t.Fatalf("NewPage %d: %v", i, err)
		}
		ids[i] = h.ID()
		if err := h.Unpin(common.UnpinClean); err != nil {
			t.Fatalf("Unpin %d: %v", i, err)
		}
	}

	for i, id := range ids {
		fid, ok := bp.pageTable[id]
		if !ok || fid != frameID(i) {
			t.Fatalf("page %d (id %v) landed in frame %v, want frame %d", i, id, fid, i)
		}
	}

	// All four frames are unpinned with referenced=true; a fifth page
	// must evict frame 0 - the first page pinned (P1) - not frame 3.
	h5, err := bp.NewPage(1)
	if err != nil {
		t.Fatalf("NewPage 5th: %v", err)
	}
	if fid := bp.pageTable[h5.ID()]; fid != 0 {
		t.Fatalf("5th page landed in frame %v, want frame 0 (P1's frame)", fid)
	}
	if _, stillResident := bp.pageTable[ids[0]]; stillResident {
		t.Fatalf("P1 (id %v) should have been evicted by the 5th NewPage", ids[0])
	}
	if err := h5.Unpin(common.UnpinClean); err != nil {
		t.Fatalf("Unpin 5th: %v", err)
	}

	// The clock hand has moved on; a sixth page must evict frame 1 - P2's
	// frame - continuing the same first-pinned-first-evicted order.
	h6, err := bp.NewPage(1)
	if err != nil {
		t.Fatalf("NewPage 6th: %v", err)
	}
	if fid := bp.pageTable[h6.ID()]; fid != 1 {
		t.Fatalf("6th page landed in frame %v, want frame 1 (P2's frame)", fid)
	}
	if _, stillResident := bp.pageTable[ids[1]]; stillResident {
		t.Fatalf("P2 (id %v) should have been evicted by the 6th NewPage", ids[1])
	}
	h6.Unpin(common.UnpinClean)
}
