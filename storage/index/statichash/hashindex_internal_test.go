package statichash

import (
	"testing"

	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/storage/buffer"
	"github.com/ryogrid/minicore/storage/disk"
	"github.com/ryogrid/minicore/storage/page"
	"github.com/ryogrid/minicore/types"
)

// TestDeleteAllCollapsesOverflowChain checks the splice-out path in
// deleteFromBucket against a real multi-page chain, not just a single
// overflow page: after every colliding entry is deleted, the bucket's
// chain must collapse back to its primary page alone, and every
// overflow page along the way must have been spliced out and freed.
func TestDeleteAllCollapsesOverflowChain(t *testing.T) {
	dm := disk.NewMemManager(nil)
	bp := buffer.NewBufferPool(8, dm, nil)
	idx, err := Open("", bp, dm, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	key := page.NewIntKey(1)

	const n = 200
	rids := make([]types.RID, n)
	for i := 0; i < n; i++ {
		rid := types.NewRID(types.PageID(i), uint16(i%50+1))
		rids[i] = rid
		if err := idx.InsertEntry(key, rid); err != nil {
			t.Fatalf("InsertEntry(%d): %v", i, err)
		}
	}

	dir, dh, slot, err := idx.locateDirSlot(key)
	if err != nil {
		t.Fatalf("locateDirSlot: %v", err)
	}
	bucketID := dir.Entry(slot)
	dh.Unpin(common.UnpinClean)
	if bucketID == types.InvalidPageID {
		t.Fatalf("expected a primary bucket page after inserting")
	}

	chainLen := func() int {
		count := 0
		id := bucketID
		for id != types.InvalidPageID {
			count++
			h, err := bp.PinPage(id, common.PinDiskIO)
			if err != nil {
				t.Fatalf("PinPage: %v", err)
			}
			next := page.NewHashBucketPage(h.Page()).NextPage()
			h.Unpin(common.UnpinClean)
			id = next
		}
		return count
	}

	if got := chainLen(); got <= 1 {
		t.Fatalf("chain length before deleting = %d, want > 1 (200 colliding entries should overflow)", got)
	}

	for i := 0; i < n; i++ {
		if err := idx.DeleteEntry(key, rids[i]); err != nil {
			t.Fatalf("DeleteEntry(%d): %v", i, err)
		}
	}

	if got := chainLen(); got != 1 {
		t.Fatalf("chain length after deleting every entry = %d, want 1 (primary bucket only)", got)
	}

	count, err := idx.countBucketChain(bucketID)
	if err != nil {
		t.Fatalf("countBucketChain: %v", err)
	}
	if count != 0 {
		t.Fatalf("countBucketChain after deleting every entry = %d, want 0", count)
	}
}
