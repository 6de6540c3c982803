// Package statichash implements the static hash index: a fixed-depth
// hash directory pointing at primary bucket pages, each an overflow
// chain of sorted pages holding (key, RID) entries. Grounded on
// original_source's index.{HashIndex,HashBucketPage}, translated into
// the storage core's Go idiom the same way storage/heap translates
// heap.HeapFile: explicit buffer pool and disk manager dependencies,
// errors returned rather than thrown.
package statichash

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/storage/buffer"
	"github.com/ryogrid/minicore/storage/disk"
	"github.com/ryogrid/minicore/storage/page"
	"github.com/ryogrid/minicore/storageerr"
	"github.com/ryogrid/minicore/types"
)

// depth fixes the directory at 2^depth = 128 primary buckets.
const depth = common.HashDepth

// Index is a static hash index over a fixed key domain.
type Index struct {
	bp     *buffer.BufferPool
	dm     disk.Manager
	name   string
	isTemp bool
	headID types.PageID
	log    *zap.Logger
}

// Open opens the named hash index, creating it if the disk manager's
// file library has no entry for that name. An empty name creates a
// temporary index with no library entry.
func Open(name string, bp *buffer.BufferPool, dm disk.Manager, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}
	idx := &Index{bp: bp, dm: dm, name: name, isTemp: name == "", log: log}

	if !idx.isTemp {
		if id, ok := dm.GetFileEntry(name); ok {
			idx.headID = id
			return idx, nil
		}
	}

	h, err := bp.NewPage(1)
	if err != nil {
		return nil, err
	}
	page.InitHashDirPage(h.Page())
	if err := h.Unpin(common.UnpinDirty); err != nil {
		return nil, err
	}
	idx.headID = h.ID()
	if !idx.isTemp {
		if err := dm.AddFileEntry(name, idx.headID); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Close releases the index's in-memory handle. A temporary index
// (opened with an empty name) has no independent existence once its
// owner is done with it, so Close reclaims its pages by calling
// DeleteFile; a named index persists on disk and Close is a no-op for
// it, since only an explicit DeleteFile should ever destroy a caller's
// named data.
func (idx *Index) Close() error {
	if idx.isTemp {
		return idx.DeleteFile()
	}
	return nil
}

// locateDirSlot walks the hash directory's page chain to the page and
// local slot holding the primary bucket pointer for key. The directory
// page is returned pinned; the caller must unpin the handle.
func (idx *Index) locateDirSlot(key page.SearchKey) (*page.HashDirPage, *buffer.PinnedPage, int, error) {
	hash := int(key.Hash(depth))
	dirID := idx.headID
	for hash >= page.MaxHashDirEntries {
		h, err := idx.bp.PinPage(dirID, common.PinDiskIO)
		if err != nil {
			return nil, nil, 0, err
		}
		dir := page.NewHashDirPage(h.Page())
		next := dir.NextPage()
		h.Unpin(common.UnpinClean)
		hash -= page.MaxHashDirEntries
		dirID = next
	}
	h, err := idx.bp.PinPage(dirID, common.PinDiskIO)
	if err != nil {
		return nil, nil, 0, err
	}
	return page.NewHashDirPage(h.Page()), h, hash, nil
}

// InsertEntry adds (key, rid) to the bucket key hashes to, recursing
// into overflow pages (allocating a new one if the chain is exhausted)
// when the primary bucket page has no room.
func (idx *Index) InsertEntry(key page.SearchKey, rid types.RID) error {
	entry := page.DataEntry{Key: key, RID: rid}
	if entry.Length() > page.MaxHashEntrySize {
		idx.log.Debug("rejected oversized entry", zap.Int("length", entry.Length()))
		return storageerr.ErrEntryTooLarge
	}

	dir, dh, slot, err := idx.locateDirSlot(key)
	if err != nil {
		return err
	}

	bucketID := dir.Entry(slot)
	if bucketID == types.InvalidPageID {
		newH, err := idx.bp.NewPage(1)
		if err != nil {
			dh.Unpin(common.UnpinClean)
			return err
		}
		page.InitHashBucketPage(newH.Page())
		dir.SetEntry(slot, newH.ID())
		dh.Unpin(common.UnpinDirty)
		bucketID = newH.ID()
		newH.Unpin(common.UnpinDirty)
	} else {
		dh.Unpin(common.UnpinClean)
	}

	return idx.insertIntoBucket(bucketID, entry)
}

// insertIntoBucket recurses down a bucket's overflow chain, allocating a
// new overflow page at the tail if every existing page is full.
func (idx *Index) insertIntoBucket(bucketID types.PageID, entry page.DataEntry) error {
	h, err := idx.bp.PinPage(bucketID, common.PinDiskIO)
	if err != nil {
		return err
	}
	bucket := page.NewHashBucketPage(h.Page())

	if err := bucket.InsertEntry(entry); err == nil {
		return h.Unpin(common.UnpinDirty)
	} else if err != storageerr.ErrSpaceExhausted {
		h.Unpin(common.UnpinClean)
		return err
	}

	next := bucket.NextPage()
	if next != types.InvalidPageID {
		h.Unpin(common.UnpinClean)
		return idx.insertIntoBucket(next, entry)
	}

	newH, err := idx.bp.NewPage(1)
	if err != nil {
		h.Unpin(common.UnpinClean)
		return err
	}
	page.InitHashBucketPage(newH.Page())
	bucket.SetNextPage(newH.ID())
	newBucketID := newH.ID()
	if err := newH.Unpin(common.UnpinDirty); err != nil {
		h.Unpin(common.UnpinClean)
		return err
	}
	if err := h.Unpin(common.UnpinDirty); err != nil {
		return err
	}
	return idx.insertIntoBucket(newBucketID, entry)
}

// DeleteEntry removes (key, rid) from its bucket's overflow chain,
// splicing out any overflow page that becomes empty as a result.
func (idx *Index) DeleteEntry(key page.SearchKey, rid types.RID) error {
	entry := page.DataEntry{Key: key, RID: rid}

	dir, dh, slot, err := idx.locateDirSlot(key)
	if err != nil {
		return err
	}
	bucketID := dir.Entry(slot)
	dh.Unpin(common.UnpinClean)
	if bucketID == types.InvalidPageID {
		return storageerr.ErrNotFound
	}
	_, _, err = idx.deleteFromBucket(bucketID, entry)
	return err
}

// deleteFromBucket removes entry from the overflow chain rooted at
// pageID. It mirrors original_source's HashBucketPage.deleteEntry: try
// this page first, otherwise recurse into the next page, then - once
// the recursive call reports the next page's post-deletion entry count -
// splice that page out of the chain if it's now empty. Returns whether
// pageID itself ended up dirty and pageID's own live entry count.
func (idx *Index) deleteFromBucket(pageID types.PageID, entry page.DataEntry) (dirty bool, count int, err error) {
	h, err := idx.bp.PinPage(pageID, common.PinDiskIO)
	if err != nil {
		return false, 0, err
	}
	bucket := page.NewHashBucketPage(h.Page())

	if err := bucket.DeleteEntry(entry); err == nil {
		count = int(bucket.CountEntries())
		return true, count, h.Unpin(common.UnpinDirty)
	} else if err != storageerr.ErrNotFound {
		h.Unpin(common.UnpinClean)
		return false, 0, err
	}

	next := bucket.NextPage()
	if next == types.InvalidPageID {
		h.Unpin(common.UnpinClean)
		return false, 0, storageerr.ErrNotFound
	}

	_, nextCount, err := idx.deleteFromBucket(next, entry)
	if err != nil {
		h.Unpin(common.UnpinClean)
		return false, 0, err
	}

	if nextCount < 1 {
		nextH, err := idx.bp.PinPage(next, common.PinDiskIO)
		if err != nil {
			h.Unpin(common.UnpinClean)
			return false, 0, err
		}
		nextNext := page.NewHashBucketPage(nextH.Page()).NextPage()
		nextH.Unpin(common.UnpinClean)
		bucket.SetNextPage(nextNext)
		if err := idx.bp.FreePage(next); err != nil {
			h.Unpin(common.UnpinClean)
			return false, 0, err
		}
		count = int(bucket.CountEntries())
		return true, count, h.Unpin(common.UnpinDirty)
	}
	count = int(bucket.CountEntries())
	return false, count, h.Unpin(common.UnpinClean)
}

// OpenScan begins an equality scan for key.
func (idx *Index) OpenScan(key page.SearchKey) (*Scan, error) {
	return newScan(idx, key)
}

// DeleteFile frees every directory and bucket page and, unless this is
// a temporary index, removes the file's library entry.
func (idx *Index) DeleteFile() error {
	dirID := idx.headID
	for dirID != types.InvalidPageID {
		h, err := idx.bp.PinPage(dirID, common.PinDiskIO)
		if err != nil {
			return err
		}
		dir := page.NewHashDirPage(h.Page())
		for i := 0; i < page.MaxHashDirEntries; i++ {
			bucketID := dir.Entry(i)
			for bucketID != types.InvalidPageID {
				bh, err := idx.bp.PinPage(bucketID, common.PinDiskIO)
				if err != nil {
					h.Unpin(common.UnpinClean)
					return err
				}
				next := page.NewHashBucketPage(bh.Page()).NextPage()
				bh.Unpin(common.UnpinClean)
				idx.bp.FreePage(bucketID)
				bucketID = next
			}
		}
		next := dir.NextPage()
		h.Unpin(common.UnpinClean)
		idx.bp.FreePage(dirID)
		dirID = next
	}
	if !idx.isTemp {
		return idx.dm.DeleteFileEntry(idx.name)
	}
	return nil
}

// PrintSummary writes a per-bucket occupancy report to w, in the same
// shape as original_source's HashIndex.printSummary: a binary directory
// index per line, that bucket's entry count (or "null" if unallocated),
// and a grand total.
func (idx *Index) PrintSummary(w io.Writer) error {
	label := idx.name
	if idx.isTemp {
		label = "Temp"
	}
	fmt.Fprintf(w, "<%s>\n", label)

	total := 0
	dirID := idx.headID
	base := 0
	for dirID != types.InvalidPageID {
		h, err := idx.bp.PinPage(dirID, common.PinDiskIO)
		if err != nil {
			return err
		}
		dir := page.NewHashDirPage(h.Page())
		for i := 0; i < page.MaxHashDirEntries && base+i < 1<<depth; i++ {
			bucketID := dir.Entry(i)
			binLabel := binaryLabel(base+i, depth)
			if bucketID == types.InvalidPageID {
				fmt.Fprintf(w, "%s : null\n", binLabel)
				continue
			}
			count, err := idx.countBucketChain(bucketID)
			if err != nil {
				h.Unpin(common.UnpinClean)
				return err
			}
			fmt.Fprintf(w, "%s : %d\n", binLabel, count)
			total += count
		}
		next := dir.NextPage()
		h.Unpin(common.UnpinClean)
		base += page.MaxHashDirEntries
		dirID = next
	}
	fmt.Fprintf(w, "Total : %d\n", total)
	return nil
}

// countBucketChain sums live entries across a bucket's primary page and
// every overflow page chained after it, per original_source's
// HashBucketPage.countEntries (applied only to a bucket's primary page).
func (idx *Index) countBucketChain(bucketID types.PageID) (int, error) {
	total := 0
	for bucketID != types.InvalidPageID {
		h, err := idx.bp.PinPage(bucketID, common.PinDiskIO)
		if err != nil {
			return 0, err
		}
		bucket := page.NewHashBucketPage(h.Page())
		total += int(bucket.CountEntries())
		next := bucket.NextPage()
		h.Unpin(common.UnpinClean)
		bucketID = next
	}
	return total, nil
}

func binaryLabel(v, width int) string {
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = byte('0' + v&1)
		v >>= 1
	}
	return string(buf)
}
