// Package heap implements the heap file: an unordered collection of
// records spread across data pages, addressed through a directory of
// data pages. Grounded on original_source's heap.HeapFile, translated
// into the storage core's Go idiom: explicit *buffer.BufferPool and
// disk.Manager dependencies passed in at construction instead of a
// Minibase singleton, and errors returned instead of thrown.
package heap

import (
	"go.uber.org/zap"

	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/storage/buffer"
	"github.com/ryogrid/minicore/storage/disk"
	"github.com/ryogrid/minicore/storage/page"
	"github.com/ryogrid/minicore/storageerr"
	"github.com/ryogrid/minicore/types"
)

// File is a heap file: a linked list of directory pages, each naming a
// set of data pages and their occupancy.
type File struct {
	bp     *buffer.BufferPool
	dm     disk.Manager
	name   string // empty for a temporary file
	isTemp bool
	headID types.PageID
	log    *zap.Logger
}

// Open opens the named heap file, creating it if the disk manager's file
// library has no entry for that name. An empty name creates a temporary
// file with no library entry.
func Open(name string, bp *buffer.BufferPool, dm disk.Manager, log *zap.Logger) (*File, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f := &File{bp: bp, dm: dm, name: name, isTemp: name == "", log: log}

	if !f.isTemp {
		if id, ok := dm.GetFileEntry(name); ok {
			f.headID = id
			return f, nil
		}
	}

	h, err := bp.NewPage(1)
	if err != nil {
		return nil, err
	}
	dir := page.NewDirPage(h.Page())
	dir.Init(common.DirPageType)
	dir.SetCurPage(h.ID())
	if err := h.Unpin(common.UnpinDirty); err != nil {
		return nil, err
	}
	f.headID = h.ID()
	if !f.isTemp {
		if err := dm.AddFileEntry(name, f.headID); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Close releases the file's in-memory handle. A temporary file (opened
// with an empty name) has no independent existence once its owner is
// done with it, so Close reclaims its pages by calling DeleteFile; a
// named file persists on disk and Close is a no-op for it, since only an
// explicit DeleteFile should ever destroy a caller's named data.
func (f *File) Close() error {
	if f.isTemp {
		return f.DeleteFile()
	}
	return nil
}

// InsertRecord stores record on some data page with enough room,
// allocating a new data (and possibly directory) page if none has
// space, and returns the record's RID.
func (f *File) InsertRecord(record []byte) (types.RID, error) {
	if len(record) > common.MaxRecordSize {
		f.log.Debug("rejected oversized record", zap.Int("length", len(record)))
		return types.RID{}, storageerr.ErrRecordTooLarge
	}

	spot, err := f.getAvailPage(len(record) + 4)
	if err != nil {
		return types.RID{}, err
	}
	// PinDiskIO, not PIN_NOOP: see DESIGN.md's Open Question decisions.
	h, err := f.bp.PinPage(spot, common.PinDiskIO)
	if err != nil {
		return types.RID{}, err
	}
	dp := page.NewDataPage(h.Page())
	dp.SetCurPage(spot)
	rid, err := dp.InsertRecord(record)
	if err != nil {
		h.Unpin(common.UnpinClean)
		return types.RID{}, err
	}
	freeSpace := dp.FreeSpace()
	if err := h.Unpin(common.UnpinDirty); err != nil {
		return types.RID{}, err
	}
	if err := f.updateDirEntry(spot, 1, freeSpace); err != nil {
		return types.RID{}, err
	}
	return types.NewRID(spot, rid), nil
}

// SelectRecord reads the record named by rid.
func (f *File) SelectRecord(rid types.RID) ([]byte, error) {
	h, err := f.bp.PinPage(rid.PageID, common.PinDiskIO)
	if err != nil {
		return nil, err
	}
	defer h.Unpin(common.UnpinClean)
	dp := page.NewDataPage(h.Page())
	return dp.SelectRecord(rid)
}

// UpdateRecord overwrites the record named by rid; the replacement must
// be exactly as long as the record it replaces.
func (f *File) UpdateRecord(rid types.RID, record []byte) error {
	h, err := f.bp.PinPage(rid.PageID, common.PinDiskIO)
	if err != nil {
		return err
	}
	dp := page.NewDataPage(h.Page())
	if err := dp.UpdateRecord(rid, record); err != nil {
		h.Unpin(common.UnpinClean)
		return err
	}
	return h.Unpin(common.UnpinDirty)
}

// DeleteRecord removes the record named by rid, reclaiming its data
// page (and, transitively, an emptied directory page) if that was the
// page's last record.
func (f *File) DeleteRecord(rid types.RID) error {
	h, err := f.bp.PinPage(rid.PageID, common.PinDiskIO)
	if err != nil {
		return err
	}
	dp := page.NewDataPage(h.Page())
	if err := dp.DeleteRecord(rid); err != nil {
		h.Unpin(common.UnpinClean)
		return err
	}
	freeSpace := dp.FreeSpace()
	if err := h.Unpin(common.UnpinDirty); err != nil {
		return err
	}
	return f.updateDirEntry(rid.PageID, -1, freeSpace)
}

// RecCount returns the total number of records across every data page.
func (f *File) RecCount() (int, error) {
	total := 0
	dirID := f.headID
	for dirID != types.InvalidPageID {
		h, err := f.bp.PinPage(dirID, common.PinDiskIO)
		if err != nil {
			return 0, err
		}
		dir := page.NewDirPage(h.Page())
		count := dir.EntryCount()
		for i := uint16(1); i <= count; i++ {
			e, err := dir.EntryAt(i)
			if err != nil {
				h.Unpin(common.UnpinClean)
				return 0, err
			}
			total += int(e.RecCount)
		}
		next := dir.NextPage()
		h.Unpin(common.UnpinClean)
		dirID = next
	}
	return total, nil
}

// DeleteFile frees every data and directory page and, unless this is a
// temporary file, removes the file's library entry.
func (f *File) DeleteFile() error {
	dirID := f.headID
	for dirID != types.InvalidPageID {
		h, err := f.bp.PinPage(dirID, common.PinDiskIO)
		if err != nil {
			return err
		}
		dir := page.NewDirPage(h.Page())
		count := dir.EntryCount()
		for i := uint16(1); i <= count; i++ {
			e, err := dir.EntryAt(i)
			if err != nil {
				continue
			}
			f.bp.FreePage(e.DataPageID)
		}
		next := dir.NextPage()
		h.Unpin(common.UnpinClean)
		f.bp.FreePage(dirID)
		dirID = next
	}
	if !f.isTemp {
		return f.dm.DeleteFileEntry(f.name)
	}
	return nil
}

// OpenScan begins a sequential scan of every record in the file.
func (f *File) OpenScan() *Scan {
	return newScan(f)
}

// getAvailPage finds the first data page with at least reclen bytes
// free, creating a new one if none qualifies.
func (f *File) getAvailPage(reclen int) (types.PageID, error) {
	dirID := f.headID
	for dirID != types.InvalidPageID {
		h, err := f.bp.PinPage(dirID, common.PinDiskIO)
		if err != nil {
			return types.InvalidPageID, err
		}
		dir := page.NewDirPage(h.Page())
		count := dir.EntryCount()
		var found types.PageID = types.InvalidPageID
		for i := uint16(1); i <= count; i++ {
			e, err := dir.EntryAt(i)
			if err != nil {
				continue
			}
			if int(e.FreeCount) >= reclen {
				found = e.DataPageID
				break
			}
		}
		next := dir.NextPage()
		h.Unpin(common.UnpinClean)
		if found != types.InvalidPageID {
			return found, nil
		}
		dirID = next
	}
	return f.insertPage()
}

// findDirEntry locates the directory entry naming dataPageID, returning
// a pinned handle on the directory page it lives on (the caller must
// unpin it) and its 1-based slot number.
func (f *File) findDirEntry(dataPageID types.PageID) (*buffer.PinnedPage, uint16, error) {
	dirID := f.headID
	for dirID != types.InvalidPageID {
		h, err := f.bp.PinPage(dirID, common.PinDiskIO)
		if err != nil {
			return nil, 0, err
		}
		dir := page.NewDirPage(h.Page())
		count := dir.EntryCount()
		for i := uint16(1); i <= count; i++ {
			e, err := dir.EntryAt(i)
			if err != nil {
				continue
			}
			if e.DataPageID == dataPageID {
				return h, i, nil
			}
		}
		next := dir.NextPage()
		h.Unpin(common.UnpinClean)
		dirID = next
	}
	return nil, 0, storageerr.ErrNotFound
}

// updateDirEntry applies deltaRec to dataPageID's record count and sets
// its free count to freeCount, deleting the data page (and possibly its
// directory page) if the record count drops to zero.
func (f *File) updateDirEntry(dataPageID types.PageID, deltaRec int, freeCount uint16) error {
	h, slot, err := f.findDirEntry(dataPageID)
	if err != nil {
		return err
	}
	dir := page.NewDirPage(h.Page())
	e, err := dir.EntryAt(slot)
	if err != nil {
		h.Unpin(common.UnpinClean)
		return err
	}
	recordCount := int(e.RecCount) + deltaRec

	if recordCount >= 1 {
		e.RecCount = uint32(recordCount)
		e.FreeCount = uint32(freeCount)
		if err := dir.UpdateEntry(slot, e); err != nil {
			h.Unpin(common.UnpinClean)
			return err
		}
		return h.Unpin(common.UnpinDirty)
	}
	return f.deletePage(dataPageID, h, dir, slot)
}

// insertPage appends a new, empty data page and its directory entry on
// the first directory page with room, allocating a new directory page at
// the tail first if every existing one is full.
func (f *File) insertPage() (types.PageID, error) {
	dirID := f.headID
	var dirHandle *buffer.PinnedPage
	var dir *page.DirPage
	for {
		h, err := f.bp.PinPage(dirID, common.PinDiskIO)
		if err != nil {
			return types.InvalidPageID, err
		}
		d := page.NewDirPage(h.Page())
		if int(d.EntryCount()) < page.MaxDirEntries {
			dirHandle, dir = h, d
			break
		}
		next := d.NextPage()
		if next == types.InvalidPageID {
			newH, err := f.bp.NewPage(1)
			if err != nil {
				h.Unpin(common.UnpinClean)
				return types.InvalidPageID, err
			}
			newDir := page.NewDirPage(newH.Page())
			newDir.Init(common.DirPageType)
			newDir.SetCurPage(newH.ID())
			newDir.SetPrevPage(dirID)
			d.SetNextPage(newH.ID())
			h.Unpin(common.UnpinDirty)
			dirID = newH.ID()
			dirHandle, dir = newH, newDir
			break
		}
		h.Unpin(common.UnpinClean)
		dirID = next
	}

	dataH, err := f.bp.NewPage(1)
	if err != nil {
		dirHandle.Unpin(common.UnpinClean)
		return types.InvalidPageID, err
	}
	dataPage := page.InitDataPage(dataH.Page())
	dataPage.SetCurPage(dataH.ID())

	if _, err := dir.InsertEntry(page.DirEntry{
		DataPageID: dataH.ID(),
		RecCount:   0,
		FreeCount:  uint32(dataPage.FreeSpace()),
	}); err != nil {
		dataH.Unpin(common.UnpinClean)
		dirHandle.Unpin(common.UnpinClean)
		return types.InvalidPageID, err
	}

	if err := dataH.Unpin(common.UnpinDirty); err != nil {
		return types.InvalidPageID, err
	}
	if err := dirHandle.Unpin(common.UnpinDirty); err != nil {
		return types.InvalidPageID, err
	}
	return dataH.ID(), nil
}

// deletePage frees dataPageID and removes its directory entry. dirHandle
// is a pinned handle on the directory page holding that entry (possibly
// the head); if this leaves a non-head directory page with no entries,
// it is spliced out of the directory list and freed, while the head is
// kept even when empty. deletePage always releases dirHandle.
func (f *File) deletePage(dataPageID types.PageID, dirHandle *buffer.PinnedPage, dir *page.DirPage, slot uint16) error {
	dirID := dirHandle.ID()
	if err := f.bp.FreePage(dataPageID); err != nil {
		dirHandle.Unpin(common.UnpinClean)
		return err
	}
	if err := dir.DeleteEntry(slot); err != nil {
		dirHandle.Unpin(common.UnpinClean)
		return err
	}

	if dir.EntryCount() == 0 && dirID != f.headID {
		left := dir.PrevPage()
		right := dir.NextPage()
		if left != types.InvalidPageID {
			if lh, err := f.bp.PinPage(left, common.PinDiskIO); err == nil {
				page.NewDirPage(lh.Page()).SetNextPage(right)
				lh.Unpin(common.UnpinDirty)
			}
		}
		if right != types.InvalidPageID {
			if rh, err := f.bp.PinPage(right, common.PinDiskIO); err == nil {
				page.NewDirPage(rh.Page()).SetPrevPage(left)
				rh.Unpin(common.UnpinDirty)
			}
		}
		dirHandle.Unpin(common.UnpinClean)
		return f.bp.FreePage(dirID)
	}
	return dirHandle.Unpin(common.UnpinDirty)
}
