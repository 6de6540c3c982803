package buffer

import (
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"

	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/storage/disk"
	"github.com/ryogrid/minicore/storage/page"
	"github.com/ryogrid/minicore/storageerr"
	"github.com/ryogrid/minicore/types"
)

// BufferPool is the fixed-size cache of disk pages every access method
// pins pages through. Grounded on the upstream project's own
// BufferPoolManager (free list + clock replacer + page table), replaced
// here with an explicit pin-count/reference-bit frame array so PinPage
// can honor the three pin modes and NewPage/FreePage can report the
// exact failure conditions the storage core's callers need to see.
type BufferPool struct {
	mu        deadlock.Mutex
	dm        disk.Manager
	frames    []*frame
	pageTable map[types.PageID]frameID
	freeList  []frameID
	replacer  *clockReplacer
	log       *zap.Logger
}

// NewBufferPool allocates a pool of numFrames empty frames backed by dm.
func NewBufferPool(numFrames int, dm disk.Manager, log *zap.Logger) *BufferPool {
	if log == nil {
		log = zap.NewNop()
	}
	frames := make([]*frame, numFrames)
	freeList := make([]frameID, numFrames)
	for i := 0; i < numFrames; i++ {
		frames[i] = &frame{pageID: types.InvalidPageID}
		freeList[i] = frameID(i)
	}
	b := &BufferPool{
		dm:        dm,
		frames:    frames,
		pageTable: make(map[types.PageID]frameID),
		freeList:  freeList,
		log:       log,
	}
	b.replacer = newClockReplacer(&b.frames)
	return b
}

// NumFrames is the pool's fixed capacity.
func (b *BufferPool) NumFrames() int {
	return len(b.frames)
}

// NumUnpinned counts frames currently eligible for replacement.
func (b *BufferPool) NumUnpinned() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, f := range b.frames {
		if f.pageID != types.InvalidPageID && f.pinCount == 0 {
			n++
		}
	}
	return n
}

// pickFrame returns a frame to (re)use: from the free list first, or by
// evicting the clock replacer's victim. The returned frame is flushed to
// disk first if it held a dirty page.
func (b *BufferPool) pickFrame() (frameID, error) {
	if len(b.freeList) > 0 {
		id := b.freeList[0]
		b.freeList = b.freeList[1:]
		return id, nil
	}
	id, ok := b.replacer.victim()
	if !ok {
		return 0, storageerr.ErrPoolExhausted
	}
	f := b.frames[id]
	if f.pageID != types.InvalidPageID {
		if f.dirty {
			if err := b.dm.WritePage(f.pageID, f.pg.Data()); err != nil {
				return 0, err
			}
		}
		delete(b.pageTable, f.pageID)
	}
	return id, nil
}

// PinPage returns a handle on the page for id, loading it from disk if
// it isn't already resident. mode controls how a newly resident frame
// is filled: PinDiskIO reads the page from disk, PinMemCopy leaves a
// freshly zeroed buffer for the caller to fill in (used by NewPage),
// and PinNoOp likewise skips the disk read and hands back a zeroed
// buffer (for a caller about to overwrite the whole page). Pinning an
// already-resident page with PinMemCopy while someone else holds it
// fails with ErrAlreadyPinned, since PIN_MEMCPY promises the caller
// exclusive control over the frame's contents. The returned handle must
// be released with its own Unpin.
func (b *BufferPool) PinPage(id types.PageID, mode int) (*PinnedPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pg, err := b.pinLocked(id, mode)
	if err != nil {
		return nil, err
	}
	return &PinnedPage{bp: b, id: id, pg: pg}, nil
}

func (b *BufferPool) pinLocked(id types.PageID, mode int) (*page.Page, error) {
	if fid, ok := b.pageTable[id]; ok {
		f := b.frames[fid]
		if mode == common.PinMemCopy && f.pinCount > 0 {
			return nil, storageerr.ErrAlreadyPinned
		}
		f.pinCount++
		f.referenced = true
		return f.pg, nil
	}

	fid, err := b.pickFrame()
	if err != nil {
		return nil, err
	}
	f := b.frames[fid]
	f.reset()
	f.pageID = id
	f.pg = &page.Page{}
	f.pinCount = 1
	f.referenced = true

	if mode == common.PinDiskIO {
		if err := b.dm.ReadPage(id, f.pg.Data()); err != nil {
			f.reset()
			b.freeList = append(b.freeList, fid)
			return nil, err
		}
	}

	b.pageTable[id] = fid
	if common.EnableDebugLog {
		b.log.Debug("pinned page", zap.Int32("page_id", int32(id)), zap.Int("frame", int(fid)))
	}
	return f.pg, nil
}

// unpinPage releases one pin held on id. isDirty marks the page dirty if
// true; it never clears a dirty bit already set by a prior unpin. Only
// PinnedPage.Unpin calls this — it is the sole release path for a pin
// handed out by PinPage or NewPage.
func (b *BufferPool) unpinPage(id types.PageID, isDirty bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	fid, ok := b.pageTable[id]
	if !ok {
		return storageerr.ErrNotPinned
	}
	f := b.frames[fid]
	if f.pinCount == 0 {
		return storageerr.ErrNotPinned
	}
	f.pinCount--
	if isDirty {
		f.dirty = true
	}
	return nil
}

// NewPage allocates a fresh run of runSize contiguous disk pages and
// returns a handle on the first one, pinned with an empty buffer the
// caller is expected to initialize, via the same PinMemCopy path
// PinPage exposes to direct callers. If a later step fails, the caller
// must Unpin the returned handle to avoid leaking the pin; per spec.md
// §9, a PinPage failure after a successful AllocatePages leaks the
// whole run, first page included, rather than deallocating it.
func (b *BufferPool) NewPage(runSize int) (*PinnedPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, err := b.dm.AllocatePages(runSize)
	if err != nil {
		return nil, err
	}
	pg, err := b.pinLocked(id, common.PinMemCopy)
	if err != nil {
		return nil, err
	}
	return &PinnedPage{bp: b, id: id, pg: pg}, nil
}

// FreePage releases id's on-disk storage. The page must not currently be
// pinned by anyone.
func (b *BufferPool) FreePage(id types.PageID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if fid, ok := b.pageTable[id]; ok {
		f := b.frames[fid]
		if f.pinCount > 0 {
			return storageerr.ErrPinnedFree
		}
		delete(b.pageTable, id)
		f.reset()
		b.freeList = append(b.freeList, fid)
	}
	return b.dm.DeallocatePage(id)
}

// FlushAll writes every dirty resident page back to disk.
func (b *BufferPool) FlushAll() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, fid := range b.pageTable {
		f := b.frames[fid]
		if !f.dirty {
			continue
		}
		if err := b.dm.WritePage(id, f.pg.Data()); err != nil {
			return err
		}
		f.dirty = false
	}
	return nil
}
