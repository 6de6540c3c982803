// Package disk is the external collaborator the buffer pool talks to: raw
// block I/O, page allocation, and the named-file registry. HeapFile and
// Index also hold a direct reference to it, since the named-file
// registry (open-by-name, delete-file) is their concern, not the buffer
// pool's.
package disk

import "github.com/ryogrid/minicore/types"

// Manager is the disk-manager contract consumed by storage/buffer.
// BufferPool is the only component that allocates, frees, reads or
// writes pages through it; heap.File and statichash.Index call only the
// named-file registry methods.
type Manager interface {
	// AllocatePages reserves a contiguous run of runSize pages and
	// returns the id of the first one.
	AllocatePages(runSize int) (types.PageID, error)

	// DeallocatePage releases a single page back to the free space
	// manager.
	DeallocatePage(id types.PageID) error

	// ReadPage reads one page-sized block into buf.
	ReadPage(id types.PageID, buf []byte) error

	// WritePage writes one page-sized block from buf.
	WritePage(id types.PageID, buf []byte) error

	// GetFileEntry looks up the head page id registered under name.
	GetFileEntry(name string) (types.PageID, bool)

	// AddFileEntry registers name -> id in the named-file registry.
	AddFileEntry(name string, id types.PageID) error

	// DeleteFileEntry removes name from the named-file registry.
	DeleteFileEntry(name string) error

	// Close releases any underlying OS resources.
	Close() error
}
