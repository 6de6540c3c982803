// Package storageerr collects the sentinel errors raised by the storage
// core, following the flat errors.New convention the rest of the module
// uses instead of a custom error-type hierarchy.
package storageerr

import "errors"

var (
	// ErrRecordTooLarge is returned by HeapFile.InsertRecord when a
	// record can never fit on any data page.
	ErrRecordTooLarge = errors.New("minicore: record exceeds max record size")

	// ErrEntryTooLarge is returned by HashIndex.InsertEntry when a
	// DataEntry can never fit on any bucket page.
	ErrEntryTooLarge = errors.New("minicore: index entry exceeds max entry size")

	// ErrSpaceExhausted is raised internally by HFPage.InsertRecord and
	// SortedPage.InsertEntry. Callers always catch it locally (allocate
	// a new page, or recurse into the overflow chain); it must never
	// reach a client of HeapFile or HashIndex.
	ErrSpaceExhausted = errors.New("minicore: page has no room for record")

	// ErrInvalidRID means an RID's slot number is out of range, zero, or
	// names an already-deleted record.
	ErrInvalidRID = errors.New("minicore: rid does not name a live record")

	// ErrInvalidUpdate means an update supplied a record of a different
	// length than the one it is replacing.
	ErrInvalidUpdate = errors.New("minicore: update record length mismatch")

	// ErrNotFound means a delete could not find the requested entry.
	ErrNotFound = errors.New("minicore: entry not found")

	// ErrAlreadyPinned is raised by BufferPool.PinPage when PIN_MEMCPY
	// targets a page that is already pinned.
	ErrAlreadyPinned = errors.New("minicore: page already pinned for PIN_MEMCPY")

	// ErrNotPinned is raised internally when a PinnedPage.Unpin call
	// targets a page that is not resident, or resident with a zero pin
	// count. Unreachable through normal use of PinnedPage, which every
	// pin/unpin call goes through.
	ErrNotPinned = errors.New("minicore: page is not pinned")

	// ErrPoolExhausted means every frame is pinned; the clock replacer
	// completed its rotation bound without finding a victim.
	ErrPoolExhausted = errors.New("minicore: buffer pool exhausted")

	// ErrPinnedFree is raised by BufferPool.FreePage on a pinned page.
	ErrPinnedFree = errors.New("minicore: cannot free a pinned page")
)
