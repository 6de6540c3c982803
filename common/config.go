// Package common centralizes the constants and tunables shared by every
// storage-core package, following the same flat const/var layout the
// upstream project uses for its own configuration.
package common

// PageSize is the fixed size, in bytes, of every page moved between disk
// and the buffer pool.
const PageSize = 1024

// MaxRecordSize is the largest record a data page will accept in a single
// insert. Records larger than this can never fit regardless of page
// layout, so HeapFile rejects them before touching the buffer pool.
const MaxRecordSize = 1004

// InvalidPageID is the sentinel meaning "no page".
const InvalidPageID = -1

// EmptySlot is both the reserved zero slot number and the marker written
// into a slot directory entry's length field when the slot holds no
// record.
const EmptySlot = 0

// Pin modes control how PinPage fills a newly resident frame.
const (
	PinDiskIO = iota
	PinMemCopy
	PinNoOp
)

// Unpin dirty flags, spelled out for readability at call sites.
const (
	UnpinClean = false
	UnpinDirty = true
)

// HFPage type tags, written into a page's type field on creation.
const (
	DirPageType = 10 + iota
	DataPageType
	HashDirPageType
	HashBucketPageType
)

// HashDepth fixes the number of hash-directory slots at 2^HashDepth = 128.
const HashDepth = 7

// EnableDebugLog turns on a Debug log line from the buffer pool for each
// page it makes resident in a frame. Off by default; it only has a
// visible effect when the pool is given a real *zap.Logger instead of
// the no-op default.
var EnableDebugLog = false
