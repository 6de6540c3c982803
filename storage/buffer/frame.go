// Package buffer implements the buffer pool: a fixed set of in-memory
// frames caching disk pages, replaced under a clock (second-chance)
// policy when the pool is full. Grounded on the upstream project's own
// buffer.BufferPoolManager and ClockReplacer, generalized to the pin/
// unpin/new/free/flush contract this storage core requires and to the
// PageID-keyed page.Page views defined in storage/page.
package buffer

import (
	"github.com/ryogrid/minicore/storage/page"
	"github.com/ryogrid/minicore/types"
)

// frameID indexes into BufferPool's fixed frame array.
type frameID int

// frame holds one resident page plus the bookkeeping the clock replacer
// and pin/unpin protocol need: which page occupies it, how many callers
// currently hold it pinned, whether it's been referenced since the clock
// hand last passed over it, and whether its contents differ from disk.
type frame struct {
	pg         *page.Page
	pageID     types.PageID
	pinCount   int
	referenced bool
	dirty      bool
}

func (f *frame) reset() {
	f.pg = nil
	f.pageID = types.InvalidPageID
	f.pinCount = 0
	f.referenced = false
	f.dirty = false
}
