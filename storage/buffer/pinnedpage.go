package buffer

import (
	"github.com/ryogrid/minicore/storage/page"
	"github.com/ryogrid/minicore/types"
)

// PinnedPage is a scoped handle to a frame pinned by PinPage or NewPage.
// Unpin is the only way to release the pin it holds; a caller typically
// writes `defer h.Unpin(dirty)` right after acquiring the handle so
// every return path — including error returns — releases it, instead
// of hand-writing an UnpinPage call on each branch.
type PinnedPage struct {
	bp       *BufferPool
	id       types.PageID
	pg       *page.Page
	unpinned bool
}

// ID is the page id this handle pins.
func (p *PinnedPage) ID() types.PageID { return p.id }

// Page is the pinned frame's buffer view.
func (p *PinnedPage) Page() *page.Page { return p.pg }

// Unpin releases the pin, marking the page dirty if isDirty is true.
// Calling Unpin more than once is safe; only the first call has any
// effect, so a deferred Unpin(false) after an earlier explicit
// Unpin(true) does not double-decrement the pin count.
func (p *PinnedPage) Unpin(isDirty bool) error {
	if p.unpinned {
		return nil
	}
	p.unpinned = true
	return p.bp.unpinPage(p.id, isDirty)
}
