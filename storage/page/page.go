// Package page implements the typed, byte-buffer-backed page views used
// by every access method in the storage core: a raw fixed-size Page, the
// slotted HFPage layout common to all page kinds, and the specialized
// views (SortedPage, DirPage, DataPage, HashDirPage, HashBucketPage)
// built on top of it. Each view is a transparent wrapper carrying no
// state of its own beyond a pointer to the shared buffer, following the
// same pattern as the upstream project's table.TablePage embedding
// page.Page and exposing typed offset accessors.
package page

import "github.com/ryogrid/minicore/common"

// Page is the fixed-size byte buffer moved between disk and the buffer
// pool. Frame-level metadata (page id, pin count, dirty bit) lives in
// storage/buffer's Frame, not here.
type Page struct {
	data [common.PageSize]byte
}

// Data returns the page's backing buffer.
func (p *Page) Data() []byte {
	return p.data[:]
}

// Reset zeroes the buffer, used when a frame is about to be reinitialized
// for a brand new page.
func (p *Page) Reset() {
	for i := range p.data {
		p.data[i] = 0
	}
}
