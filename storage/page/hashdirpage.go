package page

import (
	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/types"
)

// MaxHashDirEntries is how many bucket-pointer slots fit on one
// HashDirPage: the header reuses HFPage's Prev/Next/Cur/Type fields for
// chaining, but entries are a flat indexed PageID array rather than an
// HFPage slot directory, since a hash directory is addressed by integer
// index (hash(key) mod 2^depth), not by an assigned slot number.
const MaxHashDirEntries = (common.PageSize - headerSize) / 4

// HashDirPage is one page of the flat hash directory: entries[i] is the
// primary bucket page id for hash suffix i, or InvalidPageID if unused.
// When the directory needs more entries than fit on one page, pages
// chain via NextPage.
type HashDirPage struct {
	*HFPage
}

func NewHashDirPage(pg *Page) *HashDirPage {
	return &HashDirPage{HFPage: NewHFPage(pg)}
}

// InitHashDirPage resets pg into an empty hash directory page with every
// entry set to InvalidPageID.
func InitHashDirPage(pg *Page) *HashDirPage {
	h := NewHashDirPage(pg)
	h.Init(common.HashDirPageType)
	for i := 0; i < MaxHashDirEntries; i++ {
		h.SetEntry(i, types.InvalidPageID)
	}
	return h
}

func (h *HashDirPage) entryOffset(i int) int {
	return headerSize + i*4
}

// Entry returns the bucket page id stored at local index i.
func (h *HashDirPage) Entry(i int) types.PageID {
	off := h.entryOffset(i)
	return types.NewPageIDFromBytes(h.buf()[off:])
}

// SetEntry stores id at local index i.
func (h *HashDirPage) SetEntry(i int, id types.PageID) {
	off := h.entryOffset(i)
	copy(h.buf()[off:], id.Serialize())
}
