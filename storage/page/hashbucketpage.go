package page

import "github.com/ryogrid/minicore/common"

// MaxHashEntrySize bounds a single hash bucket entry (key + RID); larger
// keys aren't supported since a lone entry must always fit on an empty
// bucket page.
const MaxHashEntrySize = 1000

// HashBucketPage is a SortedPage holding DataEntry values that hash to
// the same directory slot, chained to overflow pages via NextPage when
// full.
type HashBucketPage struct {
	*SortedPage
}

func NewHashBucketPage(pg *Page) *HashBucketPage {
	return &HashBucketPage{SortedPage: NewSortedPage(pg)}
}

// InitHashBucketPage resets pg into an empty hash bucket page.
func InitHashBucketPage(pg *Page) *HashBucketPage {
	b := NewHashBucketPage(pg)
	b.Init(common.HashBucketPageType)
	return b
}
