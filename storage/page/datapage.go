package page

import "github.com/ryogrid/minicore/common"

// DataPage is a plain HFPage holding heap file records. The distinct
// type exists only to document intent at call sites and to seed the
// header's page type tag; it adds no fields.
type DataPage struct {
	*HFPage
}

func NewDataPage(pg *Page) *DataPage {
	return &DataPage{HFPage: NewHFPage(pg)}
}

// InitDataPage resets pg into an empty data page.
func InitDataPage(pg *Page) *DataPage {
	d := NewDataPage(pg)
	d.Init(common.DataPageType)
	return d
}
