package types

import (
	"bytes"
	"encoding/binary"

	"github.com/ryogrid/minicore/common"
)

// PageID identifies a page on disk. InvalidPageID means "no page".
type PageID int32

// InvalidPageID is the typed form of common.InvalidPageID.
const InvalidPageID = PageID(common.InvalidPageID)

// IsValid reports whether id names a real page.
func (id PageID) IsValid() bool {
	return id != InvalidPageID
}

// Serialize renders id as little-endian bytes.
func (id PageID) Serialize() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, id)
	return buf.Bytes()
}

// NewPageIDFromBytes reads a PageID out of its little-endian encoding.
func NewPageIDFromBytes(data []byte) (id PageID) {
	binary.Read(bytes.NewReader(data), binary.LittleEndian, &id)
	return id
}
