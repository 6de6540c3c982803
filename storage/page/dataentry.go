package page

import (
	"encoding/binary"

	"github.com/ryogrid/minicore/types"
)

// DataEntry is the (key, rid) pair stored in a hash bucket page: a
// SortedPage entry pointing at the record with that key in the heap file.
type DataEntry struct {
	Key SearchKey
	RID types.RID
}

// Encode renders the entry as bytes: the key's self-describing encoding
// followed by a fixed 6-byte RID (page id + slot number).
func (e DataEntry) Encode() []byte {
	keyBytes := e.Key.Encode()
	buf := make([]byte, len(keyBytes)+6)
	copy(buf, keyBytes)
	copy(buf[len(keyBytes):], e.RID.PageID.Serialize())
	binary.LittleEndian.PutUint16(buf[len(keyBytes)+4:], e.RID.SlotNo)
	return buf
}

// Length returns the encoded byte length of the entry without allocating.
func (e DataEntry) Length() int {
	return len(e.Key.Encode()) + 6
}

// DecodeDataEntry reads an entry encoded by Encode.
func DecodeDataEntry(data []byte) DataEntry {
	key, n := DecodeSearchKey(data)
	pid := types.NewPageIDFromBytes(data[n:])
	slot := binary.LittleEndian.Uint16(data[n+4:])
	return DataEntry{Key: key, RID: types.NewRID(pid, slot)}
}
