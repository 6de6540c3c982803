package page

import (
	"encoding/binary"
	"math"

	"github.com/spaolacci/murmur3"
)

// SearchKey is an immutable, typed index key: an integer, a floating
// value, or a string, each with a stable hash.
type SearchKeyKind byte

const (
	KindInt SearchKeyKind = iota + 1
	KindFloat
	KindString
)

type SearchKey struct {
	kind SearchKeyKind
	i    int64
	f    float64
	s    string
}

func NewIntKey(v int64) SearchKey     { return SearchKey{kind: KindInt, i: v} }
func NewFloatKey(v float64) SearchKey { return SearchKey{kind: KindFloat, f: v} }
func NewStringKey(v string) SearchKey { return SearchKey{kind: KindString, s: v} }

func (k SearchKey) Kind() SearchKeyKind { return k.kind }

// Encode renders the key as a self-describing byte sequence: a 1-byte
// kind tag followed by the kind's payload.
func (k SearchKey) Encode() []byte {
	switch k.kind {
	case KindInt:
		buf := make([]byte, 9)
		buf[0] = byte(KindInt)
		binary.LittleEndian.PutUint64(buf[1:], uint64(k.i))
		return buf
	case KindFloat:
		buf := make([]byte, 9)
		buf[0] = byte(KindFloat)
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(k.f))
		return buf
	case KindString:
		buf := make([]byte, 3+len(k.s))
		buf[0] = byte(KindString)
		binary.LittleEndian.PutUint16(buf[1:], uint16(len(k.s)))
		copy(buf[3:], k.s)
		return buf
	default:
		panic("minicore/page: unknown search key kind")
	}
}

// DecodeSearchKey reads a key encoded by Encode and returns how many
// bytes it consumed.
func DecodeSearchKey(data []byte) (SearchKey, int) {
	switch SearchKeyKind(data[0]) {
	case KindInt:
		v := int64(binary.LittleEndian.Uint64(data[1:9]))
		return NewIntKey(v), 9
	case KindFloat:
		v := math.Float64frombits(binary.LittleEndian.Uint64(data[1:9]))
		return NewFloatKey(v), 9
	case KindString:
		n := int(binary.LittleEndian.Uint16(data[1:3]))
		return NewStringKey(string(data[3 : 3+n])), 3 + n
	default:
		panic("minicore/page: unknown search key kind")
	}
}

// Equal reports whether two keys carry the same kind and value.
func (k SearchKey) Equal(o SearchKey) bool {
	if k.kind != o.kind {
		return false
	}
	switch k.kind {
	case KindInt:
		return k.i == o.i
	case KindFloat:
		return k.f == o.f
	default:
		return k.s == o.s
	}
}

// Less orders keys of the same kind; used to keep SortedPage entries in
// key order. Keys of different kinds order by kind tag, which is
// arbitrary but total and stable.
func (k SearchKey) Less(o SearchKey) bool {
	if k.kind != o.kind {
		return k.kind < o.kind
	}
	switch k.kind {
	case KindInt:
		return k.i < o.i
	case KindFloat:
		return k.f < o.f
	default:
		return k.s < o.s
	}
}

// Hash returns the low depth bits of a murmur3 hash of the key's
// encoding, used by the static hash index to pick a bucket.
func (k SearchKey) Hash(depth uint) uint32 {
	h := murmur3.Sum32(k.Encode())
	if depth >= 32 {
		return h
	}
	return h & ((1 << depth) - 1)
}
