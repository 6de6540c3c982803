package page_test

import (
	"testing"

	"github.com/ryogrid/minicore/storage/page"
)

func TestSearchKeyEncodeDecodeRoundTrip(t *testing.T) {
	cases := []page.SearchKey{
		page.NewIntKey(42),
		page.NewIntKey(-7),
		page.NewFloatKey(3.5),
		page.NewStringKey("customers"),
		page.NewStringKey(""),
	}
	for _, k := range cases {
		enc := k.Encode()
		dec, n := page.DecodeSearchKey(enc)
		if n != len(enc) {
			t.Fatalf("DecodeSearchKey consumed %d bytes, want %d", n, len(enc))
		}
		if !dec.Equal(k) {
			t.Fatalf("decoded key %v != original %v", dec, k)
		}
	}
}

func TestSearchKeyHashIsStableAndBounded(t *testing.T) {
	k := page.NewStringKey("account-42")
	h1 := k.Hash(7)
	h2 := k.Hash(7)
	if h1 != h2 {
		t.Fatalf("Hash not stable: %d != %d", h1, h2)
	}
	if h1 >= 128 {
		t.Fatalf("Hash(7) = %d, want < 128", h1)
	}
}

func TestSearchKeyLessOrdersSameKind(t *testing.T) {
	a, b := page.NewIntKey(1), page.NewIntKey(2)
	if !a.Less(b) || b.Less(a) {
		t.Fatalf("Less ordering broken for ints")
	}
}
