package statichash_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/ryogrid/minicore/storage/buffer"
	"github.com/ryogrid/minicore/storage/disk"
	"github.com/ryogrid/minicore/storage/index/statichash"
	"github.com/ryogrid/minicore/storage/page"
	"github.com/ryogrid/minicore/types"
)

func newTestIndex(t *testing.T, poolSize int) *statichash.Index {
	t.Helper()
	dm := disk.NewMemManager(nil)
	bp := buffer.NewBufferPool(poolSize, dm, nil)
	idx, err := statichash.Open("", bp, dm, nil)
	if err != nil {
		t.Fatalf("statichash.Open: %v", err)
	}
	return idx
}

func TestHashIndexInsertAndScan(t *testing.T) {
	idx := newTestIndex(t, 8)
	key := page.NewStringKey("acct-1")
	rid := types.NewRID(types.PageID(5), 2)

	if err := idx.InsertEntry(key, rid); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}

	scan, err := idx.OpenScan(key)
	if err != nil {
		t.Fatalf("OpenScan: %v", err)
	}
	got, ok, err := scan.GetNext()
	if err != nil {
		t.Fatalf("GetNext: %v", err)
	}
	if !ok || got != rid {
		t.Fatalf("GetNext = (%v, %v), want (%v, true)", got, ok, rid)
	}
	_, ok, err = scan.GetNext()
	if err != nil {
		t.Fatalf("GetNext: %v", err)
	}
	if ok {
		t.Fatalf("expected scan to be exhausted after one match")
	}
	scan.Close()
}

func TestHashIndexScanMissingKeyIsEmpty(t *testing.T) {
	idx := newTestIndex(t, 8)
	scan, err := idx.OpenScan(page.NewIntKey(404))
	if err != nil {
		t.Fatalf("OpenScan: %v", err)
	}
	_, ok, err := scan.GetNext()
	if err != nil {
		t.Fatalf("GetNext: %v", err)
	}
	if ok {
		t.Fatalf("expected no matches for a key that was never inserted")
	}
}

func TestHashIndexDeleteEntry(t *testing.T) {
	idx := newTestIndex(t, 8)
	key := page.NewIntKey(7)
	rid := types.NewRID(types.PageID(1), 1)

	if err := idx.InsertEntry(key, rid); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	if err := idx.DeleteEntry(key, rid); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}

	scan, _ := idx.OpenScan(key)
	_, ok, err := scan.GetNext()
	if err != nil {
		t.Fatalf("GetNext: %v", err)
	}
	if ok {
		t.Fatalf("expected no matches after DeleteEntry")
	}
}

func TestHashIndexMultipleEntriesSameKeyOverflow(t *testing.T) {
	idx := newTestIndex(t, 8)
	key := page.NewIntKey(1)

	const n = 200
	for i := 0; i < n; i++ {
		rid := types.NewRID(types.PageID(i), uint16(i%50+1))
		if err := idx.InsertEntry(key, rid); err != nil {
			t.Fatalf("InsertEntry(%d): %v", i, err)
		}
	}

	scan, err := idx.OpenScan(key)
	if err != nil {
		t.Fatalf("OpenScan: %v", err)
	}
	count := 0
	for {
		_, ok, err := scan.GetNext()
		if err != nil {
			t.Fatalf("GetNext: %v", err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != n {
		t.Fatalf("scanned %d entries, want %d", count, n)
	}
}

func TestHashIndexPrintSummary(t *testing.T) {
	idx := newTestIndex(t, 8)
	for i := 0; i < 5; i++ {
		key := page.NewStringKey(fmt.Sprintf("k%d", i))
		if err := idx.InsertEntry(key, types.NewRID(types.PageID(i), 1)); err != nil {
			t.Fatalf("InsertEntry: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := idx.PrintSummary(&buf); err != nil {
		t.Fatalf("PrintSummary: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) == 0 {
		t.Fatalf("expected at least the header and total lines")
	}
	if !strings.HasPrefix(lines[len(lines)-1], "Total") {
		t.Fatalf("last line = %q, want it to start with Total", lines[len(lines)-1])
	}
}
