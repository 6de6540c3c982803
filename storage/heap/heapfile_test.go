package heap_test

import (
	"bytes"
	"fmt"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ryogrid/minicore/storage/buffer"
	"github.com/ryogrid/minicore/storage/disk"
	"github.com/ryogrid/minicore/storage/heap"
)

func newTestHeap(t *testing.T, poolSize int) *heap.File {
	t.Helper()
	dm := disk.NewMemManager(nil)
	bp := buffer.NewBufferPool(poolSize, dm, nil)
	f, err := heap.Open("", bp, dm, nil)
	if err != nil {
		t.Fatalf("heap.Open: %v", err)
	}
	return f
}

func TestHeapFileInsertSelect(t *testing.T) {
	f := newTestHeap(t, 8)

	rid, err := f.InsertRecord([]byte("payload"))
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	got, err := f.SelectRecord(rid)
	if err != nil {
		t.Fatalf("SelectRecord: %v", err)
	}
	if !bytes.Equal(got, []byte("payload")) {
		t.Fatalf("SelectRecord = %q, want %q", got, "payload")
	}
}

func TestHeapFileUpdateDelete(t *testing.T) {
	f := newTestHeap(t, 8)
	rid, _ := f.InsertRecord([]byte("aaaa"))

	if err := f.UpdateRecord(rid, []byte("bbbb")); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	got, _ := f.SelectRecord(rid)
	if !bytes.Equal(got, []byte("bbbb")) {
		t.Fatalf("SelectRecord after update = %q, want %q", got, "bbbb")
	}

	if err := f.DeleteRecord(rid); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if _, err := f.SelectRecord(rid); err == nil {
		t.Fatalf("SelectRecord succeeded after DeleteRecord")
	}
}

func TestHeapFileRecCountTracksInsertsAndDeletes(t *testing.T) {
	f := newTestHeap(t, 8)

	firstRID, _ := f.InsertRecord([]byte("one"))
	_, _ = f.InsertRecord([]byte("two"))
	_, _ = f.InsertRecord([]byte("three"))

	count, err := f.RecCount()
	if err != nil {
		t.Fatalf("RecCount: %v", err)
	}
	if count != 3 {
		t.Fatalf("RecCount = %d, want 3", count)
	}

	if err := f.DeleteRecord(firstRID); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	count, err = f.RecCount()
	if err != nil {
		t.Fatalf("RecCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("RecCount after delete = %d, want 2", count)
	}
}

// TestHeapFileManyRecordsSpanMultipleDataPages forces the heap file to
// allocate more than one data page (and, at pool size 4, to evict and
// re-fetch pages along the way), then checks that a scan recovers
// exactly the set of records inserted, no more and no less.
func TestHeapFileManyRecordsSpanMultipleDataPages(t *testing.T) {
	f := newTestHeap(t, 4)

	want := mapset.NewSet[string]()
	const n = 300
	for i := 0; i < n; i++ {
		record := []byte(fmt.Sprintf("record-%04d", i))
		want.Add(string(record))
		if _, err := f.InsertRecord(record); err != nil {
			t.Fatalf("InsertRecord(%d): %v", i, err)
		}
	}

	count, err := f.RecCount()
	if err != nil {
		t.Fatalf("RecCount: %v", err)
	}
	if count != n {
		t.Fatalf("RecCount = %d, want %d", count, n)
	}

	got := mapset.NewSet[string]()
	scan := f.OpenScan()
	for {
		_, bytes, ok, err := scan.GetNext()
		if err != nil {
			t.Fatalf("GetNext: %v", err)
		}
		if !ok {
			break
		}
		got.Add(string(bytes))
	}
	scan.Close()

	if !got.Equal(want) {
		t.Fatalf("scanned set differs from inserted set: missing=%v extra=%v",
			want.Difference(got), got.Difference(want))
	}
}

// TestHeapScanHoldsPinsAcrossGetNextUntilClose checks spec.md §4.4's
// pin footprint for HeapScan: it holds its current directory page and
// data page pinned between GetNext calls (not re-pinned and released on
// every call), and Close is what releases them, restoring the pool to
// its pre-scan state for P4 pin-conservation purposes.
func TestHeapScanHoldsPinsAcrossGetNextUntilClose(t *testing.T) {
	dm := disk.NewMemManager(nil)
	bp := buffer.NewBufferPool(8, dm, nil)
	f, err := heap.Open("", bp, dm, nil)
	if err != nil {
		t.Fatalf("heap.Open: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := f.InsertRecord([]byte(fmt.Sprintf("rec-%d", i))); err != nil {
			t.Fatalf("InsertRecord: %v", err)
		}
	}

	baseline := bp.NumUnpinned()

	scan := f.OpenScan()
	if _, _, ok, err := scan.GetNext(); err != nil || !ok {
		t.Fatalf("GetNext: ok=%v err=%v", ok, err)
	}
	if n := bp.NumUnpinned(); n >= baseline {
		t.Fatalf("NumUnpinned = %d after one GetNext, want < %d (scan should hold its dir/data page pinned)", n, baseline)
	}

	scan.Close()
	if n := bp.NumUnpinned(); n != baseline {
		t.Fatalf("NumUnpinned after Close = %d, want %d (all scan pins released)", n, baseline)
	}
}

func TestHeapFileDeleteFileFreesPages(t *testing.T) {
	f := newTestHeap(t, 8)
	for i := 0; i < 10; i++ {
		if _, err := f.InsertRecord([]byte(fmt.Sprintf("rec-%d", i))); err != nil {
			t.Fatalf("InsertRecord: %v", err)
		}
	}
	if err := f.DeleteFile(); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
}
