package disk

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/types"
)

// FileManager is the file-backed disk manager: one flat file holding
// fixed-size pages, plus a sidecar catalog file recording the named-file
// registry (heap file / hash index names to their head page id).
type FileManager struct {
	mu         sync.Mutex
	db         *os.File
	dbFileName string
	catFile    string
	nextPageID types.PageID
	registry   map[string]types.PageID
	log        *zap.Logger
}

// NewFileManager opens (or creates) dbFileName and its catalog sidecar.
func NewFileManager(dbFileName string, log *zap.Logger) (*FileManager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	file, err := os.OpenFile(dbFileName, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}
	fi, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	nPages := fi.Size() / common.PageSize

	m := &FileManager{
		db:         file,
		dbFileName: dbFileName,
		catFile:    dbFileName + ".catalog",
		nextPageID: types.PageID(nPages),
		registry:   make(map[string]types.PageID),
		log:        log,
	}
	if err := m.loadRegistry(); err != nil {
		file.Close()
		return nil, err
	}
	return m, nil
}

// AllocatePages reserves runSize contiguous pages and returns the first id.
func (m *FileManager) AllocatePages(runSize int) (types.PageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if runSize <= 0 {
		return types.InvalidPageID, errors.New("minicore/disk: run size must be positive")
	}
	first := m.nextPageID
	m.nextPageID += types.PageID(runSize)
	return first, nil
}

// DeallocatePage releases a single page. The teaching-grade file manager
// has no free-space bitmap (spec.md §6 treats this at contract level
// only), so this is a bookkeeping no-op that never reduces file size.
func (m *FileManager) DeallocatePage(id types.PageID) error {
	return nil
}

// WritePage writes one page-sized block at the page's offset.
func (m *FileManager) WritePage(id types.PageID, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	offset := int64(id) * common.PageSize
	if _, err := m.db.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	n, err := m.db.Write(buf)
	if err != nil {
		m.log.Error("disk write failed", zap.Int32("page_id", int32(id)), zap.Error(err))
		return err
	}
	if n != common.PageSize {
		return errors.New("minicore/disk: short write")
	}
	return m.db.Sync()
}

// ReadPage reads one page-sized block. Reading past the current end of
// file (e.g. a page that was allocated but never written) yields a
// zero-filled buffer instead of an error.
func (m *FileManager) ReadPage(id types.PageID, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	offset := int64(id) * common.PageSize
	fi, err := m.db.Stat()
	if err != nil {
		return err
	}
	if offset >= fi.Size() {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	if _, err := m.db.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	n, err := io.ReadFull(m.db, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		m.log.Error("disk read failed", zap.Int32("page_id", int32(id)), zap.Error(err))
		return err
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

// GetFileEntry looks up name in the named-file registry.
func (m *FileManager) GetFileEntry(name string) (types.PageID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.registry[name]
	return id, ok
}

// AddFileEntry registers name -> id and persists the registry.
func (m *FileManager) AddFileEntry(name string, id types.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = id
	return m.saveRegistryLocked()
}

// DeleteFileEntry removes name from the registry and persists it.
func (m *FileManager) DeleteFileEntry(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.registry, name)
	return m.saveRegistryLocked()
}

// Close closes the underlying database file.
func (m *FileManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Close()
}

// loadRegistry reads the catalog sidecar, if it exists: a flat sequence
// of records, each a 4-byte little-endian name length, the name bytes,
// and a 4-byte page id.
func (m *FileManager) loadRegistry() error {
	data, err := os.ReadFile(m.catFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for len(data) > 0 {
		nameLen := binary.LittleEndian.Uint32(data[:4])
		data = data[4:]
		name := string(data[:nameLen])
		data = data[nameLen:]
		id := types.NewPageIDFromBytes(data[:4])
		data = data[4:]
		m.registry[name] = id
	}
	return nil
}

func (m *FileManager) saveRegistryLocked() error {
	var out []byte
	for name, id := range m.registry {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(name)))
		out = append(out, lenBuf[:]...)
		out = append(out, []byte(name)...)
		out = append(out, id.Serialize()...)
	}
	return os.WriteFile(m.catFile, out, 0666)
}
