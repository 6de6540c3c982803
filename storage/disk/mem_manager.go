package disk

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ryogrid/minicore/common"
	"github.com/ryogrid/minicore/types"
)

// MemManager is an in-memory disk manager for tests and temporary files:
// no OS file, pages live in a map keyed by id. Grounded on the upstream
// project's own virtual disk manager, used the same way there for
// exercising the storage core without touching the filesystem.
type MemManager struct {
	mu         sync.Mutex
	pages      map[types.PageID][]byte
	nextPageID types.PageID
	registry   map[string]types.PageID
	log        *zap.Logger
}

// NewMemManager returns an empty in-memory disk manager.
func NewMemManager(log *zap.Logger) *MemManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemManager{
		pages:    make(map[types.PageID][]byte),
		registry: make(map[string]types.PageID),
		log:      log,
	}
}

func (m *MemManager) AllocatePages(runSize int) (types.PageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	first := m.nextPageID
	for i := 0; i < runSize; i++ {
		m.pages[m.nextPageID] = make([]byte, common.PageSize)
		m.nextPageID++
	}
	return first, nil
}

func (m *MemManager) DeallocatePage(id types.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pages, id)
	return nil
}

func (m *MemManager) WritePage(id types.PageID, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[id]
	if !ok {
		page = make([]byte, common.PageSize)
		m.pages[id] = page
	}
	copy(page, buf)
	return nil
}

func (m *MemManager) ReadPage(id types.PageID, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[id]
	if !ok {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	copy(buf, page)
	return nil
}

func (m *MemManager) GetFileEntry(name string) (types.PageID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.registry[name]
	return id, ok
}

func (m *MemManager) AddFileEntry(name string, id types.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = id
	return nil
}

func (m *MemManager) DeleteFileEntry(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.registry, name)
	return nil
}

func (m *MemManager) Close() error {
	return nil
}
