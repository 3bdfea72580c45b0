package presence

import "sync"

// Registry is the set of currently connected user ids. It is created once at
// process start and handed to whoever needs online/offline facts, connect and
// disconnect are only called by the socket layer.
type Registry interface {
	Connect(userID uint)
	Disconnect(userID uint)
	IsOnline(userID uint) bool
}

// Memory keeps the set in process. Enough for a single node, tests use it
// directly.
type Memory struct {
	mu     sync.RWMutex
	online map[uint]bool
}

func NewMemory() *Memory {
	return &Memory{online: make(map[uint]bool)}
}

func (m *Memory) Connect(userID uint) {
	m.mu.Lock()
	m.online[userID] = true
	m.mu.Unlock()
}

func (m *Memory) Disconnect(userID uint) {
	m.mu.Lock()
	delete(m.online, userID)
	m.mu.Unlock()
}

func (m *Memory) IsOnline(userID uint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online[userID]
}
