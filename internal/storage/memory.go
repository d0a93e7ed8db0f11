package storage

import "sync"

// Memory is an in-memory DurableMap, used by tests in place of a real
// LevelDB instance so the protocol can be exercised without touching
// disk. "Synchronous put" here just means the write is visible to the
// next Get under the same mutex; there is nothing to flush.
type Memory struct {
	mu    sync.Mutex
	table map[string][]byte
}

// NewMemory returns an empty in-memory durable map.
func NewMemory() *Memory {
	return &Memory{table: make(map[string][]byte)}
}

func (m *Memory) Get(key []byte) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.table[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Put(key []byte, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.table[string(key)] = v
	return nil
}

func (m *Memory) Close() error {
	return nil
}
