package expansion

import "sync"

// Memory is a Backend with no durability, for tests and the "memory"
// state backend.
type Memory struct {
	mu     sync.Mutex
	arrays map[string][]string
	writes int
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{arrays: make(map[string][]string)}
}

// GetArray returns a copy of the array stored under name.
func (m *Memory) GetArray(name string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.arrays[name]...), nil
}

// SetArray replaces the array stored under name.
func (m *Memory) SetArray(name string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arrays[name] = append([]string(nil), values...)
	m.writes++
	return nil
}

// Writes returns the number of SetArray calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
