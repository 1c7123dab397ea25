package engine

import (
	"sync"
	"time"
)

type memoryEntry struct {
	engine    string
	expiresAt time.Time
}

// DomainMemory remembers which engine last rendered a domain successfully,
// so the next capture of that domain can skip the escalation ladder.
// Expired entries are dropped on read.
type DomainMemory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewDomainMemory creates a DomainMemory whose entries live for ttl.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	return &DomainMemory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the remembered engine for domain, or "".
func (m *DomainMemory) Get(domain string) string {
	if m == nil {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[domain]
	if !ok {
		return ""
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, domain)
		return ""
	}
	return e.engine
}

// Set records the engine that succeeded for domain.
func (m *DomainMemory) Set(domain, engine string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.entries[domain] = memoryEntry{engine: engine, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
}

// Forget drops the entry for domain.
func (m *DomainMemory) Forget(domain string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	delete(m.entries, domain)
	m.mu.Unlock()
}
