package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultLedgerTTL = 5 * time.Minute
const defaultLedgerMaxEntries = 8192

// MemoryRequestLedger keeps settled-operation entries in memory with a TTL
// and a bounded capacity; the oldest entries are evicted first.
type MemoryRequestLedger struct {
	mu         sync.Mutex
	defaultTTL time.Duration
	maxEntries int
	entries    []LedgerEntry
	Now        func() time.Time
}

func NewMemoryRequestLedger(defaultTTL time.Duration) *MemoryRequestLedger {
	return NewMemoryRequestLedgerWithLimits(defaultTTL, defaultLedgerMaxEntries)
}

func NewMemoryRequestLedgerWithLimits(defaultTTL time.Duration, maxEntries int) *MemoryRequestLedger {
	if defaultTTL <= 0 {
		defaultTTL = defaultLedgerTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultLedgerMaxEntries
	}
	return &MemoryRequestLedger{
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (l *MemoryRequestLedger) Record(_ context.Context, entry LedgerEntry) error {
	if l == nil {
		return fmt.Errorf("core: request ledger is not configured")
	}
	if strings.TrimSpace(entry.Resource) == "" {
		return fmt.Errorf("core: ledger entry resource is required")
	}
	if strings.TrimSpace(entry.ID) == "" {
		entry.ID = uuid.NewString()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneExpiredLocked(l.now())
	l.entries = append(l.entries, entry)
	if overflow := len(l.entries) - l.maxEntries; overflow > 0 {
		l.entries = append([]LedgerEntry(nil), l.entries[overflow:]...)
	}
	return nil
}

// List returns matching entries, newest first.
func (l *MemoryRequestLedger) List(_ context.Context, filter LedgerFilter) ([]LedgerEntry, error) {
	if l == nil {
		return nil, fmt.Errorf("core: request ledger is not configured")
	}
	resource := normalizeResourceName(filter.Resource)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneExpiredLocked(l.now())

	out := make([]LedgerEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		entry := l.entries[i]
		if resource != "" && normalizeResourceName(entry.Resource) != resource {
			continue
		}
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		out = append(out, entry)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Prune drops entries older than ttl (the ledger default when ttl <= 0)
// and, when rowCap > 0, evicts the oldest rows until at most rowCap remain.
// It reports how many entries were removed.
func (l *MemoryRequestLedger) Prune(_ context.Context, ttl time.Duration, rowCap int) (int, error) {
	if l == nil {
		return 0, fmt.Errorf("core: request ledger is not configured")
	}
	if ttl <= 0 {
		ttl = l.defaultTTL
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	before := len(l.entries)
	cutoff := l.now().Add(-ttl)
	kept := l.entries[:0]
	for _, entry := range l.entries {
		if entry.OccurredAt.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	l.entries = kept
	if rowCap > 0 {
		if excess := len(l.entries) - rowCap; excess > 0 {
			l.entries = append([]LedgerEntry(nil), l.entries[excess:]...)
		}
	}
	return before - len(l.entries), nil
}

func (l *MemoryRequestLedger) now() time.Time {
	if l != nil && l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

func (l *MemoryRequestLedger) pruneExpiredLocked(now time.Time) {
	cutoff := now.Add(-l.defaultTTL)
	kept := l.entries[:0]
	for _, entry := range l.entries {
		if entry.OccurredAt.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	l.entries = kept
}

var _ RequestLedger = (*MemoryRequestLedger)(nil)
