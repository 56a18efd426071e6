package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/vanchelo/restmod/core"
)

const ledgerCacheKeyPrefix = "restmod::request_log::v1"

// CachedLedgerStore layers a read-through cache over another ledger. Writes
// go straight to the base store and invalidate every cached list the written
// resource participates in, so readers never see a settled request late.
type CachedLedgerStore struct {
	base  core.RequestLedger
	cache repositorycache.CacheService

	mu         sync.Mutex
	issuedKeys map[string]map[string]struct{}
}

func NewCachedLedgerStore(
	base core.RequestLedger,
	cacheService repositorycache.CacheService,
) (*CachedLedgerStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base request ledger is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: ledger cache service is required")
	}
	return &CachedLedgerStore{
		base:       base,
		cache:      cacheService,
		issuedKeys: map[string]map[string]struct{}{},
	}, nil
}

// LedgerCacheKey returns the deterministic cache key contract for ledger
// list reads: restmod::request_log::v1::<resource>::<status>::<limit> with
// each segment URL-path escaped after normalization.
func LedgerCacheKey(filter core.LedgerFilter) string {
	segments := []string{
		url.PathEscape(strings.ToLower(strings.TrimSpace(filter.Resource))),
		url.PathEscape(strings.TrimSpace(string(filter.Status))),
		strconv.Itoa(filter.Limit),
	}
	return strings.Join(append([]string{ledgerCacheKeyPrefix}, segments...), "::")
}

func (s *CachedLedgerStore) Record(ctx context.Context, entry core.LedgerEntry) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached ledger store is not configured")
	}
	if err := s.base.Record(ctx, entry); err != nil {
		return err
	}
	return s.invalidateResource(ctx, entry.Resource)
}

func (s *CachedLedgerStore) List(ctx context.Context, filter core.LedgerFilter) ([]core.LedgerEntry, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached ledger store is not configured")
	}
	cacheKey := LedgerCacheKey(filter)
	s.trackKey(filter.Resource, cacheKey)

	entries, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) ([]core.LedgerEntry, error) {
		return s.base.List(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return cloneEntries(entries), nil
}

func (s *CachedLedgerStore) trackKey(resource string, cacheKey string) {
	resource = strings.ToLower(strings.TrimSpace(resource))
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.issuedKeys[resource]
	if !ok {
		keys = map[string]struct{}{}
		s.issuedKeys[resource] = keys
	}
	keys[cacheKey] = struct{}{}
}

// invalidateResource drops the resource's cached lists plus the unfiltered
// ones, which include entries from every resource.
func (s *CachedLedgerStore) invalidateResource(ctx context.Context, resource string) error {
	resource = strings.ToLower(strings.TrimSpace(resource))

	s.mu.Lock()
	stale := make([]string, 0, 8)
	for _, scope := range []string{resource, ""} {
		for key := range s.issuedKeys[scope] {
			stale = append(stale, key)
		}
		delete(s.issuedKeys, scope)
	}
	s.mu.Unlock()

	for _, key := range stale {
		if err := s.cache.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func cloneEntries(entries []core.LedgerEntry) []core.LedgerEntry {
	if len(entries) == 0 {
		return []core.LedgerEntry{}
	}
	cloned := make([]core.LedgerEntry, len(entries))
	for i, entry := range entries {
		cloned[i] = entry
		cloned[i].Metadata = copyAnyMap(entry.Metadata)
	}
	return cloned
}

var _ core.RequestLedger = (*CachedLedgerStore)(nil)
