package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/vanchelo/restmod/core"
)

const defaultLedgerListLimit = 100

// LedgerStore persists settled request entries in SQL. It is a drop-in
// replacement for the in-memory ledger when history has to survive restarts.
type LedgerStore struct {
	db   *bun.DB
	repo repository.Repository[*requestLogRecord]
}

func NewLedgerStore(db *bun.DB) (*LedgerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*requestLogRecord](db, requestLogHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid request log repository wiring: %w", err)
		}
	}
	return &LedgerStore{db: db, repo: repo}, nil
}

func (s *LedgerStore) Record(ctx context.Context, entry core.LedgerEntry) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: ledger store is not configured")
	}
	resource := strings.ToLower(strings.TrimSpace(entry.Resource))
	if resource == "" {
		return fmt.Errorf("sqlstore: ledger entry requires a resource name")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	occurredAt := entry.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	record := &requestLogRecord{
		ID:           id,
		ResourceName: resource,
		RequestID:    strings.TrimSpace(entry.RequestID),
		Status:       strings.TrimSpace(string(entry.Status)),
		Method:       strings.TrimSpace(entry.Method),
		URL:          strings.TrimSpace(entry.URL),
		StatusCode:   entry.StatusCode,
		Error:        strings.TrimSpace(entry.Error),
		DurationMS:   entry.Duration.Milliseconds(),
		Metadata:     copyAnyMap(entry.Metadata),
		OccurredAt:   occurredAt,
	}
	if record.Status == "" {
		record.Status = string(core.StatusOK)
	}

	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *LedgerStore) List(ctx context.Context, filter core.LedgerFilter) ([]core.LedgerEntry, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: ledger store is not configured")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLedgerListLimit
	}

	selectors := []repository.SelectCriteria{
		repository.OrderBy("occurred_at DESC"),
		repository.SelectPaginate(limit, 0),
	}
	if resource := strings.TrimSpace(filter.Resource); resource != "" {
		selectors = append(selectors, repository.SelectBy("resource_name", "=", strings.ToLower(resource)))
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		selectors = append(selectors, repository.SelectBy("status", "=", status))
	}

	records, _, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return nil, err
	}
	entries := make([]core.LedgerEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, requestLogRecordToDomain(record))
	}
	return entries, nil
}

// Prune removes entries older than the TTL and, when rowCap > 0, trims the
// oldest rows until at most rowCap remain. Returns the number deleted.
func (s *LedgerStore) Prune(ctx context.Context, ttl time.Duration, rowCap int) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: ledger store is not configured")
	}
	deleted := 0
	now := time.Now().UTC()

	if ttl > 0 {
		cutoff := now.Add(-ttl)
		res, err := s.db.NewDelete().
			Model((*requestLogRecord)(nil)).
			Where("occurred_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, err
		}
		affected, _ := res.RowsAffected()
		deleted += int(affected)
	}

	if rowCap > 0 {
		total, err := s.db.NewSelect().Model((*requestLogRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, err
		}
		excess := total - rowCap
		if excess > 0 {
			res, err := s.db.NewRaw(
				"DELETE FROM restmod_request_log WHERE id IN (SELECT id FROM restmod_request_log ORDER BY occurred_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, err
			}
			affected, _ := res.RowsAffected()
			deleted += int(affected)
		}
	}

	return deleted, nil
}

func requestLogRecordToDomain(record *requestLogRecord) core.LedgerEntry {
	if record == nil {
		return core.LedgerEntry{}
	}
	return core.LedgerEntry{
		ID:         record.ID,
		Resource:   record.ResourceName,
		RequestID:  record.RequestID,
		Status:     core.Status(record.Status),
		Method:     record.Method,
		URL:        record.URL,
		StatusCode: record.StatusCode,
		Error:      record.Error,
		Duration:   time.Duration(record.DurationMS) * time.Millisecond,
		OccurredAt: record.OccurredAt,
		Metadata:   copyAnyMap(record.Metadata),
	}
}

func copyAnyMap(values map[string]any) map[string]any {
	if len(values) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(values))
	for key, value := range values {
		copied[key] = value
	}
	return copied
}

var _ core.RequestLedger = (*LedgerStore)(nil)
