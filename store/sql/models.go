package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type requestLogRecord struct {
	bun.BaseModel `bun:"table:restmod_request_log,alias:rrl"`

	ID           string         `bun:"id,pk"`
	ResourceName string         `bun:"resource_name,notnull"`
	RequestID    string         `bun:"request_id,notnull"`
	Status       string         `bun:"status,notnull"`
	Method       string         `bun:"method"`
	URL          string         `bun:"url"`
	StatusCode   int            `bun:"status_code"`
	Error        string         `bun:"error"`
	DurationMS   int64          `bun:"duration_ms,notnull"`
	Metadata     map[string]any `bun:"metadata,type:jsonb"`
	OccurredAt   time.Time      `bun:"occurred_at,nullzero,notnull,default:current_timestamp"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
