package ledger

import (
	"context"
	"time"

	"milltrack/internal/core/entity"
	"milltrack/internal/core/id"
	"milltrack/internal/core/types"
	"milltrack/internal/domain"
)

// ListFilter contains filtering options for ledger record listings.
type ListFilter struct {
	Activity       string
	Batch          string
	ItemCode       string
	DocumentNumber string // substring match, case-insensitive
	DateFrom       *time.Time
	DateTo         *time.Time

	// OrderBy specifies sorting (e.g., "date", "-created_at")
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults: newest transactions first.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-date",
	}
}

// BatchOutput is a per-batch aggregate of upstream pool output.
// SourceActivity names the most recent pool activity that fed the batch.
type BatchOutput struct {
	Batch          string         `db:"batch"`
	Total          types.Quantity `db:"total"`
	SourceActivity string         `db:"source_activity"`
}

// Repository defines storage operations for ledger records. Every method
// takes the ledger table name, so one implementation serves all ledger
// instances.
type Repository interface {
	Insert(ctx context.Context, table string, rec *entity.LedgerRecord) error

	// Update modifies a record with optimistic locking on version
	Update(ctx context.Context, table string, rec *entity.LedgerRecord) error

	Delete(ctx context.Context, table string, recID id.ID) error

	GetByID(ctx context.Context, table string, recID id.ID) (*entity.LedgerRecord, error)

	// ListByBatch returns every record of a batch, unordered; callers
	// sort before folding
	ListByBatch(ctx context.Context, table, batch string) ([]*entity.LedgerRecord, error)

	List(ctx context.Context, table string, f ListFilter) (domain.ListResult[*entity.LedgerRecord], error)

	// SumStock aggregates the signed quantity of a batch: increasing
	// activities count positive, everything else negative
	SumStock(ctx context.Context, table string, increasing []string, batch string) (types.Quantity, error)

	// OutputByBatch aggregates pool output per batch for an item over
	// the given source activities
	OutputByBatch(ctx context.Context, table, itemCode string, activities []string) ([]BatchOutput, error)

	// ConsumptionByBatch aggregates pool draw-down per batch for an item
	// over the given consumer activities. excludeID omits one record,
	// so an update does not count its own previous quantity
	ConsumptionByBatch(ctx context.Context, table, itemCode string, activities []string, excludeID id.ID) (map[string]types.Quantity, error)

	// LatestExpiryByBatch returns, per batch, the expiry date of the
	// most recent record carrying one among the given source activities
	LatestExpiryByBatch(ctx context.Context, table, itemCode string, activities []string) (map[string]time.Time, error)

	// UpdateStockAfter persists recomputed stored balances after a fold
	UpdateStockAfter(ctx context.Context, table string, records []*entity.LedgerRecord) error

	// AcquireBatchLock serializes writers of one (table, batch) pair for
	// the remainder of the current transaction
	AcquireBatchLock(ctx context.Context, table, batch string) error
}

// Event describes a committed ledger change for downstream consumers.
type Event struct {
	Type     string
	Ledger   Type
	RecordID id.ID
	Record   *entity.LedgerRecord
}

// Event types emitted by the service.
const (
	EventRecordCreated = "ldg.record.created"
	EventRecordUpdated = "ldg.record.updated"
	EventRecordDeleted = "ldg.record.deleted"
)

// EventPublisher hands events to the transactional outbox. Publish must
// run inside the same transaction as the ledger write.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Auditor records who changed what. Implementations write inside the
// current transaction when one is active.
type Auditor interface {
	LogLedgerChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}
