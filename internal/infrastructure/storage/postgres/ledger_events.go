package postgres

import (
	"context"

	"milltrack/internal/core/entity"
	"milltrack/internal/domain/ledger"
)

// LedgerEventPublisher bridges ledger record events into the
// transactional outbox. The outbox insert rides the same transaction as
// the stock change, so a rolled-back record never produces an event.
type LedgerEventPublisher struct {
	outbox *OutboxPublisher
}

// NewLedgerEventPublisher creates a publisher over the given outbox.
func NewLedgerEventPublisher(outbox *OutboxPublisher) *LedgerEventPublisher {
	return &LedgerEventPublisher{outbox: outbox}
}

// ledgerEventPayload is the outbox payload for record events. The full
// record snapshot lets consumers act without a read-back.
type ledgerEventPayload struct {
	Ledger string               `json:"ledger"`
	Record *entity.LedgerRecord `json:"record,omitempty"`
}

// Publish implements ledger.EventPublisher.
func (p *LedgerEventPublisher) Publish(ctx context.Context, event ledger.Event) error {
	return p.outbox.Publish(ctx, DomainEvent{
		AggregateType: "LedgerRecord",
		AggregateID:   event.RecordID,
		EventType:     event.Type,
		Payload: ledgerEventPayload{
			Ledger: string(event.Ledger),
			Record: event.Record,
		},
	})
}

var _ ledger.EventPublisher = (*LedgerEventPublisher)(nil)
