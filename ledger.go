package main

import (
	"context"
	"fmt"
	"log/slog"
)

// ProvenanceLedger appends (owner, content identifier) records. The
// ledger is append-only; nothing in the codebase updates or deletes a
// record. Failures are surfaced to the caller — the pipeline does not
// retry internally.
type ProvenanceLedger interface {
	Record(ctx context.Context, owner, contentID string) error
}

// dbLedger writes provenance records through the shared DB adapter
// family, so memory, sqlite, and postgres all work as ledger backends.
type dbLedger struct {
	db DB
}

func NewDBLedger(db DB) ProvenanceLedger {
	return &dbLedger{db: db}
}

func (l *dbLedger) Record(ctx context.Context, owner, contentID string) error {
	rec, err := l.db.AppendProvenance(owner, contentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	slog.Info("provenance recorded", "owner", owner, "contentId", contentID, "recordId", rec.ID)
	return nil
}
