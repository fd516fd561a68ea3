package repository

import (
	"context"

	"orthoview/internal/model"
)

// SnapshotRepository defines data access for export snapshots. Snapshots
// are immutable: there is no update operation.
type SnapshotRepository interface {
	// Create inserts a new snapshot row including its raw export payload.
	Create(ctx context.Context, snap *model.ExportSnapshot) (*model.ExportSnapshot, error)

	// FindByID returns a snapshot with its export payload.
	FindByID(ctx context.Context, id string) (*model.ExportSnapshot, error)

	// ListByPlan returns a plan's snapshots ordered by creation time,
	// newest first, without the raw payloads.
	ListByPlan(ctx context.Context, planID string) ([]model.ExportSnapshot, error)

	// LatestByPlan returns the most recent snapshot of a plan with payload.
	LatestByPlan(ctx context.Context, planID string) (*model.ExportSnapshot, error)

	// Delete removes a snapshot by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// MovementRepository defines data access for the flattened per-tooth
// movement rows derived from export snapshots.
type MovementRepository interface {
	// CreateBatch inserts the rows of one snapshot and returns how many were stored.
	CreateBatch(ctx context.Context, movements []model.ToothMovement) (int, error)

	// ListByPlan returns all movement rows recorded for a plan.
	ListByPlan(ctx context.Context, planID string) ([]model.ToothMovement, error)
}
