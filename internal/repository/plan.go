package repository

import (
	"context"

	"orthoview/internal/model"
)

// PlanRepository defines data access for treatment plans using SQL queries only.
// No business logic here — strictly persistence operations.
type PlanRepository interface {
	// Create inserts a new plan record and returns the stored row.
	Create(ctx context.Context, plan *model.TreatmentPlan3D) (*model.TreatmentPlan3D, error)

	// FindByID returns a plan by its ID.
	FindByID(ctx context.Context, id string) (*model.TreatmentPlan3D, error)

	// List returns a paginated list of plans and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.TreatmentPlan3D], error)

	// UpdateAssets replaces the asset keys of an existing plan (re-upload).
	UpdateAssets(ctx context.Context, plan *model.TreatmentPlan3D) (*model.TreatmentPlan3D, error)

	// Delete removes a plan by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
