package postgres

import (
	"context"
	"database/sql"

	"orthoview/internal/model"
	"orthoview/internal/repository"
)

// SnapshotPostgres is a PostgreSQL implementation of repository.SnapshotRepository.
type SnapshotPostgres struct {
	db *sql.DB
}

// NewSnapshotPostgres creates a new SnapshotPostgres repository.
func NewSnapshotPostgres(db *sql.DB) *SnapshotPostgres {
	return &SnapshotPostgres{db: db}
}

var _ repository.SnapshotRepository = (*SnapshotPostgres)(nil)

const snapshotColumns = `id, plan_id, filename, size_bytes, description, created_by, created_by_role, export_data, created_at`

func scanSnapshot(row interface{ Scan(...any) error }) (*model.ExportSnapshot, error) {
	var s model.ExportSnapshot
	if err := row.Scan(
		&s.ID,
		&s.PlanID,
		&s.Filename,
		&s.SizeBytes,
		&s.Description,
		&s.CreatedBy,
		&s.CreatedByRole,
		&s.ExportData,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new snapshot row and returns the stored record.
func (r *SnapshotPostgres) Create(ctx context.Context, snap *model.ExportSnapshot) (*model.ExportSnapshot, error) {
	const q = `
		INSERT INTO export_snapshots (id, plan_id, filename, size_bytes, description, created_by, created_by_role, export_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + snapshotColumns
	row := r.db.QueryRowContext(ctx, q,
		snap.ID,
		snap.PlanID,
		snap.Filename,
		snap.SizeBytes,
		snap.Description,
		snap.CreatedBy,
		snap.CreatedByRole,
		[]byte(snap.ExportData),
		snap.CreatedAt,
	)
	return scanSnapshot(row)
}

// FindByID fetches a single snapshot including its export payload.
func (r *SnapshotPostgres) FindByID(ctx context.Context, id string) (*model.ExportSnapshot, error) {
	const q = `SELECT ` + snapshotColumns + ` FROM export_snapshots WHERE id = $1`
	return scanSnapshot(r.db.QueryRowContext(ctx, q, id))
}

// ListByPlan returns a plan's snapshots newest first, without payloads.
func (r *SnapshotPostgres) ListByPlan(ctx context.Context, planID string) ([]model.ExportSnapshot, error) {
	const q = `
		SELECT id, plan_id, filename, size_bytes, description, created_by, created_by_role, created_at
		FROM export_snapshots
		WHERE plan_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ExportSnapshot, 0)
	for rows.Next() {
		var s model.ExportSnapshot
		if err := rows.Scan(
			&s.ID,
			&s.PlanID,
			&s.Filename,
			&s.SizeBytes,
			&s.Description,
			&s.CreatedBy,
			&s.CreatedByRole,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// LatestByPlan returns the newest snapshot of a plan with its payload.
func (r *SnapshotPostgres) LatestByPlan(ctx context.Context, planID string) (*model.ExportSnapshot, error) {
	const q = `
		SELECT ` + snapshotColumns + `
		FROM export_snapshots
		WHERE plan_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	return scanSnapshot(r.db.QueryRowContext(ctx, q, planID))
}

// Delete removes a snapshot by ID. It does not return an error if the row does not exist.
func (r *SnapshotPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM export_snapshots WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
