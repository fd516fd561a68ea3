package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"orthoview/internal/model"
	"orthoview/internal/repository"
)

// MovementPostgres is a PostgreSQL implementation of repository.MovementRepository.
type MovementPostgres struct {
	db *sql.DB
}

// NewMovementPostgres creates a new MovementPostgres repository.
func NewMovementPostgres(db *sql.DB) *MovementPostgres {
	return &MovementPostgres{db: db}
}

var _ repository.MovementRepository = (*MovementPostgres)(nil)

const movementInsertColumns = 12

// CreateBatch inserts movement rows in a single multi-values statement.
func (r *MovementPostgres) CreateBatch(ctx context.Context, movements []model.ToothMovement) (int, error) {
	if len(movements) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO tooth_movements (id, plan_id, snapshot_id, tooth_number, tooth_name, mesial_distal, buccal_lingual, intrusion_extrusion, tip, torque, rotation, recorded_role) VALUES `)
	args := make([]any, 0, len(movements)*movementInsertColumns)
	for i, m := range movements {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * movementInsertColumns
		sb.WriteByte('(')
		for j := 1; j <= movementInsertColumns; j++ {
			if j > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+j)
		}
		sb.WriteByte(')')
		args = append(args,
			m.ID,
			m.PlanID,
			m.SnapshotID,
			m.ToothNumber,
			m.ToothName,
			m.MesialDistal,
			m.BuccalLingual,
			m.IntrusionExtrusion,
			m.Tip,
			m.Torque,
			m.Rotation,
			m.RecordedByRole,
		)
	}

	res, err := r.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return len(movements), nil
	}
	return int(n), nil
}

// ListByPlan returns all movement rows recorded for a plan.
func (r *MovementPostgres) ListByPlan(ctx context.Context, planID string) ([]model.ToothMovement, error) {
	const q = `
		SELECT id, plan_id, snapshot_id, tooth_number, tooth_name, mesial_distal, buccal_lingual, intrusion_extrusion, tip, torque, rotation, recorded_role, created_at
		FROM tooth_movements
		WHERE plan_id = $1
		ORDER BY created_at DESC, tooth_number ASC
	`
	rows, err := r.db.QueryContext(ctx, q, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ToothMovement, 0)
	for rows.Next() {
		var m model.ToothMovement
		if err := rows.Scan(
			&m.ID,
			&m.PlanID,
			&m.SnapshotID,
			&m.ToothNumber,
			&m.ToothName,
			&m.MesialDistal,
			&m.BuccalLingual,
			&m.IntrusionExtrusion,
			&m.Tip,
			&m.Torque,
			&m.Rotation,
			&m.RecordedByRole,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
