package postgres

import (
	"context"
	"database/sql"

	"orthoview/internal/model"
	"orthoview/internal/repository"
)

// PlanPostgres is a PostgreSQL implementation of repository.PlanRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type PlanPostgres struct {
	db *sql.DB
}

// NewPlanPostgres creates a new PlanPostgres repository.
func NewPlanPostgres(db *sql.DB) *PlanPostgres {
	return &PlanPostgres{db: db}
}

var _ repository.PlanRepository = (*PlanPostgres)(nil)

const planColumns = `id, patient_name, clinic, united_model_key, separate_model_key, pdf_key, raw_html_key, modified_html_key, created_at, updated_at`

func scanPlan(row interface{ Scan(...any) error }) (*model.TreatmentPlan3D, error) {
	var p model.TreatmentPlan3D
	if err := row.Scan(
		&p.ID,
		&p.PatientName,
		&p.Clinic,
		&p.UnitedModelKey,
		&p.SeparateModelKey,
		&p.PDFKey,
		&p.RawHTMLKey,
		&p.ModifiedHTMLKey,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new plan row and returns the stored record.
func (r *PlanPostgres) Create(ctx context.Context, plan *model.TreatmentPlan3D) (*model.TreatmentPlan3D, error) {
	const q = `
		INSERT INTO plans (id, patient_name, clinic, united_model_key, separate_model_key, pdf_key, raw_html_key, modified_html_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + planColumns
	row := r.db.QueryRowContext(ctx, q,
		plan.ID,
		plan.PatientName,
		plan.Clinic,
		plan.UnitedModelKey,
		plan.SeparateModelKey,
		plan.PDFKey,
		plan.RawHTMLKey,
		plan.ModifiedHTMLKey,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	return scanPlan(row)
}

// FindByID fetches a single plan by its ID.
func (r *PlanPostgres) FindByID(ctx context.Context, id string) (*model.TreatmentPlan3D, error) {
	const q = `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	return scanPlan(r.db.QueryRowContext(ctx, q, id))
}

// List returns plans using LIMIT/OFFSET pagination and a total count.
func (r *PlanPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.TreatmentPlan3D], error) {
	const qCount = `SELECT COUNT(*) FROM plans`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + planColumns + `
		FROM plans
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.TreatmentPlan3D, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.TreatmentPlan3D]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateAssets replaces the asset keys of an existing plan on re-upload.
func (r *PlanPostgres) UpdateAssets(ctx context.Context, plan *model.TreatmentPlan3D) (*model.TreatmentPlan3D, error) {
	const q = `
		UPDATE plans
		SET united_model_key = $2, separate_model_key = $3, pdf_key = $4, raw_html_key = $5, modified_html_key = $6, updated_at = $7
		WHERE id = $1
		RETURNING ` + planColumns
	row := r.db.QueryRowContext(ctx, q,
		plan.ID,
		plan.UnitedModelKey,
		plan.SeparateModelKey,
		plan.PDFKey,
		plan.RawHTMLKey,
		plan.ModifiedHTMLKey,
		plan.UpdatedAt,
	)
	return scanPlan(row)
}

// Delete removes a plan by ID. It does not return an error if the row does not exist.
func (r *PlanPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM plans WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
