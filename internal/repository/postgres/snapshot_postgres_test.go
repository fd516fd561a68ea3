package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"orthoview/internal/model"
)

var snapshotCols = []string{"id", "plan_id", "filename", "size_bytes", "description", "created_by", "created_by_role", "export_data", "created_at"}

func testSnapshot(now time.Time) *model.ExportSnapshot {
	return &model.ExportSnapshot{
		ID:            "snap-uuid",
		PlanID:        "plan-uuid",
		Filename:      "export.json",
		SizeBytes:     128,
		Description:   "after stage 4 adjustments",
		CreatedBy:     "dr.roe",
		CreatedByRole: "doctor",
		ExportData:    json.RawMessage(`{"movements":[{"toothName":"16","mesialDistal":1.2}]}`),
		CreatedAt:     now,
	}
}

func snapshotRow(s *model.ExportSnapshot) *sqlmock.Rows {
	return sqlmock.NewRows(snapshotCols).
		AddRow(s.ID, s.PlanID, s.Filename, s.SizeBytes, s.Description, s.CreatedBy, s.CreatedByRole, []byte(s.ExportData), s.CreatedAt)
}

func TestSnapshotPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSnapshotPostgres(db)
	snap := testSnapshot(time.Now().UTC())

	mock.ExpectQuery("INSERT INTO export_snapshots").
		WithArgs(snap.ID, snap.PlanID, snap.Filename, snap.SizeBytes, snap.Description, snap.CreatedBy, snap.CreatedByRole, []byte(snap.ExportData), snap.CreatedAt).
		WillReturnRows(snapshotRow(snap))

	result, err := repo.Create(context.Background(), snap)

	assert.NoError(t, err)
	assert.Equal(t, snap.ID, result.ID)
	assert.JSONEq(t, string(snap.ExportData), string(result.ExportData))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSnapshotPostgres(db)

	t.Run("found", func(t *testing.T) {
		snap := testSnapshot(time.Now().UTC())
		mock.ExpectQuery("SELECT (.+) FROM export_snapshots WHERE id = ?").
			WithArgs("snap-uuid").
			WillReturnRows(snapshotRow(snap))

		got, err := repo.FindByID(context.Background(), "snap-uuid")

		assert.NoError(t, err)
		assert.Equal(t, "doctor", got.CreatedByRole)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM export_snapshots WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(context.Background(), "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestSnapshotPostgres_ListByPlan(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSnapshotPostgres(db)
	now := time.Now().UTC()

	// List omits payloads.
	rows := sqlmock.NewRows([]string{"id", "plan_id", "filename", "size_bytes", "description", "created_by", "created_by_role", "created_at"}).
		AddRow("snap-2", "plan-uuid", "export2.json", 64, "", "", "doctor", now).
		AddRow("snap-1", "plan-uuid", "export1.json", 32, "", "", "patient", now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM export_snapshots").
		WithArgs("plan-uuid").
		WillReturnRows(rows)

	items, err := repo.ListByPlan(context.Background(), "plan-uuid")

	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "snap-2", items[0].ID)
	assert.Empty(t, items[0].ExportData)
}

func TestSnapshotPostgres_LatestByPlan(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSnapshotPostgres(db)
	snap := testSnapshot(time.Now().UTC())

	mock.ExpectQuery("SELECT (.+) FROM export_snapshots").
		WithArgs("plan-uuid").
		WillReturnRows(snapshotRow(snap))

	got, err := repo.LatestByPlan(context.Background(), "plan-uuid")

	assert.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.NotEmpty(t, got.ExportData)
}

func TestSnapshotPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSnapshotPostgres(db)

	mock.ExpectExec("DELETE FROM export_snapshots").
		WithArgs("snap-uuid").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), "snap-uuid"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
