package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"orthoview/internal/model"
	"orthoview/internal/notify"
	"orthoview/internal/relay"
	"orthoview/internal/repository"
)

var ErrExportDataRequired = errors.New("export data is required")

// SaveSnapshotInput carries one captured export to persist.
type SaveSnapshotInput struct {
	PlanID        string
	ExportData    json.RawMessage
	Filename      string
	Description   string
	CreatedBy     string
	CreatedByRole string
}

// SnapshotService owns the export-snapshot use cases: persisting captured
// exports with their flattened movement rows, listing and replaying them,
// and admin deletion. It also implements relay.ExportStore so a viewer
// session can save and replay without knowing the persistence layers.
type SnapshotService interface {
	// Save stores the snapshot and its flattened movements, returning the
	// stored snapshot and the number of movement rows saved.
	Save(ctx context.Context, in SaveSnapshotInput) (*model.ExportSnapshot, int, error)

	// Get returns a snapshot including its export payload.
	Get(ctx context.Context, id string) (*model.ExportSnapshot, error)

	// List returns a plan's snapshots, newest first, without payloads.
	List(ctx context.Context, planID string) ([]model.ExportSnapshot, error)

	// Delete removes a snapshot. Movement rows cascade in the database.
	Delete(ctx context.Context, id string) error

	// Movements returns the flattened movement rows of a plan.
	Movements(ctx context.Context, planID string) ([]model.ToothMovement, error)

	// SaveExport and LatestExport adapt the relay's persistence surface.
	SaveExport(ctx context.Context, planID string, data json.RawMessage, filename, description string) (int, error)
	LatestExport(ctx context.Context, planID string) (json.RawMessage, error)
}

type snapshotService struct {
	plans     repository.PlanRepository
	snapshots repository.SnapshotRepository
	movements repository.MovementRepository
	notifier  notify.Notifier
}

var _ relay.ExportStore = (SnapshotService)(nil)

// NewSnapshotService constructs a new SnapshotService. Pass notify.Noop
// when push notifications are not configured.
func NewSnapshotService(
	plans repository.PlanRepository,
	snapshots repository.SnapshotRepository,
	movements repository.MovementRepository,
	notifier notify.Notifier,
) SnapshotService {
	return &snapshotService{plans: plans, snapshots: snapshots, movements: movements, notifier: notifier}
}

func (s *snapshotService) Save(ctx context.Context, in SaveSnapshotInput) (*model.ExportSnapshot, int, error) {
	if in.PlanID == "" {
		return nil, 0, ErrIDRequired
	}
	if len(in.ExportData) == 0 || !json.Valid(in.ExportData) {
		return nil, 0, ErrExportDataRequired
	}

	if _, err := s.plans.FindByID(ctx, in.PlanID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrPlanNotFound
		}
		return nil, 0, err
	}

	rows, err := relay.ParseMovements(in.ExportData)
	if err != nil {
		return nil, 0, err
	}

	filename := in.Filename
	if filename == "" {
		filename = "export.json"
	}

	snap := &model.ExportSnapshot{
		ID:            uuid.New().String(),
		PlanID:        in.PlanID,
		Filename:      filename,
		SizeBytes:     int64(len(in.ExportData)),
		Description:   in.Description,
		CreatedBy:     in.CreatedBy,
		CreatedByRole: in.CreatedByRole,
		ExportData:    in.ExportData,
		CreatedAt:     time.Now().UTC(),
	}
	stored, err := s.snapshots.Create(ctx, snap)
	if err != nil {
		return nil, 0, fmt.Errorf("save snapshot: %w", err)
	}

	for i := range rows {
		rows[i].ID = uuid.New().String()
		rows[i].PlanID = in.PlanID
		rows[i].SnapshotID = stored.ID
		rows[i].RecordedByRole = in.CreatedByRole
	}
	count, err := s.movements.CreateBatch(ctx, rows)
	if err != nil {
		// Roll back the snapshot so a retried save does not duplicate it.
		if delErr := s.snapshots.Delete(ctx, stored.ID); delErr != nil {
			return nil, 0, fmt.Errorf("save movements failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, 0, fmt.Errorf("save movements failed: %w", err)
	}

	if len(model.NonTrivial(rows)) > 0 {
		go s.dispatchSaved(stored, count)
	}

	return stored, count, nil
}

// dispatchSaved notifies plan followers off the request path; failures are
// logged only.
func (s *snapshotService) dispatchSaved(snap *model.ExportSnapshot, count int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.notifier.Dispatch(ctx, notify.Notification{
		Topic: "plan-" + snap.PlanID,
		Title: "New treatment adjustment saved",
		Body:  fmt.Sprintf("%s saved %d tooth movements", snap.CreatedByRole, count),
		Data: map[string]string{
			"planId":     snap.PlanID,
			"snapshotId": snap.ID,
		},
	})
	if err != nil {
		log.Printf("notify: snapshot %s dispatch failed: %v", snap.ID, err)
	}
}

func (s *snapshotService) Get(ctx context.Context, id string) (*model.ExportSnapshot, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	snap, err := s.snapshots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return snap, nil
}

func (s *snapshotService) List(ctx context.Context, planID string) ([]model.ExportSnapshot, error) {
	if planID == "" {
		return nil, ErrIDRequired
	}
	return s.snapshots.ListByPlan(ctx, planID)
}

func (s *snapshotService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.snapshots.Delete(ctx, id)
}

func (s *snapshotService) Movements(ctx context.Context, planID string) ([]model.ToothMovement, error) {
	if planID == "" {
		return nil, ErrIDRequired
	}
	return s.movements.ListByPlan(ctx, planID)
}

// SaveExport adapts Save for the relay, which has no authenticated author.
func (s *snapshotService) SaveExport(ctx context.Context, planID string, data json.RawMessage, filename, description string) (int, error) {
	_, count, err := s.Save(ctx, SaveSnapshotInput{
		PlanID:      planID,
		ExportData:  data,
		Filename:    filename,
		Description: description,
	})
	return count, err
}

// LatestExport returns the newest snapshot payload for import replay.
func (s *snapshotService) LatestExport(ctx context.Context, planID string) (json.RawMessage, error) {
	snap, err := s.snapshots.LatestByPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return snap.ExportData, nil
}
