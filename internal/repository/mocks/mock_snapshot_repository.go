package mocks

import (
	"context"

	"orthoview/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Create(ctx context.Context, snap *model.ExportSnapshot) (*model.ExportSnapshot, error) {
	args := m.Called(ctx, snap)
	if f, ok := args.Get(0).(func(context.Context, *model.ExportSnapshot) *model.ExportSnapshot); ok {
		return f(ctx, snap), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExportSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) FindByID(ctx context.Context, id string) (*model.ExportSnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExportSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) ListByPlan(ctx context.Context, planID string) ([]model.ExportSnapshot, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ExportSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) LatestByPlan(ctx context.Context, planID string) (*model.ExportSnapshot, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExportSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) CreateBatch(ctx context.Context, movements []model.ToothMovement) (int, error) {
	args := m.Called(ctx, movements)
	return args.Int(0), args.Error(1)
}

func (m *MockMovementRepository) ListByPlan(ctx context.Context, planID string) ([]model.ToothMovement, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ToothMovement), args.Error(1)
}
