package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"orthoview/internal/model"
	"orthoview/internal/service"
)

type MockSnapshotService struct {
	mock.Mock
}

func (m *MockSnapshotService) Save(ctx context.Context, in service.SaveSnapshotInput) (*model.ExportSnapshot, int, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).(*model.ExportSnapshot), args.Int(1), args.Error(2)
}

func (m *MockSnapshotService) Get(ctx context.Context, id string) (*model.ExportSnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExportSnapshot), args.Error(1)
}

func (m *MockSnapshotService) List(ctx context.Context, planID string) ([]model.ExportSnapshot, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ExportSnapshot), args.Error(1)
}

func (m *MockSnapshotService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSnapshotService) Movements(ctx context.Context, planID string) ([]model.ToothMovement, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ToothMovement), args.Error(1)
}

func (m *MockSnapshotService) SaveExport(ctx context.Context, planID string, data json.RawMessage, filename, description string) (int, error) {
	args := m.Called(ctx, planID, data, filename, description)
	return args.Int(0), args.Error(1)
}

func (m *MockSnapshotService) LatestExport(ctx context.Context, planID string) (json.RawMessage, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
