package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"orthoview/internal/model"
	"orthoview/internal/service"
	"orthoview/internal/storage"
)

type MockPlanService struct {
	mock.Mock
}

func (m *MockPlanService) Upload(ctx context.Context, in service.UploadInput) (*model.TreatmentPlan3D, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TreatmentPlan3D), args.Error(1)
}

func (m *MockPlanService) Replace(ctx context.Context, id string, in service.UploadInput) (*model.TreatmentPlan3D, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TreatmentPlan3D), args.Error(1)
}

func (m *MockPlanService) List(ctx context.Context, limit, offset int) (*service.PlanListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PlanListResult), args.Error(1)
}

func (m *MockPlanService) Get(ctx context.Context, id string) (*model.TreatmentPlan3D, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TreatmentPlan3D), args.Error(1)
}

func (m *MockPlanService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPlanService) AssetURLs(ctx context.Context, id string) (model.AssetURLs, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.AssetURLs), args.Error(1)
}

func (m *MockPlanService) ModifiedHTML(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}
