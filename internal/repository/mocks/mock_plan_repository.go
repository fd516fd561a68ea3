package mocks

import (
	"context"

	"orthoview/internal/model"
	"orthoview/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) Create(ctx context.Context, plan *model.TreatmentPlan3D) (*model.TreatmentPlan3D, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TreatmentPlan3D), args.Error(1)
}

func (m *MockPlanRepository) FindByID(ctx context.Context, id string) (*model.TreatmentPlan3D, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TreatmentPlan3D), args.Error(1)
}

func (m *MockPlanRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.TreatmentPlan3D], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.TreatmentPlan3D]), args.Error(1)
}

func (m *MockPlanRepository) UpdateAssets(ctx context.Context, plan *model.TreatmentPlan3D) (*model.TreatmentPlan3D, error) {
	args := m.Called(ctx, plan)
	if f, ok := args.Get(0).(func(context.Context, *model.TreatmentPlan3D) *model.TreatmentPlan3D); ok {
		return f(ctx, plan), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TreatmentPlan3D), args.Error(1)
}

func (m *MockPlanRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
