package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"orthoview/internal/model"
	repoMocks "orthoview/internal/repository/mocks"
	"orthoview/internal/storage"
	storeMocks "orthoview/internal/storage/mocks"
)

func uploadInput(html string) UploadInput {
	return UploadInput{
		PatientName:   "Jane Roe",
		Clinic:        "Smile Clinic",
		HTML:          UploadAsset{Reader: strings.NewReader(html), Size: int64(len(html))},
		UnitedModel:   UploadAsset{Reader: strings.NewReader("glb-united"), Size: 10},
		SeparateModel: UploadAsset{Reader: strings.NewReader("glb-separate"), Size: 12},
		PDF:           UploadAsset{Reader: strings.NewReader("pdf-bytes"), Size: 9},
	}
}

func TestPlanService_Upload(t *testing.T) {
	ctx := context.Background()
	html := `<html><head></head><body><div id="scene"></div></body></html>`

	t.Run("happy path injects before storing", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockPlanRepository)
		svc := NewPlanService(mStore, mRepo, time.Hour)

		var modifiedBody string
		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasSuffix(key, string(storage.KindModifiedHTML))
		}), mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				b, _ := io.ReadAll(args.Get(2).(io.Reader))
				modifiedBody = string(b)
			}).
			Return(storage.ObjectInfo{}, nil).Once()
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)

		mRepo.On("Create", ctx, mock.MatchedBy(func(p *model.TreatmentPlan3D) bool {
			return p.PatientName == "Jane Roe" &&
				strings.HasPrefix(p.ModifiedHTMLKey, "plans/") &&
				p.RawHTMLKey != p.ModifiedHTMLKey
		})).Return(&model.TreatmentPlan3D{ID: "stored-id"}, nil)

		plan, err := svc.Upload(ctx, uploadInput(html))

		require.NoError(t, err)
		assert.Equal(t, "stored-id", plan.ID)
		// The stored viewer document carries the injected shim.
		assert.Contains(t, modifiedBody, "orthoview-shim")
		assert.Contains(t, modifiedBody, "orthoview-injected-style")
		mStore.AssertNumberOfCalls(t, "Put", 5)
		mRepo.AssertExpectations(t)
	})

	t.Run("missing html", func(t *testing.T) {
		svc := NewPlanService(new(storeMocks.MockStorage), new(repoMocks.MockPlanRepository), time.Hour)

		_, err := svc.Upload(ctx, UploadInput{})

		assert.ErrorIs(t, err, ErrHTMLRequired)
	})

	t.Run("storage error rolls back earlier uploads", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockPlanRepository)
		svc := NewPlanService(mStore, mRepo, time.Hour)

		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasSuffix(key, string(storage.KindPDF))
		}), mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("disk full")).Once()
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		mStore.On("Delete", ctx, mock.Anything).Return(nil)

		_, err := svc.Upload(ctx, uploadInput(html))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		mStore.AssertNumberOfCalls(t, "Delete", 4)
		mRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("db error rolls back all uploads", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockPlanRepository)
		svc := NewPlanService(mStore, mRepo, time.Hour)

		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		mStore.On("Delete", ctx, mock.Anything).Return(nil)
		mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))

		_, err := svc.Upload(ctx, uploadInput(html))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "db save failed")
		mStore.AssertNumberOfCalls(t, "Delete", 5)
	})
}

func TestPlanService_Replace(t *testing.T) {
	ctx := context.Background()
	html := `<html><head></head><body><div id="scene"></div></body></html>`
	existing := &model.TreatmentPlan3D{
		ID:               "plan-1",
		PatientName:      "Jane Roe",
		UnitedModelKey:   "plans/plan-1/united.glb",
		SeparateModelKey: "plans/plan-1/separate.glb",
		PDFKey:           "plans/plan-1/report.pdf",
		RawHTMLKey:       "plans/plan-1/viewer-raw.html",
		ModifiedHTMLKey:  "plans/plan-1/viewer.html",
	}

	t.Run("overwrites assets in place under the same keys", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockPlanRepository)
		svc := NewPlanService(mStore, mRepo, time.Hour)

		mRepo.On("FindByID", ctx, "plan-1").Return(existing, nil)

		var putKeys []string
		var modifiedBody string
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				key := args.String(1)
				putKeys = append(putKeys, key)
				if strings.HasSuffix(key, string(storage.KindModifiedHTML)) {
					b, _ := io.ReadAll(args.Get(2).(io.Reader))
					modifiedBody = string(b)
				}
			}).
			Return(storage.ObjectInfo{}, nil)

		mRepo.On("UpdateAssets", ctx, mock.MatchedBy(func(p *model.TreatmentPlan3D) bool {
			return p.ID == "plan-1" &&
				p.UnitedModelKey == existing.UnitedModelKey &&
				p.ModifiedHTMLKey == existing.ModifiedHTMLKey &&
				!p.UpdatedAt.IsZero()
		})).Return(func(_ context.Context, p *model.TreatmentPlan3D) *model.TreatmentPlan3D {
			return p
		}, nil)

		plan, err := svc.Replace(ctx, "plan-1", uploadInput(html))

		require.NoError(t, err)
		assert.Equal(t, "plan-1", plan.ID)
		// Every write lands on the old fixed keys so nothing is orphaned.
		assert.ElementsMatch(t, []string{
			existing.RawHTMLKey, existing.ModifiedHTMLKey,
			existing.UnitedModelKey, existing.SeparateModelKey, existing.PDFKey,
		}, putKeys)
		// The shim is re-injected with the existing plan's ID.
		assert.Contains(t, modifiedBody, "orthoview-shim")
		assert.Contains(t, modifiedBody, "plan-1")
		mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		mRepo.AssertExpectations(t)
	})

	t.Run("unknown plan", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockPlanRepository)
		svc := NewPlanService(mStore, mRepo, time.Hour)

		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.Replace(ctx, "missing", uploadInput(html))

		assert.ErrorIs(t, err, ErrPlanNotFound)
		mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing html", func(t *testing.T) {
		svc := NewPlanService(new(storeMocks.MockStorage), new(repoMocks.MockPlanRepository), time.Hour)

		_, err := svc.Replace(ctx, "plan-1", UploadInput{})

		assert.ErrorIs(t, err, ErrHTMLRequired)
	})

	t.Run("storage failure surfaces without touching the row", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockPlanRepository)
		svc := NewPlanService(mStore, mRepo, time.Hour)

		mRepo.On("FindByID", ctx, "plan-1").Return(existing, nil)
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("disk full"))

		_, err := svc.Replace(ctx, "plan-1", uploadInput(html))

		require.Error(t, err)
		mRepo.AssertNotCalled(t, "UpdateAssets", mock.Anything, mock.Anything)
	})
}

func TestPlanService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mRepo := new(repoMocks.MockPlanRepository)
		svc := NewPlanService(new(storeMocks.MockStorage), mRepo, time.Hour)

		mRepo.On("FindByID", ctx, "plan-1").Return(&model.TreatmentPlan3D{ID: "plan-1"}, nil)

		plan, err := svc.Get(ctx, "plan-1")

		assert.NoError(t, err)
		assert.Equal(t, "plan-1", plan.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockPlanRepository)
		svc := NewPlanService(new(storeMocks.MockStorage), mRepo, time.Hour)

		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.Get(ctx, "missing")

		assert.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		svc := NewPlanService(new(storeMocks.MockStorage), new(repoMocks.MockPlanRepository), time.Hour)

		_, err := svc.Get(ctx, "")

		assert.ErrorIs(t, err, ErrIDRequired)
	})
}

func TestPlanService_AssetURLs(t *testing.T) {
	ctx := context.Background()
	plan := &model.TreatmentPlan3D{
		ID:               "plan-1",
		UnitedModelKey:   "plans/plan-1/united.glb",
		SeparateModelKey: "plans/plan-1/separate.glb",
		PDFKey:           "plans/plan-1/report.pdf",
	}

	t.Run("presigns all three assets with TTL", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockPlanRepository)
		svc := NewPlanService(mStore, mRepo, 15*time.Minute)

		mRepo.On("FindByID", ctx, "plan-1").Return(plan, nil)
		mStore.On("PresignGet", ctx, plan.UnitedModelKey, 15*time.Minute).Return("https://s/u", nil)
		mStore.On("PresignGet", ctx, plan.SeparateModelKey, 15*time.Minute).Return("https://s/s", nil)
		mStore.On("PresignGet", ctx, plan.PDFKey, 15*time.Minute).Return("https://s/p", nil)

		urls, err := svc.AssetURLs(ctx, "plan-1")

		require.NoError(t, err)
		assert.Equal(t, model.AssetURLs{
			UnitedModelURL:   "https://s/u",
			SeparateModelURL: "https://s/s",
			PDFURL:           "https://s/p",
		}, urls)
	})

	t.Run("presign failure", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockPlanRepository)
		svc := NewPlanService(mStore, mRepo, time.Hour)

		mRepo.On("FindByID", ctx, "plan-1").Return(plan, nil)
		mStore.On("PresignGet", ctx, mock.Anything, mock.Anything).Return("", errors.New("signing key gone"))

		_, err := svc.AssetURLs(ctx, "plan-1")

		assert.Error(t, err)
	})
}

func TestPlanService_Delete(t *testing.T) {
	ctx := context.Background()
	plan := &model.TreatmentPlan3D{
		ID:               "plan-1",
		UnitedModelKey:   "plans/plan-1/united.glb",
		SeparateModelKey: "plans/plan-1/separate.glb",
		PDFKey:           "plans/plan-1/report.pdf",
		RawHTMLKey:       "plans/plan-1/viewer-raw.html",
		ModifiedHTMLKey:  "plans/plan-1/viewer.html",
	}

	t.Run("removes assets then row", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockPlanRepository)
		svc := NewPlanService(mStore, mRepo, time.Hour)

		mRepo.On("FindByID", ctx, "plan-1").Return(plan, nil)
		mStore.On("Delete", ctx, mock.Anything).Return(nil)
		mRepo.On("Delete", ctx, "plan-1").Return(nil)

		err := svc.Delete(ctx, "plan-1")

		assert.NoError(t, err)
		mStore.AssertNumberOfCalls(t, "Delete", 5)
		mRepo.AssertExpectations(t)
	})

	t.Run("storage failure keeps the row", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockPlanRepository)
		svc := NewPlanService(mStore, mRepo, time.Hour)

		mRepo.On("FindByID", ctx, "plan-1").Return(plan, nil)
		mStore.On("Delete", ctx, mock.Anything).Return(errors.New("storage down"))

		err := svc.Delete(ctx, "plan-1")

		require.Error(t, err)
		mRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
