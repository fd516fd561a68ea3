package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"orthoview/internal/injector"
	"orthoview/internal/model"
	"orthoview/internal/repository"
	"orthoview/internal/storage"
)

var (
	ErrIDRequired       = errors.New("id is required")
	ErrPlanNotFound     = errors.New("plan not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrHTMLRequired     = errors.New("viewer html is required")
)

// UploadAsset is one incoming file of a plan upload.
type UploadAsset struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// UploadInput carries everything needed to create or replace a plan.
type UploadInput struct {
	PatientName   string
	Clinic        string
	HTML          UploadAsset
	UnitedModel   UploadAsset
	SeparateModel UploadAsset
	PDF           UploadAsset
}

// PlanListResult is the service-level DTO for paginated plans.
type PlanListResult struct {
	Items []model.TreatmentPlan3D `json:"data"`
	Total int                     `json:"total"`
}

// PlanService defines the use cases for handling treatment plans: admin
// upload (which rewrites the viewer HTML once), retrieval, asset URL
// issuance for the relay, and deletion.
type PlanService interface {
	// Upload stores all plan assets, injects the viewer shim into the
	// uploaded HTML, persists the rewritten document, and creates the plan
	// row. Storage writes are rolled back if the DB save fails.
	Upload(ctx context.Context, in UploadInput) (*model.TreatmentPlan3D, error)

	// Replace re-runs the upload pipeline against an existing plan. The
	// asset keys are fixed per kind, so the new files overwrite the old
	// ones in place and the viewer shim is re-injected under the same
	// plan ID.
	Replace(ctx context.Context, id string, in UploadInput) (*model.TreatmentPlan3D, error)

	// List returns plans using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*PlanListResult, error)

	// Get returns a single plan by its ID.
	Get(ctx context.Context, id string) (*model.TreatmentPlan3D, error)

	// Delete removes a plan and all its stored assets.
	Delete(ctx context.Context, id string) error

	// AssetURLs presigns the plan's viewer assets for the relay to push.
	AssetURLs(ctx context.Context, id string) (model.AssetURLs, error)

	// ModifiedHTML streams the injected viewer document for iframe embedding.
	ModifiedHTML(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error)
}

// planService is a concrete implementation of PlanService.
type planService struct {
	store    storage.Storage
	repo     repository.PlanRepository
	assetTTL time.Duration
}

// NewPlanService constructs a new PlanService. assetTTL bounds the lifetime
// of presigned asset URLs.
func NewPlanService(store storage.Storage, repo repository.PlanRepository, assetTTL time.Duration) PlanService {
	return &planService{store: store, repo: repo, assetTTL: assetTTL}
}

func (s *planService) Upload(ctx context.Context, in UploadInput) (*model.TreatmentPlan3D, error) {
	if in.HTML.Reader == nil {
		return nil, ErrHTMLRequired
	}

	planID := uuid.New().String()

	rawHTML, err := io.ReadAll(in.HTML.Reader)
	if err != nil {
		return nil, fmt.Errorf("read viewer html: %w", err)
	}
	modified := injector.ModifyBlenderHTML(string(rawHTML), planID)

	// Keys are fixed per kind so a re-upload overwrites in place.
	var uploaded []string
	put := func(kind storage.AssetKind, r io.Reader, size int64) (string, error) {
		key := storage.PlanAssetKey(planID, kind)
		_, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
			Size:        size,
			ContentType: storage.ContentTypeFor(kind),
		})
		if err != nil {
			return "", fmt.Errorf("upload %s: %w", kind, err)
		}
		uploaded = append(uploaded, key)
		return key, nil
	}
	rollback := func() {
		for _, key := range uploaded {
			_ = s.store.Delete(ctx, key)
		}
	}

	rawKey, err := put(storage.KindRawHTML, bytes.NewReader(rawHTML), int64(len(rawHTML)))
	if err != nil {
		return nil, err
	}
	modKey, err := put(storage.KindModifiedHTML, bytes.NewReader([]byte(modified)), int64(len(modified)))
	if err != nil {
		rollback()
		return nil, err
	}
	unitedKey, err := put(storage.KindUnitedModel, in.UnitedModel.Reader, in.UnitedModel.Size)
	if err != nil {
		rollback()
		return nil, err
	}
	separateKey, err := put(storage.KindSeparateModel, in.SeparateModel.Reader, in.SeparateModel.Size)
	if err != nil {
		rollback()
		return nil, err
	}
	pdfKey, err := put(storage.KindPDF, in.PDF.Reader, in.PDF.Size)
	if err != nil {
		rollback()
		return nil, err
	}

	now := time.Now().UTC()
	plan := &model.TreatmentPlan3D{
		ID:               planID,
		PatientName:      in.PatientName,
		Clinic:           in.Clinic,
		UnitedModelKey:   unitedKey,
		SeparateModelKey: separateKey,
		PDFKey:           pdfKey,
		RawHTMLKey:       rawKey,
		ModifiedHTMLKey:  modKey,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	stored, err := s.repo.Create(ctx, plan)
	if err != nil {
		rollback()
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// Replace overwrites an existing plan's stored assets with freshly uploaded
// ones. Writes land on the same fixed keys, so earlier assets are replaced
// in place; a failure partway through leaves a mix of old and new assets,
// which the caller resolves by retrying the re-upload.
func (s *planService) Replace(ctx context.Context, id string, in UploadInput) (*model.TreatmentPlan3D, error) {
	if in.HTML.Reader == nil {
		return nil, ErrHTMLRequired
	}
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rawHTML, err := io.ReadAll(in.HTML.Reader)
	if err != nil {
		return nil, fmt.Errorf("read viewer html: %w", err)
	}
	modified := injector.ModifyBlenderHTML(string(rawHTML), plan.ID)

	put := func(kind storage.AssetKind, r io.Reader, size int64) (string, error) {
		key := storage.PlanAssetKey(plan.ID, kind)
		_, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
			Size:        size,
			ContentType: storage.ContentTypeFor(kind),
		})
		if err != nil {
			return "", fmt.Errorf("upload %s: %w", kind, err)
		}
		return key, nil
	}

	if plan.RawHTMLKey, err = put(storage.KindRawHTML, bytes.NewReader(rawHTML), int64(len(rawHTML))); err != nil {
		return nil, err
	}
	if plan.ModifiedHTMLKey, err = put(storage.KindModifiedHTML, bytes.NewReader([]byte(modified)), int64(len(modified))); err != nil {
		return nil, err
	}
	if plan.UnitedModelKey, err = put(storage.KindUnitedModel, in.UnitedModel.Reader, in.UnitedModel.Size); err != nil {
		return nil, err
	}
	if plan.SeparateModelKey, err = put(storage.KindSeparateModel, in.SeparateModel.Reader, in.SeparateModel.Size); err != nil {
		return nil, err
	}
	if plan.PDFKey, err = put(storage.KindPDF, in.PDF.Reader, in.PDF.Size); err != nil {
		return nil, err
	}

	plan.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.UpdateAssets(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return updated, nil
}

// List returns paginated plans without exposing repository types.
func (s *planService) List(ctx context.Context, limit, offset int) (*PlanListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &PlanListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a plan by ID.
func (s *planService) Get(ctx context.Context, id string) (*model.TreatmentPlan3D, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// Delete removes a plan's assets from storage, then deletes its record.
func (s *planService) Delete(ctx context.Context, id string) error {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	for _, key := range []string{plan.UnitedModelKey, plan.SeparateModelKey, plan.PDFKey, plan.RawHTMLKey, plan.ModifiedHTMLKey} {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}

// AssetURLs presigns the three viewer assets with the configured TTL.
func (s *planService) AssetURLs(ctx context.Context, id string) (model.AssetURLs, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return model.AssetURLs{}, err
	}

	united, err := s.store.PresignGet(ctx, plan.UnitedModelKey, s.assetTTL)
	if err != nil {
		return model.AssetURLs{}, fmt.Errorf("presign united model: %w", err)
	}
	separate, err := s.store.PresignGet(ctx, plan.SeparateModelKey, s.assetTTL)
	if err != nil {
		return model.AssetURLs{}, fmt.Errorf("presign separate model: %w", err)
	}
	pdf, err := s.store.PresignGet(ctx, plan.PDFKey, s.assetTTL)
	if err != nil {
		return model.AssetURLs{}, fmt.Errorf("presign pdf: %w", err)
	}

	return model.AssetURLs{
		UnitedModelURL:   united,
		SeparateModelURL: separate,
		PDFURL:           pdf,
	}, nil
}

// ModifiedHTML streams the injected viewer document.
func (s *planService) ModifiedHTML(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	return s.store.Get(ctx, plan.ModifiedHTMLKey)
}
