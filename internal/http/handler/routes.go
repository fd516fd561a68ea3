package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"orthoview/internal/relay"
	"orthoview/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic; everything above
// request parsing and status mapping lives in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, planSvc service.PlanService, snapSvc service.SnapshotService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/plans", UploadPlan(planSvc))
	app.Get("/plans", ListPlans(planSvc))
	app.Get("/plans/:id", GetPlan(planSvc))
	app.Put("/plans/:id", ReplacePlan(planSvc))
	app.Delete("/plans/:id", DeletePlan(planSvc))
	app.Get("/plans/:id/html", PlanViewerHTML(planSvc))
	app.Get("/plans/:id/assets", PlanAssetURLs(planSvc))
	app.Get("/plans/:id/assets/resolve", ResolvePlanAsset(planSvc))
	app.Get("/plans/:id/movements", PlanMovements(snapSvc))

	// The viewer relay speaks the iframe message protocol over a websocket.
	app.Get("/plans/:id/viewer", relay.Upgrade(), relay.Handler(planSvc, snapSvc))

	app.Post("/exports/save", SaveExport(snapSvc))
	app.Get("/exports/get", GetExport(snapSvc))
	app.Get("/exports/list", ListExports(snapSvc))
	app.Delete("/exports/delete", DeleteExport(snapSvc))
}

// HealthCheck reports readiness by pinging the database.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness check with no dependencies.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// planUploadForm reads the multipart plan form (viewer html, both model
// files, the report pdf, plus patientName and clinic fields). When ok is
// false an error response has already been written. The returned cleanup
// closes the opened files.
func planUploadForm(c *fiber.Ctx) (in service.UploadInput, cleanup func(), ok bool) {
	in = service.UploadInput{
		PatientName: c.FormValue("patientName"),
		Clinic:      c.FormValue("clinic"),
	}

	var closers []multipart.File
	cleanup = func() {
		for _, f := range closers {
			f.Close()
		}
	}

	for _, part := range []struct {
		field string
		dst   *service.UploadAsset
	}{
		{"html", &in.HTML},
		{"unitedModel", &in.UnitedModel},
		{"separateModel", &in.SeparateModel},
		{"pdf", &in.PDF},
	} {
		fh, err := c.FormFile(part.field)
		if err != nil {
			cleanup()
			writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", part.field+" file is required")
			return in, func() {}, false
		}
		f, err := fh.Open()
		if err != nil {
			cleanup()
			writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded "+part.field)
			return in, func() {}, false
		}
		closers = append(closers, f)
		*part.dst = service.UploadAsset{
			Reader:      f,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
		}
	}
	return in, cleanup, true
}

// UploadPlan creates a plan from a multipart upload.
func UploadPlan(svc service.PlanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, cleanup, ok := planUploadForm(c)
		if !ok {
			return nil
		}
		defer cleanup()

		plan, err := svc.Upload(c.UserContext(), in)
		if err != nil {
			if errors.Is(err, service.ErrHTMLRequired) {
				return writeError(c, fiber.StatusBadRequest, "HTML_REQUIRED", "viewer html is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(plan)
	}
}

// ReplacePlan re-uploads an existing plan's assets, overwriting them in
// place and re-injecting the viewer shim.
func ReplacePlan(svc service.PlanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		in, cleanup, ok := planUploadForm(c)
		if !ok {
			return nil
		}
		defer cleanup()

		plan, err := svc.Replace(c.UserContext(), id, in)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrPlanNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "plan not found")
			case errors.Is(err, service.ErrHTMLRequired):
				return writeError(c, fiber.StatusBadRequest, "HTML_REQUIRED", "viewer html is required")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(plan)
	}
}

// ListPlans returns paginated plans using limit & offset.
func ListPlans(svc service.PlanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetPlan returns a plan by ID.
func GetPlan(svc service.PlanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		plan, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrPlanNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "plan not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(plan)
	}
}

// DeletePlan removes a plan and its stored assets.
func DeletePlan(svc service.PlanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrPlanNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "plan not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PlanViewerHTML streams the injected viewer document for iframe embedding.
func PlanViewerHTML(svc service.PlanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		body, info, err := svc.ModifiedHTML(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrPlanNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "plan not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		c.Type("html")
		if info.Size > 0 {
			return c.SendStream(body, int(info.Size))
		}
		return c.SendStream(body)
	}
}

// PlanAssetURLs returns short-lived signed URLs for the plan's assets.
func PlanAssetURLs(svc service.PlanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		urls, err := svc.AssetURLs(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrPlanNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "plan not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(urls)
	}
}

// ResolvePlanAsset redirects a viewer-relative asset request to its signed
// URL, applying the same substitution rules the embedded shim uses.
func ResolvePlanAsset(svc service.PlanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		raw := c.Query("url")
		if raw == "" {
			return writeError(c, fiber.StatusBadRequest, "URL_REQUIRED", "url query parameter is required")
		}

		urls, err := svc.AssetURLs(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrPlanNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "plan not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		resolved := relay.Substitute(urls, raw)
		if resolved == raw && relay.Classify(raw) == relay.ClassOther {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "no substitute for url")
		}
		return c.Redirect(resolved, fiber.StatusFound)
	}
}

// PlanMovements returns the flattened movement history for a plan.
func PlanMovements(svc service.SnapshotService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rows, err := svc.Movements(c.UserContext(), id)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": rows, "total": len(rows)})
	}
}

// saveExportRequest is the JSON body of POST /exports/save.
type saveExportRequest struct {
	PlanID        string          `json:"planId"`
	ExportData    json.RawMessage `json:"exportData"`
	Filename      string          `json:"filename"`
	Description   string          `json:"description"`
	CreatedBy     string          `json:"createdBy"`
	CreatedByRole string          `json:"createdByRole"`
}

// SaveExport stores an export snapshot posted by the host page.
func SaveExport(svc service.SnapshotService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req saveExportRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if req.PlanID == "" {
			return writeError(c, fiber.StatusBadRequest, "PLAN_ID_REQUIRED", "planId is required")
		}

		_, count, err := svc.Save(c.UserContext(), service.SaveSnapshotInput{
			PlanID:        req.PlanID,
			ExportData:    req.ExportData,
			Filename:      req.Filename,
			Description:   req.Description,
			CreatedBy:     req.CreatedBy,
			CreatedByRole: req.CreatedByRole,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrPlanNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "plan not found")
			case errors.Is(err, service.ErrExportDataRequired):
				return writeError(c, fiber.StatusBadRequest, "EXPORT_DATA_REQUIRED", "exportData must be valid json")
			case errors.Is(err, relay.ErrInvalidExport):
				return writeError(c, fiber.StatusBadRequest, "INVALID_EXPORT", "export payload is not valid")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"count": count})
	}
}

// GetExport returns one snapshot's metadata and its payload side by side.
func GetExport(svc service.SnapshotService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Query("snapshotId")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid snapshotId format")
		}
		snap, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrSnapshotNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "snapshot not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		exportData := snap.ExportData
		meta := *snap
		meta.ExportData = nil
		return c.JSON(fiber.Map{"snapshot": meta, "exportData": exportData})
	}
}

// ListExports returns a plan's snapshots, newest first, without payloads.
func ListExports(svc service.SnapshotService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		planID := c.Query("planId")
		if _, err := uuid.Parse(planID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid planId format")
		}
		snaps, err := svc.List(c.UserContext(), planID)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"snapshots": snaps})
	}
}

// DeleteExport removes one snapshot.
func DeleteExport(svc service.SnapshotService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Query("snapshotId")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid snapshotId format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrSnapshotNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "snapshot not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
