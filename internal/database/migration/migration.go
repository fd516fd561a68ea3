package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_plans",
		SQL: `CREATE TABLE IF NOT EXISTS plans (
  id                 UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  patient_name       TEXT        NOT NULL,
  clinic             TEXT        NOT NULL DEFAULT '',
  united_model_key   TEXT        NOT NULL,
  separate_model_key TEXT        NOT NULL,
  pdf_key            TEXT        NOT NULL,
  raw_html_key       TEXT        NOT NULL,
  modified_html_key  TEXT        NOT NULL,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_export_snapshots",
		SQL: `CREATE TABLE IF NOT EXISTS export_snapshots (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  plan_id         UUID        NOT NULL REFERENCES plans (id) ON DELETE CASCADE,
  filename        TEXT        NOT NULL,
  size_bytes      BIGINT      NOT NULL CHECK (size_bytes >= 0),
  description     TEXT        NOT NULL DEFAULT '',
  created_by      TEXT        NOT NULL DEFAULT '',
  created_by_role TEXT        NOT NULL DEFAULT '',
  export_data     JSONB       NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_tooth_movements",
		SQL: `CREATE TABLE IF NOT EXISTS tooth_movements (
  id                  UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  plan_id             UUID             NOT NULL REFERENCES plans (id) ON DELETE CASCADE,
  snapshot_id         UUID             REFERENCES export_snapshots (id) ON DELETE CASCADE,
  tooth_number        INT              NOT NULL,
  tooth_name          TEXT             NOT NULL,
  mesial_distal       DOUBLE PRECISION NOT NULL DEFAULT 0,
  buccal_lingual      DOUBLE PRECISION NOT NULL DEFAULT 0,
  intrusion_extrusion DOUBLE PRECISION NOT NULL DEFAULT 0,
  tip                 DOUBLE PRECISION NOT NULL DEFAULT 0,
  torque              DOUBLE PRECISION NOT NULL DEFAULT 0,
  rotation            DOUBLE PRECISION NOT NULL DEFAULT 0,
  recorded_role       TEXT             NOT NULL DEFAULT '',
  created_at          TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_plans_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans (created_at);`,
	},
	{
		Name: "create_index_export_snapshots_plan_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_export_snapshots_plan_id ON export_snapshots (plan_id);`,
	},
	{
		Name: "create_index_export_snapshots_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_export_snapshots_created_at ON export_snapshots (created_at);`,
	},
	{
		Name: "create_index_tooth_movements_plan_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_tooth_movements_plan_id ON tooth_movements (plan_id);`,
	},
	{
		Name: "create_index_tooth_movements_snapshot_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_tooth_movements_snapshot_id ON tooth_movements (snapshot_id);`,
	},
}

// EnsureMigrated checks if the 'plans' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.plans') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
