package model

import (
	"encoding/json"
	"time"
)

// ExportSnapshot is a point-in-time capture of tooth-movement adjustments
// made inside the guest viewer. Snapshots are immutable once created and
// deletable by admin; many snapshots may exist per plan with no ordering
// guarantee beyond creation time.
type ExportSnapshot struct {
	ID            string          `json:"id"`
	PlanID        string          `json:"plan_id"`
	Filename      string          `json:"filename"`
	SizeBytes     int64           `json:"size_bytes"`
	Description   string          `json:"description"`
	CreatedBy     string          `json:"created_by"`
	CreatedByRole string          `json:"created_by_role"`
	ExportData    json.RawMessage `json:"export_data,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ExportPayload is the structured body of a captured export. Extra keys
// beyond movements are preserved verbatim in the snapshot's raw payload.
type ExportPayload struct {
	Movements []ToothMovement `json:"movements"`
}
