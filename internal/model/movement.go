package model

import "time"

// Thresholds below which a recorded adjustment is treated as noise.
// Translations are millimeters, rotations are degrees. The comparison is
// strictly greater-than: a value at exactly the epsilon counts as no movement.
const (
	TranslationEpsilonMM = 0.05
	RotationEpsilonDeg   = 0.5
)

// ToothMovement is one row per tooth per plan: the flattened form of an
// export payload used by the movements API. Translation fields are
// millimeters, rotation fields degrees.
type ToothMovement struct {
	ID                 string    `json:"id,omitempty"`
	PlanID             string    `json:"plan_id,omitempty"`
	SnapshotID         string    `json:"snapshot_id,omitempty"`
	ToothNumber        int       `json:"toothNumber"`
	ToothName          string    `json:"toothName"`
	MesialDistal       float64   `json:"mesialDistal"`
	BuccalLingual      float64   `json:"buccalLingual"`
	IntrusionExtrusion float64   `json:"intrusionExtrusion"`
	Tip                float64   `json:"tip"`
	Torque             float64   `json:"torque"`
	Rotation           float64   `json:"rotation"`
	RecordedByRole     string    `json:"recorded_by_role,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
}

// HasMovement reports whether any field exceeds the noise epsilon.
// The guest shim applies the same check before offering an export at all.
func (m ToothMovement) HasMovement() bool {
	return exceeds(m.MesialDistal, TranslationEpsilonMM) ||
		exceeds(m.BuccalLingual, TranslationEpsilonMM) ||
		exceeds(m.IntrusionExtrusion, TranslationEpsilonMM) ||
		exceeds(m.Tip, RotationEpsilonDeg) ||
		exceeds(m.Torque, RotationEpsilonDeg) ||
		exceeds(m.Rotation, RotationEpsilonDeg)
}

func exceeds(v, epsilon float64) bool {
	if v < 0 {
		v = -v
	}
	return v > epsilon
}

// NonTrivial filters a movement list down to entries with real movement.
func NonTrivial(in []ToothMovement) []ToothMovement {
	out := make([]ToothMovement, 0, len(in))
	for _, m := range in {
		if m.HasMovement() {
			out = append(out, m)
		}
	}
	return out
}
