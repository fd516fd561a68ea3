package model

import "time"

// TreatmentPlan3D identifies a patient's 3D orthodontic case and references
// its stored assets. These are pure domain models with no database-specific
// dependencies or tags; they can be used across layers (HTTP, service,
// storage) without coupling to persistence.
//
// Storage keys point into object storage; the modified HTML key references
// the viewer document that has already been rewritten by the injector.
// Plans are created on admin upload and read-only afterward except for
// re-upload, which replaces the asset keys in place.
type TreatmentPlan3D struct {
	ID               string    `json:"id"`
	PatientName      string    `json:"patient_name"`
	Clinic           string    `json:"clinic"`
	UnitedModelKey   string    `json:"united_model_key"`
	SeparateModelKey string    `json:"separate_model_key"`
	PDFKey           string    `json:"pdf_key"`
	RawHTMLKey       string    `json:"raw_html_key"`
	ModifiedHTMLKey  string    `json:"modified_html_key"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AssetURLs carries the time-limited signed URLs for a plan's viewer assets.
// The viewer treats these as opaque strings.
type AssetURLs struct {
	UnitedModelURL   string `json:"unitedModelUrl"`
	SeparateModelURL string `json:"separateModelUrl"`
	PDFURL           string `json:"pdfUrl"`
}
