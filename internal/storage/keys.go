package storage

import "path"

// AssetKind names one of the stored files belonging to a treatment plan.
type AssetKind string

const (
	KindUnitedModel   AssetKind = "united.glb"
	KindSeparateModel AssetKind = "separate.glb"
	KindPDF           AssetKind = "report.pdf"
	KindRawHTML       AssetKind = "viewer-raw.html"
	KindModifiedHTML  AssetKind = "viewer.html"
)

// PlanAssetKey builds the storage key for one asset of a plan.
// All assets of a plan live under a common prefix so a plan delete can
// remove them by listing the prefix.
func PlanAssetKey(planID string, kind AssetKind) string {
	return path.Join("plans", planID, string(kind))
}

// ContentTypeFor maps an asset kind to the content type stored with it.
func ContentTypeFor(kind AssetKind) string {
	switch kind {
	case KindUnitedModel, KindSeparateModel:
		return "model/gltf-binary"
	case KindPDF:
		return "application/pdf"
	case KindRawHTML, KindModifiedHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
