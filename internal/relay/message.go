// Package relay implements the host side of the viewer integration: the
// message protocol spoken with the injected guest shim over the viewer
// WebSocket, the asset URL substitution policy, and the per-session state
// machine that pushes signed asset URLs once both the plan data and the
// guest document are ready.
package relay

import (
	"encoding/json"

	"orthoview/internal/model"
)

// MessageType discriminates relay protocol messages.
type MessageType string

const (
	// host -> guest
	TypeFileURLs    MessageType = "FILE_URLS"
	TypeAssetURLs   MessageType = "ASSET_URLS"
	TypeImportData  MessageType = "IMPORT_DATA"
	TypeExportError MessageType = "EXPORT_ERROR"
	TypeExportSaved MessageType = "EXPORT_SAVED"

	// guest -> host
	TypeViewerReady   MessageType = "VIEWER_READY"
	TypeExportData    MessageType = "EXPORT_DATA"
	TypeImportSuccess MessageType = "IMPORT_SUCCESS"
	TypeImportManual  MessageType = "IMPORT_MANUAL"
	TypeRequestImport MessageType = "REQUEST_IMPORT"
)

// Capabilities is the guest document's self-reported import surface,
// carried on VIEWER_READY and used to choose an import strategy.
type Capabilities struct {
	Globals          []string `json:"globals,omitempty"`
	HasFileInput     bool     `json:"hasFileInput,omitempty"`
	HasImportControl bool     `json:"hasImportControl,omitempty"`
}

// Message is the wire envelope for every relay message. Only the fields
// relevant to a given type are populated; unknown extra keys from the guest
// are ignored on decode.
type Message struct {
	Type         MessageType      `json:"type"`
	PlanID       string           `json:"planId,omitempty"`
	Payload      *model.AssetURLs `json:"payload,omitempty"`
	URLs         *model.AssetURLs `json:"urls,omitempty"`
	Data         json.RawMessage  `json:"data,omitempty"`
	Href         string           `json:"href,omitempty"`
	ExportData   json.RawMessage  `json:"exportData,omitempty"`
	Filename     string           `json:"filename,omitempty"`
	Description  string           `json:"description,omitempty"`
	Strategy     string           `json:"strategy,omitempty"`
	Message      string           `json:"message,omitempty"`
	Count        int              `json:"count,omitempty"`
	Capabilities *Capabilities    `json:"capabilities,omitempty"`
}

// AssetURLs returns the delivered URLs regardless of which key carried
// them. Older hosts used payload, newer use urls; both remain accepted.
func (m *Message) AssetURLs() *model.AssetURLs {
	if m.Payload != nil {
		return m.Payload
	}
	return m.URLs
}

// NewAssetURLsMessage builds the host->guest URL delivery message. Both
// keys are populated so shims of either generation can read it.
func NewAssetURLsMessage(u model.AssetURLs) Message {
	return Message{Type: TypeAssetURLs, Payload: &u, URLs: &u}
}
