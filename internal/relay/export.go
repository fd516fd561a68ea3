package relay

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"orthoview/internal/model"
)

var (
	ErrNotDataHref   = errors.New("href is not a data: URI")
	ErrEmptyExport   = errors.New("export payload is empty")
	ErrInvalidExport = errors.New("export payload is not valid JSON")
)

// DecodeExportHref extracts the JSON payload from a captured download
// anchor's data: href. Both base64 and percent-encoded data URIs are
// handled; the guest shim decodes blob: hrefs itself because blob contents
// never leave the browser.
func DecodeExportHref(href string) (json.RawMessage, error) {
	if !strings.HasPrefix(href, "data:") {
		return nil, ErrNotDataHref
	}
	comma := strings.IndexByte(href, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: missing payload separator", ErrNotDataHref)
	}
	meta, payload := href[5:comma], href[comma+1:]

	var text []byte
	if strings.Contains(meta, "base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode base64 export: %w", err)
		}
		text = decoded
	} else {
		unescaped, err := url.QueryUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("decode percent-encoded export: %w", err)
		}
		text = []byte(unescaped)
	}

	if !json.Valid(text) {
		return nil, ErrInvalidExport
	}
	return json.RawMessage(text), nil
}

// ExportPayloadFrom normalizes an EXPORT_DATA message body: the shim sends
// either parsed JSON in data or a raw data: href when it skipped client-side
// parsing. Extra keys beyond movements survive in the returned raw payload.
func ExportPayloadFrom(msg Message) (json.RawMessage, error) {
	if len(msg.Data) > 0 {
		if !json.Valid(msg.Data) {
			return nil, ErrInvalidExport
		}
		return msg.Data, nil
	}
	if msg.Href != "" {
		return DecodeExportHref(msg.Href)
	}
	return nil, ErrEmptyExport
}

// ParseMovements pulls the movement rows out of a raw export payload.
func ParseMovements(raw json.RawMessage) ([]model.ToothMovement, error) {
	var payload model.ExportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse export movements: %w", err)
	}
	return payload.Movements, nil
}
