// Package injector rewrites uploaded third-party 3D-viewer HTML so it can
// run inside a sandboxed iframe and cooperate with the host page: asset
// requests are redirected to parent-supplied signed URLs and export
// downloads are captured as structured postMessage payloads.
//
// The rewrite is a one-shot string injection into trusted uploads, not a
// sanitizer. It never fails: malformed or partial HTML degrades to
// wrap-and-append instead of returning an error.
package injector

import (
	_ "embed"
	"encoding/json"
	"strings"
)

//go:embed shim.js
var shimJS string

const viewportMeta = `<meta name="viewport" content="width=device-width, initial-scale=1.0, maximum-scale=5.0, user-scalable=yes, viewport-fit=cover">`

// Injected once into <head>. Hides the exporter's branded header, keeps
// fixed-position elements inside the iframe's scroll context, shrinks fonts
// and tables on small screens, and pads the bottom so sticky tables near the
// viewport edge stay reachable.
const injectedCSS = `<style id="orthoview-injected-style">
  #header, .header, .brand-header, .logo-header { display: none !important; }
  [style*="position: fixed"], [style*="position:fixed"] { position: absolute !important; }
  @media (max-width: 768px) {
    body { font-size: 14px; }
    table { font-size: 11px; }
    th, td { padding: 2px 4px; }
  }
  @media (max-width: 480px) {
    body { font-size: 12px; }
    table { font-size: 10px; }
  }
  body { padding-bottom: env(safe-area-inset-bottom, 0); }
  body::after { content: ""; display: block; height: 120px; }
</style>`

// ModifyBlenderHTML returns a copy of htmlContent with the viewport meta tag
// and responsive CSS inserted into <head> and the guest interception shim
// inserted just before </body>. The input does not have to be a complete
// document; the insertion points fall back until something fits, so the
// result is always renderable in an iframe.
func ModifyBlenderHTML(htmlContent, planID string) string {
	out := insertHeadContent(htmlContent, "\n"+viewportMeta+"\n"+injectedCSS+"\n")
	out = insertScript(out, scriptBlock(planID))
	return out
}

func scriptBlock(planID string) string {
	js := strings.Replace(shimJS, "__PLAN_ID__", jsString(planID), 1)
	return "\n<script id=\"orthoview-shim\">\n" + js + "</script>\n"
}

// jsString encodes s as a JavaScript string literal. JSON string syntax is a
// subset of JS, so this is safe for any plan identifier.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

// insertHeadContent places content into the document head, trying in order:
// before </head>, after <head>, inside a synthesized <head> after <html>,
// and finally prepended to the start of the document.
func insertHeadContent(doc, content string) string {
	if i := indexTag(doc, "</head>"); i >= 0 {
		return doc[:i] + content + doc[i:]
	}
	if i := indexOpenTagEnd(doc, "<head"); i >= 0 {
		return doc[:i] + content + doc[i:]
	}
	if i := indexOpenTagEnd(doc, "<html"); i >= 0 {
		return doc[:i] + "\n<head>" + content + "</head>" + doc[i:]
	}
	return "<head>" + content + "</head>\n" + doc
}

// insertScript places the shim script, trying in order: before </body>,
// before </html>, appended to the end of the document.
func insertScript(doc, script string) string {
	if i := indexTag(doc, "</body>"); i >= 0 {
		return doc[:i] + script + doc[i:]
	}
	if i := indexTag(doc, "</html>"); i >= 0 {
		return doc[:i] + script + doc[i:]
	}
	return doc + script
}

// indexTag finds the byte offset of a literal tag, case-insensitively.
func indexTag(doc, tag string) int {
	return strings.Index(strings.ToLower(doc), tag)
}

// indexOpenTagEnd finds the offset just past the '>' closing an opening tag
// such as "<head" or "<html", tolerating attributes. Returns -1 when the tag
// is absent or unterminated.
func indexOpenTagEnd(doc, prefix string) int {
	lower := strings.ToLower(doc)
	start := strings.Index(lower, prefix)
	if start < 0 {
		return -1
	}
	// The next character must terminate the tag name, otherwise "<header"
	// would match "<head".
	rest := start + len(prefix)
	if rest < len(lower) {
		c := lower[rest]
		if c != '>' && c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return -1
		}
	}
	end := strings.IndexByte(doc[start:], '>')
	if end < 0 {
		return -1
	}
	return start + end + 1
}
