package injector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const planID = "7b1c2b4e-6e7a-4f7c-9f3b-0d9b1a2c3d4e"

func TestModifyBlenderHTML_CompleteDocument(t *testing.T) {
	in := `<!DOCTYPE html>
<html lang="en">
<head><title>Viewer</title></head>
<body><div id="scene"></div></body>
</html>`

	out := ModifyBlenderHTML(in, planID)

	// Head content lands before </head>, script before </body>.
	assert.Less(t, strings.Index(out, "orthoview-injected-style"), strings.Index(out, "</head>"))
	assert.Less(t, strings.Index(out, "orthoview-shim"), strings.Index(out, "</body>"))
	assert.Contains(t, out, viewportMeta)
	assert.Contains(t, out, planID)
}

func TestModifyBlenderHTML_SingleInjection(t *testing.T) {
	in := `<html><head></head><body></body></html>`
	out := ModifyBlenderHTML(in, planID)

	assert.Equal(t, 1, strings.Count(out, "orthoview-injected-style"))
	assert.Equal(t, 1, strings.Count(out, `id="orthoview-shim"`))
	assert.Equal(t, 1, strings.Count(out, viewportMeta))
}

func TestModifyBlenderHTML_FallbackOrder(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no closing head", `<html><head><body>content</body></html>`},
		{"no head at all", `<html><body>content</body></html>`},
		{"html only", `<html>content</html>`},
		{"bare fragment", `<div>content</div>`},
		{"empty input", ``},
		{"uppercase tags", `<HTML><HEAD></HEAD><BODY></BODY></HTML>`},
		{"head with attributes", `<html><head data-x="1"></head><body></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ModifyBlenderHTML(tt.in, planID)

			assert.Contains(t, out, "orthoview-injected-style")
			assert.Contains(t, out, `id="orthoview-shim"`)
			// The original content is preserved verbatim in the output.
			if strings.Contains(strings.ToLower(tt.in), "content") {
				assert.Contains(t, strings.ToLower(out), "content")
			}
		})
	}
}

func TestModifyBlenderHTML_BareFragmentHasHead(t *testing.T) {
	out := ModifyBlenderHTML(`<div>content</div>`, planID)

	// A synthesized head wraps the injected content and the script trails it.
	assert.True(t, strings.HasPrefix(out, "<head>"))
	assert.Contains(t, out, "</head>")
	assert.Greater(t, strings.Index(out, "orthoview-shim"), strings.Index(out, "</head>"))
}

func TestModifyBlenderHTML_OutputParses(t *testing.T) {
	inputs := []string{
		`<!DOCTYPE html><html><head></head><body><table><tr><td>1</td></tr></table></body></html>`,
		`<html><body>partial`,
		`plain text, no markup`,
		``,
	}

	for _, in := range inputs {
		out := ModifyBlenderHTML(in, planID)
		_, err := html.Parse(strings.NewReader(out))
		require.NoError(t, err, "input %q must stay parseable", in)

		// No unterminated script/style introduced.
		assert.Equal(t, strings.Count(out, "<script"), strings.Count(out, "</script>"))
		assert.Equal(t, strings.Count(out, "<style"), strings.Count(out, "</style>"))
	}
}

func TestModifyBlenderHTML_HeaderTagNotMistakenForHead(t *testing.T) {
	in := `<header>branding</header><div>content</div>`
	out := ModifyBlenderHTML(in, planID)

	// <header> must not be treated as an opening <head>; the fallback
	// prepends a synthesized head instead.
	assert.True(t, strings.HasPrefix(out, "<head>"))
	assert.Contains(t, out, "<header>branding</header>")
}

func TestScriptBlock_PlanIDEscaped(t *testing.T) {
	s := scriptBlock(`abc"</script>`)
	assert.NotContains(t, s, `"abc"</script>"`)
	assert.Contains(t, s, `\"`)
}

func TestShimScript_ProtocolSurface(t *testing.T) {
	// The embedded shim must speak the full relay protocol.
	for _, token := range []string{
		"VIEWER_READY", "EXPORT_DATA", "IMPORT_DATA", "IMPORT_SUCCESS",
		"IMPORT_MANUAL", "REQUEST_IMPORT", "FILE_URLS", "ASSET_URLS",
		"__importData", "exportToParent",
	} {
		assert.Contains(t, shimJS, token)
	}
}
