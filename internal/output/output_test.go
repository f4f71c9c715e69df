package output_test

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/temirov/repotree/internal/output"
	"github.com/temirov/repotree/internal/tree"
	"github.com/temirov/repotree/internal/types"
)

func sampleDocument() tree.Document {
	return tree.Document{
		RootName: "project",
		RootPath: "/project",
		Width:    12,
		Lines: []tree.Line{
			{Depth: 0, Prefix: " ", Glyph: "┣ ", Type: types.NodeTypeDirectory, Name: "src", Path: "/project/src", ContentWidth: 6, Padding: 10, Annotation: "// Directory"},
			{Depth: 1, Prefix: " ┃ ", Glyph: "┗ ", Type: types.NodeTypeFile, Name: "main.go", Path: "/project/src/main.go", ContentWidth: 12, Padding: 4, Annotation: "// File", IsLast: true},
			{Depth: 0, Prefix: " ", Glyph: "┗ ", Type: types.NodeTypeFile, Name: "a<b>&c.md", Path: "/project/a<b>&c.md", ContentWidth: 12, Padding: 4, Annotation: "// File", IsLast: true},
		},
	}
}

// TestRenderTextLayout verifies the plain text layout with and without icons.
func TestRenderTextLayout(testingHandle *testing.T) {
	testCases := []struct {
		name     string
		options  output.TextOptions
		expected string
	}{
		{
			name:    "plain",
			options: output.TextOptions{},
			expected: "project\n" +
				" ┣ src          // Directory\n" +
				" ┃ ┗ main.go    // File\n" +
				" ┗ a<b>&c.md    // File\n",
		},
		{
			name:    "icons",
			options: output.TextOptions{IncludeIcons: true},
			expected: "📦project\n" +
				" ┣ 📂src          // Directory\n" +
				" ┃ ┗ 📄main.go    // File\n" +
				" ┗ 📄a<b>&c.md    // File\n",
		},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subTest *testing.T) {
			if actual := output.RenderText(sampleDocument(), testCase.options); actual != testCase.expected {
				subTest.Fatalf("expected:\n%s\ngot:\n%s", testCase.expected, actual)
			}
		})
	}
}

// TestRenderTextColorize verifies that colour codes wrap names without changing the plain content.
func TestRenderTextColorize(testingHandle *testing.T) {
	colored := output.RenderText(sampleDocument(), output.TextOptions{Colorize: true})
	if !strings.Contains(colored, "\x1b[") {
		testingHandle.Fatalf("expected ANSI escape sequences, got %q", colored)
	}
	if !strings.Contains(colored, "main.go") {
		testingHandle.Fatalf("expected file name in coloured output")
	}
}

// TestMarkupStructure verifies spans, bold root and line breaks.
func TestMarkupStructure(testingHandle *testing.T) {
	markup := output.RenderMarkup(sampleDocument())
	expectedPrefix := `<bold><span class="t-icon" name="icons">📦</span>project</bold><br>`
	if !strings.HasPrefix(markup, expectedPrefix) {
		testingHandle.Fatalf("unexpected root markup: %q", markup)
	}
	expectedLine := ` ┣ <span class="t-icon" name="icons">📂</span>src<span class="comment">          // Directory</span><br>`
	if !strings.Contains(markup, expectedLine) {
		testingHandle.Fatalf("missing directory line %q in %q", expectedLine, markup)
	}
	if !strings.Contains(markup, "a&lt;b&gt;&amp;c.md") {
		testingHandle.Fatalf("expected escaped name in %q", markup)
	}
	if strings.Count(markup, "<br>") != 4 {
		testingHandle.Fatalf("expected four line breaks, got %d", strings.Count(markup, "<br>"))
	}
}

// TestConvertMarkupToPlainMatchesText verifies that converted markup equals the plain text rendering.
func TestConvertMarkupToPlainMatchesText(testingHandle *testing.T) {
	markup := output.RenderMarkup(sampleDocument())
	for _, includeIcons := range []bool{true, false} {
		expected := output.RenderText(sampleDocument(), output.TextOptions{IncludeIcons: includeIcons})
		if actual := output.ConvertMarkupToPlain(markup, includeIcons); actual != expected {
			testingHandle.Errorf("icons=%v: expected:\n%s\ngot:\n%s", includeIcons, expected, actual)
		}
	}
}

// TestRenderStructuredFormats verifies JSON and XML encodings.
func TestRenderStructuredFormats(testingHandle *testing.T) {
	documents := []tree.Document{sampleDocument()}

	encodedJSON, jsonError := output.Render(types.FormatJSON, documents, output.TextOptions{})
	if jsonError != nil {
		testingHandle.Fatalf("json render: %v", jsonError)
	}
	var decoded []types.TreeOutput
	if decodeError := json.Unmarshal([]byte(encodedJSON), &decoded); decodeError != nil {
		testingHandle.Fatalf("json decode: %v", decodeError)
	}
	if len(decoded) != 1 || len(decoded[0].Lines) != 3 || decoded[0].Width != 12 {
		testingHandle.Fatalf("unexpected json payload %+v", decoded)
	}
	if decoded[0].Lines[1].Text != " ┃ ┗ main.go    // File" || decoded[0].Lines[1].Depth != 1 {
		testingHandle.Fatalf("unexpected json line %+v", decoded[0].Lines[1])
	}

	encodedXML, xmlError := output.Render(types.FormatXML, documents, output.TextOptions{})
	if xmlError != nil {
		testingHandle.Fatalf("xml render: %v", xmlError)
	}
	if !strings.HasPrefix(encodedXML, xml.Header) {
		testingHandle.Fatalf("expected xml header, got %q", encodedXML)
	}
	var wrapper struct {
		Trees []types.TreeOutput `xml:"tree"`
	}
	if decodeError := xml.Unmarshal([]byte(encodedXML), &wrapper); decodeError != nil {
		testingHandle.Fatalf("xml decode: %v", decodeError)
	}
	if len(wrapper.Trees) != 1 || wrapper.Trees[0].Name != "project" || len(wrapper.Trees[0].Lines) != 3 {
		testingHandle.Fatalf("unexpected xml payload %+v", wrapper)
	}
}

// TestRenderMultipleAndUnsupported verifies tree separation and format validation.
func TestRenderMultipleAndUnsupported(testingHandle *testing.T) {
	documents := []tree.Document{sampleDocument(), sampleDocument()}
	rendered, renderError := output.Render(types.FormatText, documents, output.TextOptions{})
	if renderError != nil {
		testingHandle.Fatalf("render: %v", renderError)
	}
	if strings.Count(rendered, "project\n") != 2 || !strings.Contains(rendered, "// File\n\nproject\n") {
		testingHandle.Fatalf("expected two blank-line separated trees, got %q", rendered)
	}
	if _, unsupportedError := output.Render("yaml", documents, output.TextOptions{}); unsupportedError == nil {
		testingHandle.Fatalf("expected unsupported format error")
	}
}
