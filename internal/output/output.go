// Package output encodes rendered trees as text, embedding markup, JSON or XML.
package output

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/temirov/repotree/internal/tree"
	"github.com/temirov/repotree/internal/types"
)

const (
	// RootIcon precedes the root directory name.
	RootIcon = "📦"
	// DirectoryIcon precedes directory entries.
	DirectoryIcon = "📂"
	// FileIcon precedes file entries.
	FileIcon = "📄"

	indentPrefix   = ""
	indentSpacer   = "  "
	lineTerminator = "\n"
	treeSeparator  = "\n"

	xmlHeader      = xml.Header
	xmlRootElement = "result"

	errorUnsupportedFormat = "unsupported output format %q"
	errorEncodeJSON        = "encode json: %w"
	errorEncodeXML         = "encode xml: %w"
)

// TextOptions controls plain text rendering.
type TextOptions struct {
	IncludeIcons bool
	// Colorize emits ANSI colours for directory names and annotations.
	Colorize bool
}

var (
	directoryStyle  = []color.Attribute{color.FgBlue, color.Bold}
	annotationStyle = []color.Attribute{color.Faint}
	rootStyle       = []color.Attribute{color.Bold}
)

// Render encodes documents in the requested format.
func Render(format string, documents []tree.Document, textOptions TextOptions) (string, error) {
	switch format {
	case types.FormatText:
		renderedTrees := make([]string, 0, len(documents))
		for _, document := range documents {
			renderedTrees = append(renderedTrees, RenderText(document, textOptions))
		}
		return strings.Join(renderedTrees, treeSeparator), nil
	case types.FormatMarkup:
		renderedTrees := make([]string, 0, len(documents))
		for _, document := range documents {
			renderedTrees = append(renderedTrees, RenderMarkup(document))
		}
		return strings.Join(renderedTrees, treeSeparator), nil
	case types.FormatJSON:
		return RenderJSON(documents)
	case types.FormatXML:
		return RenderXML(documents)
	default:
		return "", fmt.Errorf(errorUnsupportedFormat, format)
	}
}

// RenderText returns the tree as plain text, one newline-terminated line per entry after the root line.
func RenderText(document tree.Document, options TextOptions) string {
	var builder strings.Builder
	rootName := document.RootName
	if options.Colorize {
		rootName = styled(rootStyle, rootName)
	}
	if options.IncludeIcons {
		builder.WriteString(RootIcon)
	}
	builder.WriteString(rootName)
	builder.WriteString(lineTerminator)

	for _, line := range document.Lines {
		builder.WriteString(line.Prefix)
		builder.WriteString(line.Glyph)
		if options.IncludeIcons {
			builder.WriteString(iconFor(line))
		}
		name := line.Name
		annotation := line.Annotation
		if options.Colorize {
			if line.IsDirectory() {
				name = styled(directoryStyle, name)
			}
			annotation = styled(annotationStyle, annotation)
		}
		builder.WriteString(name)
		if line.Annotation != "" {
			builder.WriteString(strings.Repeat(" ", line.Padding))
			builder.WriteString(annotation)
		}
		builder.WriteString(lineTerminator)
	}
	return builder.String()
}

// styled colours text even when stdout detection disabled colours globally;
// the caller has already decided that colour is wanted.
func styled(attributes []color.Attribute, text string) string {
	style := color.New(attributes...)
	style.EnableColor()
	return style.Sprint(text)
}

func iconFor(line tree.Line) string {
	if line.IsDirectory() {
		return DirectoryIcon
	}
	return FileIcon
}

// ToTreeOutput converts a document into its structured form.
func ToTreeOutput(document tree.Document) types.TreeOutput {
	treeOutput := types.TreeOutput{
		Name:  document.RootName,
		Path:  document.RootPath,
		Width: document.Width,
		Lines: make([]types.LineOutput, 0, len(document.Lines)),
	}
	for _, line := range document.Lines {
		treeOutput.Lines = append(treeOutput.Lines, types.LineOutput{
			Depth:      line.Depth,
			Type:       line.Type,
			Last:       line.IsLast,
			Name:       line.Name,
			Path:       line.Path,
			Text:       line.Text(""),
			Annotation: line.Annotation,
		})
	}
	return treeOutput
}

// RenderJSON encodes documents as an indented JSON array.
func RenderJSON(documents []tree.Document) (string, error) {
	treeOutputs := make([]types.TreeOutput, 0, len(documents))
	for _, document := range documents {
		treeOutputs = append(treeOutputs, ToTreeOutput(document))
	}
	encoded, jsonEncodeError := json.MarshalIndent(treeOutputs, indentPrefix, indentSpacer)
	if jsonEncodeError != nil {
		return "", fmt.Errorf(errorEncodeJSON, jsonEncodeError)
	}
	return string(encoded), nil
}

// RenderXML encodes documents under a single result element.
func RenderXML(documents []tree.Document) (string, error) {
	wrapper := struct {
		XMLName xml.Name
		Trees   []types.TreeOutput `xml:"tree"`
	}{
		XMLName: xml.Name{Local: xmlRootElement},
	}
	for _, document := range documents {
		wrapper.Trees = append(wrapper.Trees, ToTreeOutput(document))
	}
	encoded, xmlMarshalError := xml.MarshalIndent(wrapper, indentPrefix, indentSpacer)
	if xmlMarshalError != nil {
		return "", fmt.Errorf(errorEncodeXML, xmlMarshalError)
	}
	return xmlHeader + string(encoded), nil
}
