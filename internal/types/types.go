// Package types defines the data structures shared by the repotree packages.
package types

import "encoding/xml"

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	CommandTree = "tree"
	CommandInit = "init"

	FormatText   = "text"
	FormatMarkup = "markup"
	FormatJSON   = "json"
	FormatXML    = "xml"
)

// RuleSource identifies where an exclusion rule came from.
type RuleSource string

const (
	RuleSourceCustom    RuleSource = "custom"
	RuleSourceWorkspace RuleSource = "workspace"
	RuleSourceGitignore RuleSource = "gitignore"
	RuleSourceBuiltin   RuleSource = "builtin"
)

// DirectoryEntry is one child of a listed directory.
type DirectoryEntry struct {
	Name         string
	AbsolutePath string
	Type         string
}

// IsDirectory reports whether the entry is a directory.
func (entry DirectoryEntry) IsDirectory() bool {
	return entry.Type == NodeTypeDirectory
}

// TreeOutput is the structured form of one rendered tree.
type TreeOutput struct {
	XMLName xml.Name     `json:"-" xml:"tree"`
	Name    string       `json:"name" xml:"name,attr"`
	Path    string       `json:"path" xml:"path,attr"`
	Width   int          `json:"width" xml:"width,attr"`
	Lines   []LineOutput `json:"lines" xml:"line"`
}

// LineOutput is one entry of a TreeOutput.
type LineOutput struct {
	Depth      int    `json:"depth" xml:"depth,attr"`
	Type       string `json:"type" xml:"type,attr"`
	Last       bool   `json:"last" xml:"last,attr"`
	Name       string `json:"name" xml:"name"`
	Path       string `json:"path" xml:"path"`
	Text       string `json:"text" xml:"text"`
	Annotation string `json:"annotation,omitempty" xml:"annotation,omitempty"`
}
