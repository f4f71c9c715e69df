package tree

// Drawing glyphs and annotation labels.
const (
	BranchGlyph     = "┣"
	LastBranchGlyph = "┗"
	GuideGlyph      = "┃"

	// LeadingIndent opens every entry line.
	LeadingIndent = " "

	DirectoryAnnotation = "Directory"
	FileAnnotation      = "File"

	DefaultCommentSymbol   = "//"
	DefaultCommentDistance = 4
	DefaultTreeDistance    = 1

	MinimumCommentDistance = 4
	MinimumTreeDistance    = 1
	minimumPadding         = 1
)

// Options controls how lines are drawn and annotated.
type Options struct {
	AddComments     bool
	CommentSymbol   string
	CommentDistance int
	TreeDistance    int
}

// DefaultOptions returns the formatting defaults.
func DefaultOptions() Options {
	return Options{
		CommentSymbol:   DefaultCommentSymbol,
		CommentDistance: DefaultCommentDistance,
		TreeDistance:    DefaultTreeDistance,
	}
}

// Normalized clamps distances to their floors.
func (options Options) Normalized() Options {
	if options.CommentDistance < MinimumCommentDistance {
		options.CommentDistance = MinimumCommentDistance
	}
	if options.TreeDistance < MinimumTreeDistance {
		options.TreeDistance = MinimumTreeDistance
	}
	return options
}
