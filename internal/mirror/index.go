package mirror

import (
	"fmt"
	"strings"
)

// Index assembles the subject README: the course title, a link back to
// the course page, a link into the notes folder, then one heading per
// section with its link entries.
type Index struct {
	lines []string
}

// NewIndex starts an index document with its header block.
func NewIndex(courseTitle, courseURL, notesDir string) *Index {
	return &Index{
		lines: []string{
			"# " + courseTitle,
			fmt.Sprintf("\n[Moodle Link](%s)", courseURL),
			fmt.Sprintf("[[%s/|Class Notes]]\n", notesDir),
			"---",
		},
	}
}

// AddSection appends a section heading.
func (x *Index) AddSection(title string) {
	x.lines = append(x.lines, "\n## "+title)
}

// AddLocal appends a wiki link to a locally stored file. relPath must
// be in forward-slash form.
func (x *Index) AddLocal(relPath, title string) {
	x.lines = append(x.lines, fmt.Sprintf("* [[%s|%s]]", relPath, title))
}

// AddRemote appends a link to a module's remote URL, or a dead "#"
// anchor for modules without one.
func (x *Index) AddRemote(title, url string) {
	if url == "" {
		url = "#"
	}
	x.lines = append(x.lines, fmt.Sprintf("* [%s](%s)", title, url))
}

// Render returns the document content, without a trailing newline.
func (x *Index) Render() string {
	return strings.Join(x.lines, "\n")
}
