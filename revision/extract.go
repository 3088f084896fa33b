// Package revision implements the track-changes engine: extraction of
// revision markers into addressable records, and accepting or rejecting
// changes. Every operation is a pure function over a finished document tree
// and returns a new tree; inputs are never mutated.
package revision

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/jschulte/rtf-toolkit/document"
)

// Position locates a change inside the document.
type Position struct {
	// Paragraph is the index into Document.Paragraphs.
	Paragraph int `json:"paragraph"`
	// Offset is the character offset of the change within the
	// paragraph's flattened text.
	Offset int `json:"offset"`
}

// Change is one extracted revision marker. It is plain serializable data;
// IDs are re-derived from the marker's position and content on every
// extraction, so an unmodified document always yields the same IDs, and an
// applied change's ID disappears from subsequent extractions.
type Change struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"` // "insertion" or "deletion"
	Author      string    `json:"author"`
	AuthorIndex int       `json:"authorIndex"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"` // zero when the marker had no \revdttm
	Position    Position  `json:"position"`
}

// Extract flattens every revision marker in the document into a Change
// record, in paragraph order, then inline order, descending into nested
// revisions depth-first.
func Extract(doc *document.Document) []Change {
	var changes []Change
	for pi, p := range doc.Paragraphs {
		off := 0
		extractInlines(doc, p.Children, pi, "", &off, &changes)
	}
	return changes
}

func extractInlines(doc *document.Document, nodes []document.Inline, paragraph int, path string, off *int, out *[]Change) {
	for i, n := range nodes {
		switch v := n.(type) {
		case *document.TextNode:
			*off += len([]rune(v.Text))
		case *document.RevisionNode:
			nodePath := childPath(path, i)
			*out = append(*out, Change{
				ID:          changeID(paragraph, nodePath, v),
				Type:        v.Kind.String(),
				Author:      doc.AuthorName(v.Author),
				AuthorIndex: v.Author,
				Text:        v.PlainText(),
				Timestamp:   document.DecodeDTTM(v.DTTM),
				Position:    Position{Paragraph: paragraph, Offset: *off},
			})
			extractInlines(doc, v.Children, paragraph, nodePath, off, out)
		}
	}
}

func childPath(path string, index int) string {
	return path + "." + strconv.Itoa(index)
}

// changeID fingerprints a marker by where it sits and what it says: the
// child-index path from the paragraph root keeps structurally identical
// markers apart, and the nested-marker count keeps a wrapper apart from the
// marker that takes its place once the wrapper is resolved. Stable for an
// unmodified tree; gone once the marker is resolved.
func changeID(paragraph int, path string, n *document.RevisionNode) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%d|%d|%d|%d|%s",
		paragraph, path, n.Kind, n.Author, n.DTTM, countMarkers(n.Children), n.PlainText())
	return fmt.Sprintf("rev:%016x", h.Sum64())
}

// countMarkers counts the revision markers in a subtree.
func countMarkers(nodes []document.Inline) int {
	total := 0
	for _, n := range nodes {
		if rev, ok := n.(*document.RevisionNode); ok {
			total += 1 + countMarkers(rev.Children)
		}
	}
	return total
}
