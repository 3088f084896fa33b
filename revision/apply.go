package revision

import (
	"strings"

	"github.com/jschulte/rtf-toolkit/document"
)

// AcceptChange applies the change with the given ID and returns a new
// document. An insertion is unwrapped: its children are spliced into the
// parent at the wrapper's position. A deletion is removed entirely. The
// second return value is false when the ID does not address any revision
// (a stale ID from a previous edit is an expected condition, not an error);
// the input document is returned unchanged in that case.
func AcceptChange(doc *document.Document, id string) (*document.Document, bool) {
	return applyChange(doc, id, true)
}

// RejectChange is the inverse of AcceptChange: an insertion is removed, a
// deletion is unwrapped back into its parent.
func RejectChange(doc *document.Document, id string) (*document.Document, bool) {
	return applyChange(doc, id, false)
}

func applyChange(doc *document.Document, id string, accept bool) (*document.Document, bool) {
	if !strings.HasPrefix(id, "rev:") {
		return doc, false
	}
	out := doc.Clone()
	for pi, p := range out.Paragraphs {
		children, found := applyToInlines(p.Children, pi, "", id, accept)
		if found {
			p.Children = children
			return out, true
		}
	}
	return doc, false
}

// applyToInlines walks the clone in extraction order, re-deriving each
// marker's ID until the target matches, then applies the accept/reject rule
// in place. A paragraph or revision left with zero children stays valid.
func applyToInlines(nodes []document.Inline, paragraph int, path string, id string, accept bool) ([]document.Inline, bool) {
	for i := 0; i < len(nodes); i++ {
		v, ok := nodes[i].(*document.RevisionNode)
		if !ok {
			continue
		}
		nodePath := childPath(path, i)
		if changeID(paragraph, nodePath, v) == id {
			if unwraps(v.Kind, accept) {
				spliced := make([]document.Inline, 0, len(nodes)-1+len(v.Children))
				spliced = append(spliced, nodes[:i]...)
				spliced = append(spliced, v.Children...)
				spliced = append(spliced, nodes[i+1:]...)
				return spliced, true
			}
			return append(nodes[:i], nodes[i+1:]...), true
		}
		if children, found := applyToInlines(v.Children, paragraph, nodePath, id, accept); found {
			v.Children = children
			return nodes, true
		}
	}
	return nodes, false
}

// unwraps reports whether the operation keeps the revision's content:
// accepting an insertion or rejecting a deletion splice the children into
// the parent; the other two combinations discard the subtree.
func unwraps(kind document.RevisionKind, accept bool) bool {
	if accept {
		return kind == document.Insertion
	}
	return kind == document.Deletion
}

// AcceptAll applies the accept rule to every revision in one pass over a
// fresh tree. The operation is idempotent: the result contains no revision
// markers at all.
func AcceptAll(doc *document.Document) *document.Document {
	return applyAll(doc, true)
}

// RejectAll applies the reject rule to every revision, restoring the
// document as it was before any tracked edit.
func RejectAll(doc *document.Document) *document.Document {
	return applyAll(doc, false)
}

func applyAll(doc *document.Document, accept bool) *document.Document {
	out := doc.Clone()
	for _, p := range out.Paragraphs {
		p.Children = applyAllInlines(p.Children, accept)
	}
	return out
}

func applyAllInlines(nodes []document.Inline, accept bool) []document.Inline {
	out := make([]document.Inline, 0, len(nodes))
	for _, n := range nodes {
		rev, ok := n.(*document.RevisionNode)
		if !ok {
			out = append(out, n)
			continue
		}
		children := applyAllInlines(rev.Children, accept)
		if unwraps(rev.Kind, accept) {
			out = append(out, children...)
		}
	}
	return out
}
