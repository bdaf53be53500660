// Package outline resolves PDF outline (table of contents) destinations to
// 1-based physical page numbers.
//
// The resolution algorithm is a small recursive function over a tagged
// union (domain.Ref), grounded on the page-reference resolver in the
// original ingestion tool: an object reference is dereferenced once and,
// if it targets a page, looked up in a precomputed object-id to page-number
// table; dictionaries recurse on their "D" entry; lists recurse on their
// first object reference; named references are looked up in the document's
// destination name tree before recursing.
package outline

import "github.com/kasai-dev/pageforge/internal/domain"

// PageResolver resolves a Ref to a 1-based page number.
type PageResolver interface {
	Resolve(ref domain.Ref) (pageNo int, ok bool)
}

// ObjectModel is the minimal view of a PDF's object graph the resolver
// needs: whether an object id denotes a Page object, and the document's
// named-destination table. A concrete Converter/OutlineRefResolver adapter
// (see BuildObjectModel) builds this from the PDF's cross-reference table.
type ObjectModel struct {
	// PageNumberByObjectID maps a Page object's id to its 1-based physical
	// page number, built once by walking the document's page tree.
	PageNumberByObjectID map[int]int

	// IsPageObject reports whether an object id resolves to a dictionary
	// with Type == "Page".
	IsPageObject map[int]bool

	// Dereference follows an indirect reference to the Ref it points at
	// (the dictionary or array stored at that object id), recursively
	// re-expressed as the tagged union.
	Dereference func(objectID int) domain.Ref

	// Destinations maps a named destination's name to the Ref stored under
	// it in the document's Dests name tree or Names/Dests tree.
	Destinations map[string]domain.Ref
}

// Resolver implements PageResolver against an ObjectModel.
type Resolver struct {
	model ObjectModel
}

// New constructs a Resolver over a precomputed object model. The model must
// already reflect a single traversal of the document's page list, per the
// resolver's precondition.
func New(model ObjectModel) *Resolver {
	return &Resolver{model: model}
}

// Resolve implements PageResolver. It never panics on malformed input: any
// reference that cannot be followed to a page yields ok == false.
func (r *Resolver) Resolve(ref domain.Ref) (int, bool) {
	return r.resolve(ref, 0)
}

// maxDepth guards against cyclic destination tables; the source algorithm
// assumes a well-formed document and has no explicit bound, but an
// unbounded recursion is not an acceptable Go idiom for untrusted input.
const maxDepth = 32

func (r *Resolver) resolve(ref domain.Ref, depth int) (int, bool) {
	if ref == nil || depth > maxDepth {
		return 0, false
	}

	switch v := ref.(type) {
	case domain.ObjRef:
		if r.model.IsPageObject[v.ObjectID] {
			pageNo, ok := r.model.PageNumberByObjectID[v.ObjectID]
			return pageNo, ok
		}
		if r.model.Dereference == nil {
			return 0, false
		}
		return r.resolve(r.model.Dereference(v.ObjectID), depth+1)

	case domain.DictRef:
		return r.resolve(v.D, depth+1)

	case domain.ListRef:
		for _, item := range v.Items {
			if _, isObjRef := item.(domain.ObjRef); isObjRef {
				return r.resolve(item, depth+1)
			}
		}
		return 0, false

	case domain.NamedRef:
		target, ok := r.model.Destinations[v.Name]
		if !ok {
			return 0, false
		}
		return r.resolve(target, depth+1)

	case domain.UnknownRef:
		return 0, false

	default:
		return 0, false
	}
}

// BuildOutline resolves a document's raw outline nodes into a page-indexed
// map, applying the first-non-nil-of(Dest, Action, SE) rule and the
// last-writer-wins collision semantics documented for Outline.
func BuildOutline(nodes []domain.OutlineNode, resolver PageResolver) domain.Outline {
	out := make(domain.Outline, len(nodes))
	for _, n := range nodes {
		pageNo := -1
		if ref := n.FirstRef(); ref != nil {
			if resolved, ok := resolver.Resolve(ref); ok {
				pageNo = resolved
			}
		}
		out[pageNo] = domain.OutlineEntry{
			Level:  n.Level,
			Title:  n.Title,
			PageNo: pageNo,
		}
	}
	// Unresolved entries (pageNo == -1) collapse into a single bucket by
	// construction of the map above; that matches the source's behavior of
	// keying a page->entry table and losing entries that don't carry a
	// page, since an unresolved destination can never be looked up by page
	// during classification anyway.
	delete(out, -1)
	return out
}
