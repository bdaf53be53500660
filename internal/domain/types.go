// Package domain defines the data model shared across every stage of the
// ingestion pipeline: the raw elements a converter emits, the outline
// entries resolved from a PDF's table of contents, the structured elements
// a header level has been assigned to, and the chunks and table records that
// ultimately reach the vector store.
package domain

import "sort"

// Label identifies the kind of content an Element carries.
type Label string

const (
	LabelSectionHeader Label = "section_header"
	LabelText          Label = "text"
	LabelListItem      Label = "list_item"
	LabelCode          Label = "code"
	LabelFormula       Label = "formula"
	LabelCaption       Label = "caption"
	LabelPageHeader    Label = "page_header"
	LabelPageFooter    Label = "page_footer"
	LabelReference     Label = "reference"
	LabelFootnote      Label = "footnote"
)

// droppedLabels are never carried into a StructuredElement.
var droppedLabels = map[Label]struct{}{
	LabelPageHeader: {},
	LabelPageFooter: {},
	LabelCaption:    {},
	LabelReference:  {},
	LabelFootnote:   {},
}

// Dropped reports whether the label is excluded from structured-text
// extraction.
func (l Label) Dropped() bool {
	_, ok := droppedLabels[l]
	return ok
}

// Prov is one provenance entry of an Element: the page the element's text
// was read from. Only the page is recorded; no bounding box is carried.
type Prov struct {
	Page int
}

// Element is one item emitted by the Converter, in document order.
type Element struct {
	Label     Label
	Text      string
	PageNo    int // 1-based; 0 means unknown
	FontSize  *float64
	ParentRef string // e.g. "#/tables/3"; empty when not applicable
	Provs     []Prov // provenance entries; section headers may have more than one
}

// HasPage reports whether the element carries a known page number.
func (e Element) HasPage() bool {
	return e.PageNo > 0
}

// OutlineEntry is one resolved page's table-of-contents entry.
type OutlineEntry struct {
	Level  int
	Title  string
	PageNo int // -1 if unresolved
}

// Outline maps a 1-based page number to the entry that targets it. On
// collision the last entry written wins, matching the reconciled behavior
// documented in the design notes: real documents can place two outline
// targets on the same page and only one survives the lookup.
type Outline map[int]OutlineEntry

// StructuredElement is an Element augmented with a resolved header level.
// For section headers, Text carries the "#"-prefixed display text (e.g.
// "## Installation"); FontSize is cleared whenever the level came from the
// outline rather than font-size ranking.
type StructuredElement struct {
	Element
	Level int // 0 for non-headers
}

// Chunk is the ingestion atom: a token-bounded span of content tagged with
// the header lineage active when it was accumulated.
type Chunk struct {
	ChapterTitle     *string
	SectionTitle     *string
	SubsectionTitle  *string
	SubsubsectionTitle *string
	Content          string
	PageRange        []int
	SourceNodes      []string
	PartID           *int // 1-based; set only when the section split into >1 part
}

// TableRecord is a retained table: its HTML body, optional caption, and an
// LLM-produced summary.
type TableRecord struct {
	HTML    string
	Caption string
	Summary string
}

// CombinedDocument is one item produced by combine(): the flat shape the
// vector store accepts, covering both text chunks and retained tables.
type CombinedDocument struct {
	PageContent string
	Type        string // "text" or "table"
	Source      string
}

// SortPageRange sorts pages ascending and removes duplicates in place,
// returning the deduplicated slice.
func SortPageRange(pages []int) []int {
	if len(pages) == 0 {
		return pages
	}
	sort.Ints(pages)
	out := pages[:1]
	for _, p := range pages[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

// TitleLineage returns the four running title slots as a snapshot, used to
// seed a Chunk when it begins accumulating.
type TitleLineage struct {
	Chapter, Section, Subsection, Subsubsection *string
}

// Apply copies the lineage onto a Chunk.
func (t TitleLineage) Apply(c *Chunk) {
	c.ChapterTitle = t.Chapter
	c.SectionTitle = t.Section
	c.SubsectionTitle = t.Subsection
	c.SubsubsectionTitle = t.Subsubsection
}

// Empty reports whether every title slot is unset.
func (t TitleLineage) Empty() bool {
	return t.Chapter == nil && t.Section == nil && t.Subsection == nil && t.Subsubsection == nil
}

// DocumentTree is what the Converter produces for one PDF: its page count,
// the flat element stream, and an opaque outline handle consumed by
// OutlineRefResolver implementations.
type DocumentTree struct {
	PageCount int
	Elements  []Element
	Tables    []string // raw table HTML, indexed the way caption parent_refs address them
	Outline   []OutlineNode // raw outline, pre-resolution
	Resolved  Outline       // page-indexed outline; nil when the document has no outline
}

// OutlineNode is one raw outline tuple as read from the PDF's bookmark
// tree, before its destination has been resolved to a page number.
type OutlineNode struct {
	Level  int
	Title  string
	Dest   Ref // non-nil if the entry carries a direct destination
	Action Ref // non-nil if the entry carries a go-to action
	SE     Ref // non-nil if the entry carries a structure-element reference
}

// FirstRef returns the first non-nil of Dest, Action, SE, matching the
// resolution order the header resolver uses when constructing outlines.
func (n OutlineNode) FirstRef() Ref {
	switch {
	case n.Dest != nil:
		return n.Dest
	case n.Action != nil:
		return n.Action
	case n.SE != nil:
		return n.SE
	default:
		return nil
	}
}

// Ref is a PDF outline destination reference. It is a sealed tagged union
// over the four variants a destination can take, plus an implicit "nil"
// meaning no reference at all. Resolvers switch on the concrete type rather
// than inspecting raw PDF object values, so the recursive resolution
// algorithm stays language-neutral.
type Ref interface {
	refTag()
}

// ObjRef is an indirect object reference: "go look at object N".
type ObjRef struct {
	ObjectID int
}

func (ObjRef) refTag() {}

// DictRef is a destination dictionary carrying a nested "D" entry, e.g.
// {"D": <ref>, "S": "GoTo"}.
type DictRef struct {
	D Ref
}

func (DictRef) refTag() {}

// ListRef is an explicit destination array, e.g. [<objref> /XYZ 0 0 0].
// Resolution recurses into the first element that is itself an ObjRef.
type ListRef struct {
	Items []Ref
}

func (ListRef) refTag() {}

// NamedRef is a named destination that must be looked up in the document's
// destination name tree before it can be resolved further.
type NamedRef struct {
	Name string
}

func (NamedRef) refTag() {}

// UnknownRef covers anything this pipeline declines to resolve, including
// remote go-to actions (explicitly unsupported).
type UnknownRef struct{}

func (UnknownRef) refTag() {}
