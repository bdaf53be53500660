package outline_test

import (
	"testing"

	"github.com/kasai-dev/pageforge/internal/domain"
	"github.com/kasai-dev/pageforge/internal/outline"
)

func TestResolveObjRef(t *testing.T) {
	model := outline.ObjectModel{
		IsPageObject:         map[int]bool{5: true},
		PageNumberByObjectID: map[int]int{5: 3},
	}
	r := outline.New(model)

	pageNo, ok := r.Resolve(domain.ObjRef{ObjectID: 5})
	if !ok || pageNo != 3 {
		t.Fatalf("Resolve(ObjRef{5}) = (%d, %v), want (3, true)", pageNo, ok)
	}
}

func TestResolveDereferencesNonPageObject(t *testing.T) {
	model := outline.ObjectModel{
		IsPageObject:         map[int]bool{7: true},
		PageNumberByObjectID: map[int]int{7: 9},
		Dereference: func(objectID int) domain.Ref {
			if objectID == 1 {
				return domain.ObjRef{ObjectID: 7}
			}
			return nil
		},
	}
	r := outline.New(model)

	pageNo, ok := r.Resolve(domain.ObjRef{ObjectID: 1})
	if !ok || pageNo != 9 {
		t.Fatalf("Resolve(ObjRef{1}) = (%d, %v), want (9, true)", pageNo, ok)
	}
}

func TestResolveDictRef(t *testing.T) {
	model := outline.ObjectModel{
		IsPageObject:         map[int]bool{2: true},
		PageNumberByObjectID: map[int]int{2: 4},
	}
	r := outline.New(model)

	ref := domain.DictRef{D: domain.ObjRef{ObjectID: 2}}
	pageNo, ok := r.Resolve(ref)
	if !ok || pageNo != 4 {
		t.Fatalf("Resolve(DictRef) = (%d, %v), want (4, true)", pageNo, ok)
	}
}

func TestResolveListRefPicksFirstObjRef(t *testing.T) {
	model := outline.ObjectModel{
		IsPageObject:         map[int]bool{8: true},
		PageNumberByObjectID: map[int]int{8: 1},
	}
	r := outline.New(model)

	ref := domain.ListRef{Items: []domain.Ref{domain.UnknownRef{}, domain.ObjRef{ObjectID: 8}}}
	pageNo, ok := r.Resolve(ref)
	if !ok || pageNo != 1 {
		t.Fatalf("Resolve(ListRef) = (%d, %v), want (1, true)", pageNo, ok)
	}
}

func TestResolveNamedRef(t *testing.T) {
	model := outline.ObjectModel{
		IsPageObject:         map[int]bool{3: true},
		PageNumberByObjectID: map[int]int{3: 6},
		Destinations: map[string]domain.Ref{
			"intro": domain.ObjRef{ObjectID: 3},
		},
	}
	r := outline.New(model)

	pageNo, ok := r.Resolve(domain.NamedRef{Name: "intro"})
	if !ok || pageNo != 6 {
		t.Fatalf("Resolve(NamedRef) = (%d, %v), want (6, true)", pageNo, ok)
	}

	if _, ok := r.Resolve(domain.NamedRef{Name: "missing"}); ok {
		t.Error("Resolve(NamedRef{missing}) should fail")
	}
}

func TestResolveUnknownAndNilRef(t *testing.T) {
	r := outline.New(outline.ObjectModel{})

	if _, ok := r.Resolve(domain.UnknownRef{}); ok {
		t.Error("Resolve(UnknownRef) should always fail")
	}
	if _, ok := r.Resolve(nil); ok {
		t.Error("Resolve(nil) should always fail")
	}
}

func TestResolveCycleGuard(t *testing.T) {
	model := outline.ObjectModel{
		Dereference: func(objectID int) domain.Ref {
			return domain.ObjRef{ObjectID: objectID}
		},
	}
	r := outline.New(model)

	if _, ok := r.Resolve(domain.ObjRef{ObjectID: 1}); ok {
		t.Error("a self-referencing chain should terminate via the depth guard, not succeed")
	}
}

type stubResolver struct {
	pages map[int]int // ObjectID -> page
}

func (s stubResolver) Resolve(ref domain.Ref) (int, bool) {
	objRef, ok := ref.(domain.ObjRef)
	if !ok {
		return 0, false
	}
	p, ok := s.pages[objRef.ObjectID]
	return p, ok
}

func TestBuildOutlineLastWriterWinsOnCollision(t *testing.T) {
	resolver := stubResolver{pages: map[int]int{1: 5, 2: 5}}
	nodes := []domain.OutlineNode{
		{Level: 1, Title: "First", Dest: domain.ObjRef{ObjectID: 1}},
		{Level: 2, Title: "Second", Dest: domain.ObjRef{ObjectID: 2}},
	}

	out := outline.BuildOutline(nodes, resolver)

	entry, ok := out[5]
	if !ok {
		t.Fatal("expected page 5 to have an entry")
	}
	if entry.Title != "Second" {
		t.Errorf("expected last-writer-wins to keep %q, got %q", "Second", entry.Title)
	}
}

func TestBuildOutlineDropsUnresolvedEntries(t *testing.T) {
	resolver := stubResolver{pages: map[int]int{}}
	nodes := []domain.OutlineNode{
		{Level: 1, Title: "Orphan", Dest: domain.ObjRef{ObjectID: 99}},
	}

	out := outline.BuildOutline(nodes, resolver)

	if len(out) != 0 {
		t.Errorf("expected unresolved entries to be dropped, got %v", out)
	}
}

func TestBuildOutlineNodeWithNoRef(t *testing.T) {
	resolver := stubResolver{pages: map[int]int{}}
	nodes := []domain.OutlineNode{{Level: 1, Title: "No destination"}}

	out := outline.BuildOutline(nodes, resolver)

	if len(out) != 0 {
		t.Errorf("a node with no ref should never produce an entry, got %v", out)
	}
}
