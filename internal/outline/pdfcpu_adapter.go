package outline

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/kasai-dev/pageforge/internal/domain"
)

// BuildObjectModel reads a PDF's cross-reference table with pdfcpu and
// produces the ObjectModel the Resolver needs: the page-object id table,
// a dereference function closed over the xref table, and the named
// destination tree. pdfcpu's object types (types.IndirectRef, types.Dict,
// types.Array, types.Name) map almost one-to-one onto the four Ref
// variants, which is why it was picked over hand-rolling a PDF object
// parser.
func BuildObjectModel(path string) (ObjectModel, []domain.OutlineNode, int, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return ObjectModel{}, nil, 0, fmt.Errorf("outline: read %s: %w", path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return ObjectModel{}, nil, 0, fmt.Errorf("outline: page count %s: %w", path, err)
	}

	pageNoByObjID := map[int]int{}
	isPage := map[int]bool{}
	if err := walkPageTree(ctx, ctx.XRefTable.Root, pageNoByObjID, isPage); err != nil {
		return ObjectModel{}, nil, 0, fmt.Errorf("outline: walk page tree %s: %w", path, err)
	}

	dm := ObjectModel{
		PageNumberByObjectID: pageNoByObjID,
		IsPageObject:         isPage,
		Dereference: func(objID int) domain.Ref {
			obj, err := ctx.XRefTable.Dereference(types.NewIndirectRef(objID, 0))
			if err != nil {
				return domain.UnknownRef{}
			}
			return toRef(obj)
		},
		Destinations: buildDestinations(ctx),
	}

	nodes := readOutlineNodes(ctx)
	return dm, nodes, ctx.PageCount, nil
}

// walkPageTree traverses /Pages recursively, assigning each leaf Page
// object a 1-based physical page number in document order.
func walkPageTree(ctx *model.Context, root types.Dict, pageNoByObjID map[int]int, isPage map[int]bool) error {
	counter := 0
	var walk func(d types.Dict) error
	walk = func(d types.Dict) error {
		kids, err := ctx.XRefTable.DereferenceArray(d["Kids"])
		if err != nil || kids == nil {
			return nil
		}
		for _, kidRef := range kids {
			ir, ok := kidRef.(types.IndirectRef)
			if !ok {
				continue
			}
			kid, err := ctx.XRefTable.DereferenceDict(kidRef)
			if err != nil {
				continue
			}
			typeName, _ := kid["Type"].(types.Name)
			if typeName == "Pages" {
				if err := walk(kid); err != nil {
					return err
				}
				continue
			}
			counter++
			pageNoByObjID[ir.ObjectNumber.Value()] = counter
			isPage[ir.ObjectNumber.Value()] = true
		}
		return nil
	}
	return walk(root)
}

// toRef converts a dereferenced pdfcpu object into the tagged Ref union.
func toRef(obj types.Object) domain.Ref {
	switch v := obj.(type) {
	case types.IndirectRef:
		return domain.ObjRef{ObjectID: v.ObjectNumber.Value()}
	case types.Dict:
		if d, ok := v["D"]; ok {
			return domain.DictRef{D: toRef(d)}
		}
		return domain.UnknownRef{}
	case types.Array:
		items := make([]domain.Ref, 0, len(v))
		for _, e := range v {
			items = append(items, toRef(e))
		}
		return domain.ListRef{Items: items}
	case types.Name:
		return domain.NamedRef{Name: string(v)}
	case types.StringLiteral:
		return domain.NamedRef{Name: string(v)}
	default:
		return domain.UnknownRef{}
	}
}

// buildDestinations flattens the document's /Names /Dests name tree (when
// present) into a flat name -> Ref map.
func buildDestinations(ctx *model.Context) map[string]domain.Ref {
	dests := map[string]domain.Ref{}
	names, err := ctx.XRefTable.DereferenceDict(ctx.XRefTable.Root["Names"])
	if err != nil || names == nil {
		return dests
	}
	destTree, err := ctx.XRefTable.DereferenceDict(names["Dests"])
	if err != nil || destTree == nil {
		return dests
	}
	flattenNameTree(ctx, destTree, dests)
	return dests
}

func flattenNameTree(ctx *model.Context, d types.Dict, out map[string]domain.Ref) {
	if kids, err := ctx.XRefTable.DereferenceArray(d["Kids"]); err == nil {
		for _, kidRef := range kids {
			if kid, err := ctx.XRefTable.DereferenceDict(kidRef); err == nil {
				flattenNameTree(ctx, kid, out)
			}
		}
	}
	names, err := ctx.XRefTable.DereferenceArray(d["Names"])
	if err != nil {
		return
	}
	for i := 0; i+1 < len(names); i += 2 {
		name, ok := names[i].(types.StringLiteral)
		if !ok {
			continue
		}
		out[string(name)] = toRef(names[i+1])
	}
}

// readOutlineNodes walks the document's /Outlines bookmark tree into flat
// OutlineNode tuples, preserving the (level, title, dest, action, se)
// shape the header resolver expects.
func readOutlineNodes(ctx *model.Context) []domain.OutlineNode {
	root, err := ctx.XRefTable.DereferenceDict(ctx.XRefTable.Root["Outlines"])
	if err != nil || root == nil {
		return nil
	}

	var nodes []domain.OutlineNode
	var walk func(d types.Dict, level int)
	walk = func(d types.Dict, level int) {
		first, err := ctx.XRefTable.DereferenceDict(d["First"])
		for err == nil && first != nil {
			title, _ := ctx.XRefTable.DereferenceStringOrHexLiteral(first["Title"], model.V17, nil)
			node := domain.OutlineNode{Level: level, Title: title}
			if dest, ok := first["Dest"]; ok {
				node.Dest = toRef(dest)
			}
			if action, err := ctx.XRefTable.DereferenceDict(first["A"]); err == nil && action != nil {
				if d, ok := action["D"]; ok {
					node.Action = domain.DictRef{D: toRef(d)}
				}
			}
			if se, ok := first["SE"]; ok {
				node.SE = toRef(se)
			}
			nodes = append(nodes, node)
			walk(first, level+1)
			first, err = ctx.XRefTable.DereferenceDict(first["Next"])
		}
	}
	walk(root, 1)
	return nodes
}
