package graphql

import (
	"slices"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/nerrad567/holocron/internal/human"
)

// collectFields flattens a selection set for an object of typeName, applying
// @skip/@include and fragment type conditions. Fields sharing a response key
// are merged.
func (x *execution) collectFields(set ast.SelectionSet, typeName string) []*ast.Field {
	var (
		order []string
		byKey = make(map[string]*ast.Field)
	)
	visited := make(map[string]bool)

	var walk func(ast.SelectionSet)
	walk = func(set ast.SelectionSet) {
		for _, sel := range set {
			switch sel := sel.(type) {
			case *ast.Field:
				if !x.included(sel.Directives) {
					continue
				}
				key := responseKey(sel)
				if prev, ok := byKey[key]; ok {
					merged := *prev
					merged.SelectionSet = append(slices.Clone(prev.SelectionSet), sel.SelectionSet...)
					byKey[key] = &merged
					continue
				}
				order = append(order, key)
				byKey[key] = sel

			case *ast.InlineFragment:
				if !x.included(sel.Directives) || !typeMatches(sel.TypeCondition, typeName) {
					continue
				}
				walk(sel.SelectionSet)

			case *ast.FragmentSpread:
				if !x.included(sel.Directives) || visited[sel.Name] {
					continue
				}
				visited[sel.Name] = true
				frag := x.op.doc.Fragments.ForName(sel.Name)
				if frag == nil || !typeMatches(frag.TypeCondition, typeName) {
					continue
				}
				walk(frag.SelectionSet)
			}
		}
	}
	walk(set)

	fields := make([]*ast.Field, 0, len(order))
	for _, key := range order {
		fields = append(fields, byKey[key])
	}
	return fields
}

// included evaluates @skip and @include.
func (x *execution) included(dirs ast.DirectiveList) bool {
	if d := dirs.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(x.op.vars)["if"].(bool); skip {
			return false
		}
	}
	if d := dirs.ForName("include"); d != nil {
		if include, ok := d.ArgumentMap(x.op.vars)["if"].(bool); ok && !include {
			return false
		}
	}
	return true
}

func typeMatches(condition, typeName string) bool {
	return condition == "" || condition == typeName
}

func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// projectHuman renders h through a Human selection set.
func (x *execution) projectHuman(h human.Human, set ast.SelectionSet) *object {
	fields := x.collectFields(set, "Human")
	out := newObject(len(fields))

	for _, f := range fields {
		key := responseKey(f)
		switch f.Name {
		case "__typename":
			out.set(key, "Human")
		case "id":
			out.set(key, h.ID)
		case "name":
			out.set(key, h.Name)
		case "appearsIn":
			eps := make([]string, len(h.AppearsIn))
			for i, e := range h.AppearsIn {
				eps[i] = string(e)
			}
			out.set(key, eps)
		case "homePlanet":
			out.set(key, h.HomePlanet)
		}
	}
	return out
}
