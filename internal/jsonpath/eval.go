package jsonpath

import (
	"fmt"
	"maps"
	"slices"
)

// ref is a located node plus a way to replace it inside its container.
type ref struct {
	value any
	set   func(any)
}

// Get returns every value matched by the path, in document order.
// Map wildcards visit keys in sorted order.
func (p *Path) Get(doc any) []any {
	refs := p.locate(doc, p.segments)
	out := make([]any, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.value)
	}
	return out
}

// Set replaces every matched value. It returns the number of values replaced.
// The root cannot be replaced in place.
func (p *Path) Set(doc any, value any) (int, error) {
	return p.Modify(doc, func(any) any { return value })
}

// Modify applies fn to every matched value and stores the result back.
// It returns the number of values modified.
func (p *Path) Modify(doc any, fn func(any) any) (int, error) {
	if p.IsRoot() {
		return 0, fmt.Errorf("jsonpath: cannot modify root in place")
	}
	refs := p.locate(doc, p.segments)
	for _, r := range refs {
		r.set(fn(r.value))
	}
	return len(refs), nil
}

// Remove deletes every matched node from its parent. Map keys are deleted and
// array elements are spliced out. It returns the number of nodes removed.
func (p *Path) Remove(doc any) (int, error) {
	if p.IsRoot() {
		return 0, fmt.Errorf("jsonpath: cannot remove root")
	}
	last := p.segments[len(p.segments)-1]
	parents := p.locate(doc, p.segments[:len(p.segments)-1])

	removed := 0
	for _, parent := range parents {
		switch node := parent.value.(type) {
		case map[string]any:
			switch last.kind {
			case segChild:
				if _, ok := node[last.key]; ok {
					delete(node, last.key)
					removed++
				}
			case segWildcard:
				removed += len(node)
				clear(node)
			}
		case []any:
			if parent.set == nil {
				return removed, fmt.Errorf("jsonpath: cannot remove elements of a root array")
			}
			switch last.kind {
			case segIndex:
				if i, ok := normalizeIndex(last.index, len(node)); ok {
					parent.set(slices.Delete(slices.Clone(node), i, i+1))
					removed++
				}
			case segWildcard:
				removed += len(node)
				parent.set([]any{})
			}
		}
	}
	return removed, nil
}

// Rename moves the value at every matched key to newKey within the same map.
// The path must end in a child key. Existing values at newKey are overwritten.
func (p *Path) Rename(doc any, newKey string) (int, error) {
	oldKey, ok := p.LastKey()
	if !ok {
		return 0, fmt.Errorf("jsonpath: rename requires a path ending in a field name")
	}
	if newKey == "" {
		return 0, fmt.Errorf("jsonpath: rename requires a non-empty key")
	}
	parents := p.locate(doc, p.segments[:len(p.segments)-1])

	renamed := 0
	for _, parent := range parents {
		m, ok := parent.value.(map[string]any)
		if !ok {
			continue
		}
		v, ok := m[oldKey]
		if !ok {
			continue
		}
		delete(m, oldKey)
		m[newKey] = v
		renamed++
	}
	return renamed, nil
}

func (p *Path) locate(doc any, segments []segment) []ref {
	current := []ref{{value: doc}}
	for _, seg := range segments {
		var next []ref
		for _, r := range current {
			next = appendChildren(next, r, seg)
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

func appendChildren(dst []ref, r ref, seg segment) []ref {
	switch node := r.value.(type) {
	case map[string]any:
		switch seg.kind {
		case segChild:
			if v, ok := node[seg.key]; ok {
				dst = append(dst, mapRef(node, seg.key, v))
			}
		case segWildcard:
			for _, k := range slices.Sorted(maps.Keys(node)) {
				dst = append(dst, mapRef(node, k, node[k]))
			}
		}
	case []any:
		switch seg.kind {
		case segIndex:
			if i, ok := normalizeIndex(seg.index, len(node)); ok {
				dst = append(dst, sliceRef(node, i))
			}
		case segWildcard:
			for i := range node {
				dst = append(dst, sliceRef(node, i))
			}
		}
	}
	return dst
}

func mapRef(m map[string]any, key string, v any) ref {
	return ref{value: v, set: func(nv any) { m[key] = nv }}
}

func sliceRef(s []any, i int) ref {
	return ref{value: s[i], set: func(nv any) { s[i] = nv }}
}

func normalizeIndex(idx, length int) (int, bool) {
	if idx < 0 {
		idx += length
	}
	return idx, idx >= 0 && idx < length
}
