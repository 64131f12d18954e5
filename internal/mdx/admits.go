package mdx

import "github.com/roach88/pivotql/internal/cube"

// Coordinates maps each hierarchy of a cell to its member path, shallowest
// first and without the implicit root.
type Coordinates map[cube.HierarchyKey][]string

// Admits reports whether a cell at coords survives the query's filter
// chain. Each sub-select keeps the members on its set: the selected members,
// their descendants and their ancestors. The chain keeps the intersection,
// so the result does not depend on the order of Filters. A filter on a
// hierarchy absent from coords does not exclude the cell.
func (q *Query) Admits(coords Coordinates) bool {
	for _, f := range q.Filters {
		path, ok := coords[f.Hierarchy]
		if !ok {
			continue
		}
		if !f.admits(path) {
			return false
		}
	}
	return true
}

func (f Filter) admits(path []string) bool {
	for _, sel := range f.Paths {
		if isPrefix(sel, path) || isPrefix(path, sel) {
			return true
		}
	}
	return false
}

func isPrefix(prefix, path []string) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i := range prefix {
		if prefix[i] != path[i] {
			return false
		}
	}
	return true
}
