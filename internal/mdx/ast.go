package mdx

import (
	"fmt"
	"strings"

	"github.com/roach88/pivotql/internal/cube"
)

// RootMember is the name of the implicit root member of a non-slicing
// hierarchy.
const RootMember = "AllMember"

// Set is a set expression.
//
// This is a sealed interface; the renderer switches over every
// implementation.
type Set interface {
	setNode()
	String() string
}

// AllMembers is "[Measures].AllMembers".
type AllMembers struct {
	Hierarchy cube.HierarchyKey
}

func (AllMembers) setNode() {}

func (s AllMembers) String() string {
	return hierarchyName(s.Hierarchy) + ".AllMembers"
}

// Members is an explicit member set: "{m1, m2}".
type Members struct {
	Members []Member
}

func (Members) setNode() {}

func (s Members) String() string {
	parts := make([]string, len(s.Members))
	for i, m := range s.Members {
		parts[i] = m.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// LevelMembers is "[D].[H].[L].Members".
type LevelMembers struct {
	Level cube.LevelKey
}

func (LevelMembers) setNode() {}

func (s LevelMembers) String() string {
	return hierarchyName(s.Level.HierarchyKey()) + "." + Quote(s.Level.Level) + ".Members"
}

// Descendants is every member from the root of a non-slicing hierarchy down
// to Depth, parents before children:
// "Hierarchize(Descendants({[D].[H].[AllMember]}, depth, SELF_AND_BEFORE))".
type Descendants struct {
	Hierarchy cube.HierarchyKey
	Depth     int
}

func (Descendants) setNode() {}

func (s Descendants) String() string {
	root := Member{Hierarchy: s.Hierarchy, Path: []string{RootMember}}
	return fmt.Sprintf("Hierarchize(Descendants({%s}, %d, SELF_AND_BEFORE))", root, s.Depth)
}

// Crossjoin is the cross product of its sets, in order.
type Crossjoin struct {
	Sets []Set
}

func (Crossjoin) setNode() {}

func (s Crossjoin) String() string {
	parts := make([]string, len(s.Sets))
	for i, set := range s.Sets {
		parts[i] = set.String()
	}
	return "Crossjoin(" + strings.Join(parts, ", ") + ")"
}

// Member is a fully qualified member. Path holds the member names from the
// top of the hierarchy, including the root for non-slicing hierarchies.
type Member struct {
	Hierarchy cube.HierarchyKey
	Path      []string
}

func (m Member) String() string {
	var sb strings.Builder
	sb.WriteString(hierarchyName(m.Hierarchy))
	for _, name := range m.Path {
		sb.WriteByte('.')
		sb.WriteString(Quote(name))
	}
	return sb.String()
}

// Filter restricts the cube to a member set of one hierarchy.
type Filter struct {
	Hierarchy cube.HierarchyKey
	Slicing   bool

	// Paths are member paths below the root, shallowest first.
	Paths [][]string
}

// Set returns the filter's member set.
func (f Filter) Set() Members {
	members := make([]Member, len(f.Paths))
	for i, p := range f.Paths {
		members[i] = f.member(p)
	}
	return Members{Members: members}
}

func (f Filter) member(path []string) Member {
	if f.Slicing {
		return Member{Hierarchy: f.Hierarchy, Path: path}
	}
	return Member{Hierarchy: f.Hierarchy, Path: append([]string{RootMember}, path...)}
}

// Query is a compiled query.
type Query struct {
	Cube    string
	Columns Set
	Rows    Set // nil when no level was requested

	// Filters in the order they were added. The first is the outermost
	// sub-select, the last the innermost.
	Filters []Filter
}

// String renders the query text.
func (q *Query) String() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(q.Columns.String())
	sb.WriteString(" ON COLUMNS")
	if q.Rows != nil {
		sb.WriteString(", NON EMPTY ")
		sb.WriteString(q.Rows.String())
		sb.WriteString(" ON ROWS")
	}
	sb.WriteString(" FROM ")
	sb.WriteString(q.from())
	return sb.String()
}

// from renders the sub-select chain, most recently added filter innermost.
func (q *Query) from() string {
	from := Quote(q.Cube)
	for i := len(q.Filters) - 1; i >= 0; i-- {
		from = fmt.Sprintf("(SELECT %s ON COLUMNS FROM %s)", q.Filters[i].Set(), from)
	}
	return from
}

// Quote brackets a name, doubling any closing bracket: "a]b" becomes
// "[a]]b]".
func Quote(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func hierarchyName(k cube.HierarchyKey) string {
	if k.IsMeasures() {
		return Quote(cube.MeasuresDimension)
	}
	return Quote(k.Dimension) + "." + Quote(k.Hierarchy)
}
