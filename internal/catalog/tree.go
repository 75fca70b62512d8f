package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
)

// PathSeparator joins category names in a rendered path.
const PathSeparator = " > "

// Tree is a read-only snapshot of the category hierarchy, stored as an arena
// of nodes addressed by index. Traversals are iterative and track visited
// nodes, so a corrupt parent chain yields ErrCorruptTree instead of looping.
type Tree struct {
	nodes []node
	index map[int64]int
}

type node struct {
	cat      Category
	parent   int // -1 for roots
	children []int
}

// NewTree builds a snapshot from a flat category list. A category whose
// parent is missing from the list is treated as a root. Children are kept in
// name order.
func NewTree(cats []Category) *Tree {
	sorted := make([]Category, len(cats))
	copy(sorted, cats)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})

	t := &Tree{
		nodes: make([]node, len(sorted)),
		index: make(map[int64]int, len(sorted)),
	}
	for i, c := range sorted {
		t.nodes[i] = node{cat: c, parent: -1}
		t.index[c.ID] = i
	}
	for i := range t.nodes {
		pid := t.nodes[i].cat.ParentID
		if pid == nil {
			continue
		}
		if p, ok := t.index[*pid]; ok {
			t.nodes[i].parent = p
			t.nodes[p].children = append(t.nodes[p].children, i)
		}
	}
	return t
}

func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) Category(id int64) (Category, bool) {
	i, ok := t.index[id]
	if !ok {
		return Category{}, false
	}
	return t.nodes[i].cat, true
}

func (t *Tree) Roots() []Category {
	var out []Category
	for _, n := range t.nodes {
		if n.parent < 0 {
			out = append(out, n.cat)
		}
	}
	return out
}

func (t *Tree) Children(id int64) ([]Category, error) {
	i, err := t.lookup("catalog.Children", id)
	if err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(t.nodes[i].children))
	for _, c := range t.nodes[i].children {
		out = append(out, t.nodes[c].cat)
	}
	return out, nil
}

// TreeNode is a category with its children nested, for serialization.
type TreeNode struct {
	Category
	Children []TreeNode `json:"children"`
}

// Nested returns the forest under the root categories. Categories caught in
// a parent cycle are unreachable from any root and are left out.
func (t *Tree) Nested() []TreeNode {
	var build func(i int) TreeNode
	build = func(i int) TreeNode {
		n := TreeNode{Category: t.nodes[i].cat, Children: []TreeNode{}}
		for _, c := range t.nodes[i].children {
			n.Children = append(n.Children, build(c))
		}
		return n
	}
	out := []TreeNode{}
	for i, n := range t.nodes {
		if n.parent < 0 {
			out = append(out, build(i))
		}
	}
	return out
}

// Ancestors returns the parent chain of id, nearest first.
func (t *Tree) Ancestors(id int64) ([]Category, error) {
	const op = "catalog.Ancestors"
	i, err := t.lookup(op, id)
	if err != nil {
		return nil, err
	}
	var out []Category
	seen := map[int]struct{}{i: {}}
	for p := t.nodes[i].parent; p >= 0; p = t.nodes[p].parent {
		if _, dup := seen[p]; dup {
			return nil, t.corrupt(op, id)
		}
		seen[p] = struct{}{}
		out = append(out, t.nodes[p].cat)
	}
	return out, nil
}

// FullPath returns the category names from the root down to id.
func (t *Tree) FullPath(id int64) ([]string, error) {
	anc, err := t.Ancestors(id)
	if err != nil {
		return nil, err
	}
	path := make([]string, 0, len(anc)+1)
	for k := len(anc) - 1; k >= 0; k-- {
		path = append(path, anc[k].Name)
	}
	self, _ := t.Category(id)
	return append(path, self.Name), nil
}

func (t *Tree) PathString(id int64) (string, error) {
	path, err := t.FullPath(id)
	if err != nil {
		return "", err
	}
	return strings.Join(path, PathSeparator), nil
}

// Descendants returns every category reachable from id through child links,
// excluding id itself, in breadth-first order.
func (t *Tree) Descendants(id int64) ([]Category, error) {
	const op = "catalog.Descendants"
	i, err := t.lookup(op, id)
	if err != nil {
		return nil, err
	}
	var out []Category
	seen := map[int]struct{}{i: {}}
	queue := append([]int(nil), t.nodes[i].children...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, dup := seen[cur]; dup {
			return nil, t.corrupt(op, id)
		}
		seen[cur] = struct{}{}
		out = append(out, t.nodes[cur].cat)
		queue = append(queue, t.nodes[cur].children...)
	}
	return out, nil
}

// SubtreeIDs returns id followed by the ids of all its descendants.
func (t *Tree) SubtreeIDs(id int64) ([]int64, error) {
	desc, err := t.Descendants(id)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(desc)+1)
	ids = append(ids, id)
	for _, d := range desc {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// CanReparent reports whether id may be moved under parent without creating
// a cycle. A nil parent (move to root) is always allowed.
func (t *Tree) CanReparent(id int64, parent *int64) (bool, error) {
	if parent == nil {
		return true, nil
	}
	if *parent == id {
		return false, nil
	}
	desc, err := t.Descendants(id)
	if err != nil {
		return false, err
	}
	for _, d := range desc {
		if d.ID == *parent {
			return false, nil
		}
	}
	return true, nil
}

func (t *Tree) lookup(op string, id int64) (int, error) {
	i, ok := t.index[id]
	if !ok {
		return 0, apperr.Wrap(apperr.KindNotFound, op, fmt.Errorf("%w: %d", ErrCategoryNotFound, id))
	}
	return i, nil
}

func (t *Tree) corrupt(op string, id int64) error {
	return apperr.Wrap(apperr.KindConflict, op, fmt.Errorf("%w: reached from category %d", ErrCorruptTree, id))
}
