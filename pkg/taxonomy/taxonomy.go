// Package taxonomy resolves place categories within a forest of category nodes.
//
// A Taxonomy is validated once at construction: every parent reference must
// resolve and no parent chain may loop. Query-time traversal therefore needs
// no depth guard.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycle is returned by New when a parent chain loops back on itself.
	ErrCycle = errors.New("taxonomy: parent cycle")
	// ErrUnknownParent is returned by New when a node names a parent that does not exist.
	ErrUnknownParent = errors.New("taxonomy: unknown parent")
	// ErrDuplicateID is returned by New when two nodes share an id.
	ErrDuplicateID = errors.New("taxonomy: duplicate id")
)

// Node is a single category. Children is derived by New from the Parent
// fields of the other nodes, in declaration order.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Parent   string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Children []string `json:"children,omitempty" yaml:"-"`
}

// Taxonomy is an immutable category forest.
type Taxonomy struct {
	nodes map[string]*Node
	order []string
}

// New builds a taxonomy from a flat node list.
func New(nodes []Node) (*Taxonomy, error) {
	t := &Taxonomy{
		nodes: make(map[string]*Node, len(nodes)),
		order: make([]string, 0, len(nodes)),
	}
	for i := range nodes {
		n := nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("taxonomy: node %d has empty id", i)
		}
		if _, dup := t.nodes[n.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
		n.Children = nil
		t.nodes[n.ID] = &n
		t.order = append(t.order, n.ID)
	}

	for _, id := range t.order {
		n := t.nodes[id]
		if n.Parent == "" {
			continue
		}
		parent, ok := t.nodes[n.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: %s (parent of %s)", ErrUnknownParent, n.Parent, id)
		}
		parent.Children = append(parent.Children, id)
	}

	if err := t.checkCycles(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNew is New that panics on error. Intended for static tables.
func MustNew(nodes []Node) *Taxonomy {
	t, err := New(nodes)
	if err != nil {
		panic(err)
	}
	return t
}

// checkCycles walks every parent chain once, memoizing nodes already proven
// to reach a root.
func (t *Taxonomy) checkCycles() error {
	rooted := make(map[string]bool, len(t.nodes))
	for _, start := range t.order {
		path := make(map[string]bool)
		id := start
		for id != "" && !rooted[id] {
			if path[id] {
				return fmt.Errorf("%w: through %s", ErrCycle, id)
			}
			path[id] = true
			id = t.nodes[id].Parent
		}
		for p := range path {
			rooted[p] = true
		}
	}
	return nil
}

// Lookup returns the node for id.
func (t *Taxonomy) Lookup(id string) (Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	out := *n
	out.Children = append([]string(nil), n.Children...)
	return out, true
}

// Name returns the human name for id, or id itself when unknown.
func (t *Taxonomy) Name(id string) string {
	if n, ok := t.nodes[id]; ok {
		return n.Name
	}
	return id
}

// Len returns the number of nodes.
func (t *Taxonomy) Len() int {
	return len(t.nodes)
}

// TopLevelOf returns the root ancestor of id. Ids not present in the table
// are their own top level.
func (t *Taxonomy) TopLevelOf(id string) string {
	n, ok := t.nodes[id]
	if !ok {
		return id
	}
	for n.Parent != "" {
		n = t.nodes[n.Parent]
	}
	return n.ID
}

// Expand returns each id plus all of its descendants, breadth first,
// deduplicated in first-seen order. Unknown ids are returned unchanged.
func (t *Taxonomy) Expand(ids ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)

		queue := []string{id}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			n, ok := t.nodes[cur]
			if !ok {
				continue
			}
			for _, child := range n.Children {
				if seen[child] {
					continue
				}
				seen[child] = true
				out = append(out, child)
				queue = append(queue, child)
			}
		}
	}
	return out
}

// ExpandTopLevel expands the top-level ancestors of ids, broadening a query
// to sibling and cousin categories.
func (t *Taxonomy) ExpandTopLevel(ids ...string) []string {
	tops := make([]string, 0, len(ids))
	for _, id := range ids {
		tops = append(tops, t.TopLevelOf(id))
	}
	return t.Expand(tops...)
}

// MatchName returns the ids whose name contains tag or is contained in it,
// case-insensitively, in declaration order.
func (t *Taxonomy) MatchName(tag string) []string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return nil
	}
	var out []string
	for _, id := range t.order {
		name := strings.ToLower(t.nodes[id].Name)
		if strings.Contains(name, tag) || strings.Contains(tag, name) {
			out = append(out, id)
		}
	}
	return out
}
