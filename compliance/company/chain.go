package company

import (
	"sort"

	"github.com/Abraxas-365/cae/pkg/kernel"
)

// Chain indexes a tenant's companies by subcontracting relationship
type Chain struct {
	byID     map[kernel.CompanyID]*Company
	children map[kernel.CompanyID][]kernel.CompanyID
	roots    []kernel.CompanyID
}

func NewChain(companies []Company) *Chain {
	ch := &Chain{
		byID:     make(map[kernel.CompanyID]*Company, len(companies)),
		children: make(map[kernel.CompanyID][]kernel.CompanyID),
	}
	for i := range companies {
		c := &companies[i]
		ch.byID[c.ID] = c
	}
	for i := range companies {
		c := &companies[i]
		if c.ParentID == nil {
			ch.roots = append(ch.roots, c.ID)
			continue
		}
		if _, ok := ch.byID[*c.ParentID]; !ok {
			// dangling parent, treat as a root so it stays visible
			ch.roots = append(ch.roots, c.ID)
			continue
		}
		ch.children[*c.ParentID] = append(ch.children[*c.ParentID], c.ID)
	}
	byName := func(ids []kernel.CompanyID) {
		sort.Slice(ids, func(i, j int) bool {
			return ch.byID[ids[i]].Name < ch.byID[ids[j]].Name
		})
	}
	byName(ch.roots)
	for _, ids := range ch.children {
		byName(ids)
	}
	return ch
}

func (ch *Chain) Get(id kernel.CompanyID) (*Company, bool) {
	c, ok := ch.byID[id]
	return c, ok
}

// Depth of id counting the top-level contractor as 1. Returns 0 if unknown.
func (ch *Chain) Depth(id kernel.CompanyID) int {
	depth := 0
	seen := make(map[kernel.CompanyID]bool)
	for cur, ok := ch.byID[id]; ok; {
		if seen[cur.ID] {
			break
		}
		seen[cur.ID] = true
		depth++
		if cur.ParentID == nil {
			break
		}
		cur, ok = ch.byID[*cur.ParentID]
	}
	return depth
}

// Height is the number of levels in id's subtree, itself included
func (ch *Chain) Height(id kernel.CompanyID) int {
	return ch.height(id, make(map[kernel.CompanyID]bool))
}

func (ch *Chain) height(id kernel.CompanyID, seen map[kernel.CompanyID]bool) int {
	seen[id] = true
	best := 0
	for _, child := range ch.children[id] {
		if seen[child] {
			continue
		}
		if h := ch.height(child, seen); h > best {
			best = h
		}
	}
	return best + 1
}

// Descendants lists every company below id
func (ch *Chain) Descendants(id kernel.CompanyID) []kernel.CompanyID {
	var out []kernel.CompanyID
	seen := map[kernel.CompanyID]bool{id: true}
	queue := append([]kernel.CompanyID(nil), ch.children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		queue = append(queue, ch.children[cur]...)
	}
	return out
}

// Contains reports whether target is root or below it
func (ch *Chain) Contains(root, target kernel.CompanyID) bool {
	seen := make(map[kernel.CompanyID]bool)
	for cur, ok := ch.byID[target]; ok; {
		if cur.ID == root {
			return true
		}
		if seen[cur.ID] || cur.ParentID == nil {
			return false
		}
		seen[cur.ID] = true
		cur, ok = ch.byID[*cur.ParentID]
	}
	return false
}

// CheckParent validates moving (or creating) child under parent. child may
// be empty for a company that does not exist yet.
func (ch *Chain) CheckParent(child, parent kernel.CompanyID) error {
	if _, ok := ch.byID[parent]; !ok {
		return ErrParentNotFound().WithDetail("parent_id", parent.String())
	}
	height := 1
	if child != "" {
		if child == parent || ch.Contains(child, parent) {
			return ErrChainCycle().WithDetail("company_id", child.String())
		}
		height = ch.Height(child)
	}
	if ch.Depth(parent)+height > MaxChainDepth {
		return ErrChainTooDeep().WithDetail("parent_id", parent.String())
	}
	return nil
}

// Tree builds the nested view rooted at root, or the whole forest when root is nil.
// A company already placed in the tree is not visited again.
func (ch *Chain) Tree(root *kernel.CompanyID) []*CompanyNode {
	seen := make(map[kernel.CompanyID]bool)
	var build func(id kernel.CompanyID, depth int) *CompanyNode
	build = func(id kernel.CompanyID, depth int) *CompanyNode {
		seen[id] = true
		node := &CompanyNode{Company: *ch.byID[id], Depth: depth, Children: []*CompanyNode{}}
		for _, child := range ch.children[id] {
			if seen[child] {
				continue
			}
			node.Children = append(node.Children, build(child, depth+1))
		}
		return node
	}

	if root != nil {
		if _, ok := ch.byID[*root]; !ok {
			return []*CompanyNode{}
		}
		return []*CompanyNode{build(*root, ch.Depth(*root))}
	}

	out := make([]*CompanyNode, 0, len(ch.roots))
	for _, id := range ch.roots {
		out = append(out, build(id, 1))
	}
	return out
}
