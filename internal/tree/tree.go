// Package tree nests parent-linked rows (folders, subject pages, documents).
package tree

// Node wraps one row and its children.
type Node[T any] struct {
	Item     T          `json:"item"`
	Children []*Node[T] `json:"children"`
}

// Build nests items in a single pass over an arena indexed by id.
//
// A row is a root when its parent is nil, unknown, or itself. Rows caught in a
// parent cycle get one member promoted to root so nothing is dropped. Sibling order
// follows input order.
func Build[T any, K comparable](items []T, id func(T) K, parent func(T) *K) []*Node[T] {
	arena := make([]Node[T], len(items))
	index := make(map[K]int, len(items))
	for i, item := range items {
		arena[i] = Node[T]{Item: item, Children: []*Node[T]{}}
		index[id(item)] = i
	}

	parentOf := make([]int, len(items))
	for i, item := range items {
		parentOf[i] = -1
		p := parent(item)
		if p == nil {
			continue
		}
		if j, ok := index[*p]; ok && j != i {
			parentOf[i] = j
		}
	}

	breakCycles(parentOf)

	var roots []*Node[T]
	for i := range arena {
		if parentOf[i] < 0 {
			roots = append(roots, &arena[i])
			continue
		}
		p := &arena[parentOf[i]]
		p.Children = append(p.Children, &arena[i])
	}
	return roots
}

// breakCycles detaches one member of every parent cycle.
func breakCycles(parentOf []int) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(parentOf))

	for start := range parentOf {
		if state[start] != unvisited {
			continue
		}
		var path []int
		n := start
		for n >= 0 && state[n] == unvisited {
			state[n] = visiting
			path = append(path, n)
			n = parentOf[n]
		}
		if n >= 0 && state[n] == visiting {
			parentOf[n] = -1
		}
		for _, p := range path {
			state[p] = done
		}
	}
}

// Descendants returns the ids below root (excluding it) using the same parent links.
func Descendants[T any, K comparable](items []T, id func(T) K, parent func(T) *K, root K) []K {
	children := make(map[K][]K, len(items))
	for _, item := range items {
		if p := parent(item); p != nil {
			children[*p] = append(children[*p], id(item))
		}
	}

	var out []K
	seen := map[K]bool{root: true}
	queue := []K{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range children[cur] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}
