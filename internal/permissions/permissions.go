package permissions

// Node is one entry in a permission tree. Trees are persisted as JSON
// on roles (defaults) and users (overrides); the effective tree is
// always derived with Merge and never stored.
type Node struct {
	Name     string `json:"name"`
	Value    bool   `json:"value"`
	Children []Node `json:"children,omitempty"`
}

// Merge resolves a permission tree against a template. The template
// defines the shape; for each template node the target's value is kept
// when a node with the same name exists (first match wins), otherwise
// the value defaults to false. Neither input is mutated.
func Merge(template, target []Node) []Node {
	if len(template) == 0 {
		return nil
	}
	merged := make([]Node, 0, len(template))
	for _, tpl := range template {
		node := Node{Name: tpl.Name}
		if match, ok := findByName(target, tpl.Name); ok {
			node.Value = match.Value
			node.Children = Merge(tpl.Children, match.Children)
		} else {
			node.Children = Merge(tpl.Children, nil)
		}
		merged = append(merged, node)
	}
	return merged
}

// Overrides extracts the set of nodes needed to rebuild resolved from
// the role defaults via Merge. Because Merge treats an absent node as
// denied, every granted node is kept; a denied node is kept only when
// the role grants it by default or a child needs recording. Nodes that
// are denied on both sides with no differing children are omitted, so
// the persisted override set stays small. Merge(role, Overrides(role,
// resolved)) reproduces resolved's values exactly.
func Overrides(role, resolved []Node) []Node {
	var diff []Node
	for _, res := range resolved {
		def, ok := findByName(role, res.Name)
		var childDiff []Node
		if ok {
			childDiff = Overrides(def.Children, res.Children)
		} else {
			childDiff = Overrides(nil, res.Children)
		}
		changed := res.Value || (ok && def.Value != res.Value)
		if changed || len(childDiff) > 0 {
			diff = append(diff, Node{Name: res.Name, Value: res.Value, Children: childDiff})
		}
	}
	return diff
}

// Allowed walks the tree along path and reports whether the final node
// exists and is granted. Every node along the path must be granted.
func Allowed(tree []Node, path ...string) bool {
	if len(path) == 0 {
		return false
	}
	nodes := tree
	for i, name := range path {
		node, ok := findByName(nodes, name)
		if !ok || !node.Value {
			return false
		}
		if i == len(path)-1 {
			return true
		}
		nodes = node.Children
	}
	return false
}

// findByName returns the first sibling with the given name. Duplicate
// sibling names resolve to the first occurrence.
func findByName(nodes []Node, name string) (Node, bool) {
	for _, n := range nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}
