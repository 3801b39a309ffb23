package schema

// Walk calls fn for n and every node below it, parents first.
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)
	switch n := n.(type) {
	case *Object:
		for _, p := range n.Properties {
			Walk(p.Node, fn)
		}
	case *Array:
		Walk(n.Items, fn)
	case *Union:
		for _, v := range n.Variants {
			if v.Inline != nil {
				Walk(v.Inline, fn)
			}
		}
	}
}

// WalkDocument walks every $defs entry of doc, then its top-level node.
func WalkDocument(doc *Document, fn func(Node)) {
	for _, d := range doc.Defs {
		Walk(d.Node, fn)
	}
	Walk(doc.Node, fn)
}

// References returns the global names doc refers to, in traversal order and
// without duplicates.
func References(doc *Document) []string {
	var out []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	WalkDocument(doc, func(n Node) {
		switch n := n.(type) {
		case *Reference:
			if !n.Local {
				add(n.Name)
			}
		case *Union:
			for _, v := range n.Variants {
				if v.Ref != "" {
					add(v.Ref)
				}
			}
		}
	})
	return out
}

// DependencyOrder returns every name in set exactly once, each after all
// names it references. Roots are visited in ascending name order.
func DependencyOrder(set *Set) []string {
	visited := map[string]bool{}
	out := make([]string, 0, set.Len())

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		doc, ok := set.Get(name)
		if !ok {
			return
		}
		visited[name] = true
		for _, ref := range References(doc) {
			visit(ref)
		}
		out = append(out, name)
	}

	for _, name := range set.Names() {
		visit(name)
	}
	return out
}
