package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/tdejager/pixi/pkg/conda"
	"github.com/tdejager/pixi/pkg/lock"
)

// SortTopologically reorders the binary-ecosystem packages of one work-item
// so that every package appears after all of its dependencies. Dependency
// entries naming packages outside the set (virtual packages, filtered-out
// optionals) are ignored.
//
// The order is deterministic: packages whose dependencies are all satisfied
// at the same step keep their relative input order, so sorting an unchanged
// input twice yields byte-identical output.
//
// A dependency cycle is a fatal error. Breaking a cycle arbitrarily would
// produce an installation order that violates a real runtime dependency.
func SortTopologically(packages []*lock.CondaPackage) ([]*lock.CondaPackage, error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.Acyclic(), graph.PreventCycles())

	index := make(map[string]int, len(packages))
	byName := make(map[string]*lock.CondaPackage, len(packages))

	for i, pkg := range packages {
		name := strings.ToLower(pkg.Name)
		if _, exists := byName[name]; exists {
			return nil, fmt.Errorf("duplicate package %q in environment", name)
		}
		index[name] = i
		byName[name] = pkg

		if err := g.AddVertex(name); err != nil {
			return nil, fmt.Errorf("unable to add vertex for %q: %w", name, err)
		}
	}

	for _, pkg := range packages {
		name := strings.ToLower(pkg.Name)
		for _, depends := range pkg.Depends {
			dep := conda.DependencyName(depends)
			if dep == "" || dep == name {
				continue
			}
			if _, known := byName[dep]; !known {
				continue
			}

			// Edges point dependency -> dependent so that sorting emits
			// dependencies first.
			err := g.AddEdge(dep, name)
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, fmt.Errorf("dependency cycle detected between %q and %q", name, dep)
			default:
				return nil, fmt.Errorf("unable to add edge from %q to %q: %w", dep, name, err)
			}
		}
	}

	order, err := graph.StableTopologicalSort(g, func(a, b string) bool {
		return index[a] < index[b]
	})
	if err != nil {
		return nil, fmt.Errorf("sorting packages: %w", err)
	}

	sorted := make([]*lock.CondaPackage, 0, len(order))
	for _, name := range order {
		sorted = append(sorted, byName[name])
	}
	return sorted, nil
}
