package catalog

import (
	"strings"

	"querypilot/internal/domain"
)

type edge struct {
	to  string
	rel domain.Relationship
}

// JoinPath finds relationships connecting the first table to every other
// requested table. Relationships are undirected edges visited in declaration
// order, so ties go to the first-declared relationship. Unknown or
// unreachable tables are a *domain.NotFoundError.
func JoinPath(snap *domain.SchemaSnapshot, tables []string) ([]domain.Relationship, error) {
	if len(tables) == 0 {
		return nil, domain.ErrValidation("at least one table is required")
	}

	resolved := make([]string, 0, len(tables))
	var unknown []string
	for _, t := range tables {
		name, ok := snap.ResolveTable(strings.TrimSpace(t))
		if !ok {
			unknown = append(unknown, t)
			continue
		}
		resolved = append(resolved, name)
	}
	if len(unknown) > 0 {
		return nil, domain.ErrNotFound("unknown tables: %s", strings.Join(unknown, ", "))
	}

	adj := make(map[string][]edge)
	for _, r := range snap.Relationships {
		if r.FromTable == r.ToTable {
			continue
		}
		adj[r.FromTable] = append(adj[r.FromTable], edge{to: r.ToTable, rel: r})
		adj[r.ToTable] = append(adj[r.ToTable], edge{to: r.FromTable, rel: r})
	}

	root := resolved[0]
	parent := map[string]edge{}
	seen := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range adj[cur] {
			if seen[e.to] {
				continue
			}
			seen[e.to] = true
			parent[e.to] = edge{to: cur, rel: e.rel}
			queue = append(queue, e.to)
		}
	}

	var unreachable []string
	for _, t := range resolved[1:] {
		if !seen[t] {
			unreachable = append(unreachable, t)
		}
	}
	if len(unreachable) > 0 {
		return nil, domain.ErrNotFound("no join path from %s to: %s", root, strings.Join(unreachable, ", "))
	}

	path := []domain.Relationship{}
	used := map[domain.Relationship]bool{}
	for _, t := range resolved[1:] {
		var chain []domain.Relationship
		for cur := t; cur != root; cur = parent[cur].to {
			chain = append(chain, parent[cur].rel)
		}
		// chain runs target -> root; emit root -> target
		for i := len(chain) - 1; i >= 0; i-- {
			if !used[chain[i]] {
				used[chain[i]] = true
				path = append(path, chain[i])
			}
		}
	}
	return path, nil
}
