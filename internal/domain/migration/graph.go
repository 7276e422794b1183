package migration

// FindPath resolves a version transition into an ordered strategy chain.
//
// Every stored strategy is a directed edge from its source to its target
// version; breadth-first search returns the chain with the minimum number of
// migration hops. The visited set guards against cycles even though version
// edges are expected to be acyclic in practice.
//
// An identity transition and an unreachable target both yield an empty chain;
// callers distinguish them by comparing the requested versions.
func FindPath(strategies []Strategy, fromVersion, toVersion string) []Strategy {
	if fromVersion == toVersion {
		return []Strategy{}
	}

	adjacency := make(map[string]map[string]Strategy)
	for _, s := range strategies {
		if adjacency[s.FromVersion] == nil {
			adjacency[s.FromVersion] = make(map[string]Strategy)
		}
		adjacency[s.FromVersion][s.ToVersion] = s
	}

	type node struct {
		version string
		path    []Strategy
	}

	queue := []node{{version: fromVersion}}
	visited := map[string]struct{}{fromVersion: {}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.version == toVersion {
			return current.path
		}

		for nextVersion, strategy := range adjacency[current.version] {
			if _, seen := visited[nextVersion]; seen {
				continue
			}
			visited[nextVersion] = struct{}{}

			path := make([]Strategy, len(current.path), len(current.path)+1)
			copy(path, current.path)
			queue = append(queue, node{version: nextVersion, path: append(path, strategy)})
		}
	}

	return []Strategy{}
}
