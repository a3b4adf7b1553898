package services

import (
	"context"
	"fmt"
)

// maxTraversalDepth caps the BFS frontier; acquaintance chains longer than
// this are treated as unreachable.
const maxTraversalDepth = 10

// NeighborLister enumerates the users one acquaintance edge away from a user
type NeighborLister interface {
	Neighbors(ctx context.Context, userID int64) ([]int64, error)
}

// AcquaintanceGraph answers shortest-path degree-of-separation queries over
// the stored connection edges
type AcquaintanceGraph struct {
	store NeighborLister
}

// NewAcquaintanceGraph creates a graph backed by the given edge store
func NewAcquaintanceGraph(store NeighborLister) *AcquaintanceGraph {
	return &AcquaintanceGraph{store: store}
}

// ShortestDegrees returns the minimum hop count from source to every
// reachable target. The source itself is never reported, and unreachable
// targets are omitted rather than mapped to a sentinel. An empty target set
// returns immediately without touching the store.
func (g *AcquaintanceGraph) ShortestDegrees(ctx context.Context, source int64, targets []int64) (map[int64]int, error) {
	want := make(map[int64]bool, len(targets))
	for _, t := range targets {
		if t != source {
			want[t] = true
		}
	}
	result := make(map[int64]int, len(want))
	if len(want) == 0 {
		return result, nil
	}

	seen := map[int64]bool{source: true}
	frontier := []int64{source}
	remaining := len(want)

	for depth := 1; depth <= maxTraversalDepth && len(frontier) > 0 && remaining > 0; depth++ {
		var next []int64
		for _, u := range frontier {
			neighbors, err := g.store.Neighbors(ctx, u)
			if err != nil {
				return nil, fmt.Errorf("failed to expand user %d: %w", u, err)
			}
			for _, v := range neighbors {
				if seen[v] {
					continue
				}
				seen[v] = true
				if want[v] {
					result[v] = depth
					remaining--
				}
				next = append(next, v)
			}
		}
		frontier = next
	}
	return result, nil
}

// DegreeLabel maps a degree of separation to its display label
func DegreeLabel(degree int) string {
	switch {
	case degree <= 1:
		return "1st"
	case degree == 2:
		return "2nd"
	default:
		return "3rd+"
	}
}
