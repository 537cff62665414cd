package solver

import (
	"context"
	"fmt"
	"math"
)

// GreedySolver builds tours by repeatedly visiting the unvisited node with
// the minimum travel duration from the current position. Each tour starts at
// the depot and is cut off near n/vehicleCount nodes so work spreads across
// vehicles. The construction minimizes the immediate step, not the global
// tour cost; determinism and simplicity win over optimality here.
type GreedySolver struct{}

func NewGreedySolver() *GreedySolver {
	return &GreedySolver{}
}

func (g *GreedySolver) Solve(ctx context.Context, mat [][]float64, vehicleCount, depot int) ([][]int, error) {
	if vehicleCount <= 0 {
		return nil, fmt.Errorf("solve: vehicleCount must be positive, got %d", vehicleCount)
	}

	n := len(mat)
	routes := make([][]int, vehicleCount)
	if n == 0 {
		for v := range routes {
			routes[v] = []int{}
		}
		return routes, nil
	}
	if depot < 0 || depot >= n {
		return nil, fmt.Errorf("solve: depot %d out of range for %d nodes", depot, n)
	}
	for i, row := range mat {
		if len(row) != n {
			return nil, fmt.Errorf("solve: matrix row %d has %d columns for %d nodes", i, len(row), n)
		}
	}

	unvisited := make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		if i != depot {
			unvisited[i] = struct{}{}
		}
	}

	// Tours longer than this get cut so remaining nodes go to later vehicles.
	maxLen := n/vehicleCount + 1
	if maxLen < 2 {
		maxLen = 2
	}

	for v := 0; v < vehicleCount; v++ {
		cur := depot
		routes[v] = []int{depot}
		for len(unvisited) > 0 {
			// Lowest index wins ties so the construction is deterministic.
			next := -1
			best := math.Inf(1)
			for cand := range unvisited {
				d := mat[cur][cand]
				if d < best || (d == best && (next == -1 || cand < next)) {
					best = d
					next = cand
				}
			}
			routes[v] = append(routes[v], next)
			delete(unvisited, next)
			cur = next
			if len(routes[v]) > maxLen {
				break
			}
		}
	}

	// Leftovers happen when every tour hit its cap; append them to the last
	// vehicle in nearest order so no node is dropped.
	cur := routes[vehicleCount-1][len(routes[vehicleCount-1])-1]
	for len(unvisited) > 0 {
		next := -1
		best := math.Inf(1)
		for cand := range unvisited {
			d := mat[cur][cand]
			if d < best || (d == best && (next == -1 || cand < next)) {
				best = d
				next = cand
			}
		}
		routes[vehicleCount-1] = append(routes[vehicleCount-1], next)
		delete(unvisited, next)
		cur = next
	}

	return routes, nil
}
