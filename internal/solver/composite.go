package solver

import (
	"context"
	"log"

	"fleetsim/internal/ports"
)

// Node count above which the advanced solver is skipped and the greedy
// construction used directly.
const defaultMaxAdvancedNodes = 200

// CompositeSolver prefers an advanced solver when one is configured and the
// problem is small enough, and degrades to the greedy construction when the
// advanced solver is absent, declines the problem, or finds no solution.
// Solver failures are therefore never propagated to the dispatcher.
type CompositeSolver struct {
	advanced ports.RouteSolver
	greedy   *GreedySolver
	maxNodes int
}

func NewCompositeSolver(advanced ports.RouteSolver) *CompositeSolver {
	return &CompositeSolver{
		advanced: advanced,
		greedy:   NewGreedySolver(),
		maxNodes: defaultMaxAdvancedNodes,
	}
}

func (c *CompositeSolver) Solve(ctx context.Context, mat [][]float64, vehicleCount, depot int) ([][]int, error) {
	if c.advanced != nil && len(mat) <= c.maxNodes {
		routes, err := c.advanced.Solve(ctx, mat, vehicleCount, depot)
		if err == nil && len(routes) == vehicleCount {
			return routes, nil
		}
		log.Printf("component=solver op=solve fallback=greedy nodes=%d err=%v", len(mat), err)
	}
	return c.greedy.Solve(ctx, mat, vehicleCount, depot)
}
