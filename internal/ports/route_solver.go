package ports

import "context"

// Contract for multi-vehicle tour construction over a duration matrix.
//
// Solve returns vehicleCount ordered index sequences into the matrix, each
// starting at depot. Implementations fall back to a deterministic greedy
// construction rather than returning a no-solution error.
type RouteSolver interface {
	Solve(ctx context.Context, durationMatrix [][]float64, vehicleCount, depot int) ([][]int, error)
}
