package perft

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
)

var (
	// ErrInvalidResponse represents a backend response that does not match the expected grammar.
	ErrInvalidResponse = errors.New("invalid response")
)

// Engine is the perft query capability shared by all backends. Implementations
// forward the position descriptor and moves verbatim and never validate move
// legality; counting is entirely the backend's business.
type Engine interface {
	Perft(ctx context.Context, fen string, moves []string, depth int) (*Report, error)
}

// Report is one backend's answer to one perft query: the total leaf node count
// plus the per-move subtree counts. Counts are big.Ints since node counts
// overflow 64 bits at large depths.
type Report struct {
	totalCount *big.Int
	childCount map[string]*big.Int
}

func NewReport(totalCount *big.Int, childCount map[string]*big.Int) *Report {
	return &Report{
		totalCount: totalCount,
		childCount: childCount,
	}
}

func (r *Report) TotalCount() *big.Int {
	return r.totalCount
}

func (r *Report) ChildCount(move string) (*big.Int, bool) {
	count, ok := r.childCount[move]
	return count, ok
}

func (r *Report) Len() int {
	return len(r.childCount)
}

// Moves returns the reported moves in lexicographic order.
func (r *Report) Moves() []string {
	moves := make([]string, 0, len(r.childCount))
	for move := range r.childCount {
		moves = append(moves, move)
	}
	sort.Strings(moves)
	return moves
}

// ParseCount parses a non-negative decimal node count.
func ParseCount(s string) (*big.Int, error) {
	count, ok := new(big.Int).SetString(s, 10)
	if !ok || count.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid count %q", ErrInvalidResponse, s)
	}
	return count, nil
}
