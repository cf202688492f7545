package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/agausmann/perftree/diff"
	"github.com/agausmann/perftree/perft"
)

const DefaultStartingPositionFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	// ErrPathTooDeep represents a move path already deeper than the target depth.
	ErrPathTooDeep = errors.New("move path is deeper than the target depth")
)

// ReferenceEngine is the trusted backend; it additionally understands the
// alternate castling-notation ruleset.
type ReferenceEngine interface {
	perft.Engine
	SetChess960(enabled bool)
}

// Session is the position currently under inspection: a base position
// descriptor, the move path applied since it, and the target depth measured
// from the base. Positions and moves are opaque tokens forwarded verbatim to
// the backends.
type Session struct {
	script    perft.Engine
	reference ReferenceEngine

	fen   string
	moves []string
	depth int
}

func NewSession(script perft.Engine, reference ReferenceEngine) *Session {
	return &Session{
		script:    script,
		reference: reference,
		fen:       DefaultStartingPositionFEN,
		depth:     1,
	}
}

func (s *Session) Fen() string {
	return s.fen
}

// SetFen replaces the base position and clears the move path, which is only
// meaningful relative to the position it was built on.
func (s *Session) SetFen(fen string) {
	s.fen = fen
	s.moves = nil
}

func (s *Session) Moves() []string {
	return s.moves
}

func (s *Session) SetMoves(moves []string) {
	s.moves = moves
}

func (s *Session) Depth() int {
	return s.depth
}

func (s *Session) SetDepth(depth int) {
	s.depth = depth
}

func (s *Session) Root() {
	s.moves = nil
}

// Parent removes the last move from the path; on an empty path it is a no-op.
func (s *Session) Parent() {
	if len(s.moves) > 0 {
		s.moves = s.moves[:len(s.moves)-1]
	}
}

func (s *Session) Child(move string) {
	s.moves = append(s.moves, move)
}

func (s *Session) SetChess960(enabled bool) {
	s.reference.SetChess960(enabled)
}

// Diff queries both backends at the current position with the remaining
// depth and merges their reports. A failed query leaves the session unchanged;
// the caller may simply retry.
func (s *Session) Diff(ctx context.Context) (*diff.Diff, error) {
	depth := s.depth - len(s.moves)
	if depth < 0 {
		return nil, fmt.Errorf("%w: %d moves at target depth %d", ErrPathTooDeep, len(s.moves), s.depth)
	}

	lhs, err := s.script.Perft(ctx, s.fen, s.moves, depth)
	if err != nil {
		return nil, fmt.Errorf("script backend: %w", err)
	}
	rhs, err := s.reference.Perft(ctx, s.fen, s.moves, depth)
	if err != nil {
		return nil, fmt.Errorf("reference backend: %w", err)
	}
	return diff.Merge(lhs, rhs), nil
}
