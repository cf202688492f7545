package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/big"
	"os/exec"
	"strings"
	"syscall"

	"github.com/agausmann/perftree/perft"
)

// Stockfish implements perft.Engine over a single long-lived UCI engine
// subprocess. The conversation on its pipes is strictly ordered: a query must
// fully complete before the next may begin, so an instance must never be
// shared between concurrent queries.
type Stockfish struct {
	path     string
	chess960 bool

	cmd *exec.Cmd
	in  io.Writer
	out *bufio.Reader

	// broken marks a desynced or dead conversation; the next query respawns
	// the subprocess instead of reading from a pipe in an unknown state.
	broken bool
}

func NewStockfish(path string) (*Stockfish, error) {
	s := &Stockfish{
		path: path,
	}
	if err := s.spawn(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stockfish) spawn() error {
	cmd := exec.Command(s.path)
	// a dedicated process group: when the path is a wrapper script, killing
	// the group takes the wrapped engine down with it, so a blocked response
	// read sees EOF instead of hanging on the grandchild's pipe
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	in, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.path, err)
	}
	s.cmd = cmd
	s.in = in
	s.out = bufio.NewReader(out)
	s.broken = false

	// discard the identification banner
	if _, err := s.out.ReadString('\n'); err != nil {
		s.fail()
		return fmt.Errorf("read banner from %s: %w", s.path, err)
	}
	return nil
}

// SetChess960 toggles the alternate castling-notation ruleset. The flag is
// re-sent with every query, so it also survives a respawn.
func (s *Stockfish) SetChess960(enabled bool) {
	s.chess960 = enabled
}

func (s *Stockfish) Perft(ctx context.Context, fen string, moves []string, depth int) (*perft.Report, error) {
	if s.broken {
		if err := s.spawn(); err != nil {
			return nil, err
		}
	}

	// kill the subprocess if the caller gives up mid-read; the pending read
	// then fails with EOF and the backend respawns on the next query
	watchdogDone := make(chan struct{})
	defer close(watchdogDone)
	go func(cmd *exec.Cmd) {
		select {
		case <-ctx.Done():
			killProcessGroup(cmd)
		case <-watchdogDone:
		}
	}(s.cmd)

	report, err := s.query(fen, moves, depth)
	if err != nil {
		s.fail()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return report, nil
}

func (s *Stockfish) query(fen string, moves []string, depth int) (*perft.Report, error) {
	var directives strings.Builder
	fmt.Fprintf(&directives, "setoption name UCI_Chess960 value %v\n", s.chess960)
	fmt.Fprintf(&directives, "position fen %s", fen)
	if len(moves) > 0 {
		fmt.Fprintf(&directives, " moves %s", strings.Join(moves, " "))
	}
	fmt.Fprintf(&directives, "\ngo perft %d\n", depth)
	if _, err := io.WriteString(s.in, directives.String()); err != nil {
		return nil, fmt.Errorf("write directives: %w", err)
	}

	childCount := make(map[string]*big.Int)
	for {
		line, err := s.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		move, countStr, found := strings.Cut(line, ": ")
		if !found {
			return nil, fmt.Errorf("%w: expected move and count: %q", perft.ErrInvalidResponse, line)
		}
		if _, ok := childCount[move]; ok {
			return nil, fmt.Errorf("%w: duplicate move %q", perft.ErrInvalidResponse, move)
		}
		count, err := perft.ParseCount(countStr)
		if err != nil {
			return nil, err
		}
		childCount[move] = count
	}

	// total line, e.g. "Nodes searched: 39"; the count is the last field
	line, err := s.readLine()
	if err != nil {
		return nil, err
	}
	fields := strings.Split(line, ": ")
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: expected total count: %q", perft.ErrInvalidResponse, line)
	}
	totalCount, err := perft.ParseCount(fields[len(fields)-1])
	if err != nil {
		return nil, err
	}

	// trailing separator, resynchronizes the stream for the next query
	if _, err := s.readLine(); err != nil {
		return nil, err
	}

	return perft.NewReport(totalCount, childCount), nil
}

func (s *Stockfish) readLine() (string, error) {
	line, err := s.out.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (s *Stockfish) kill() {
	killProcessGroup(s.cmd)
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}

func (s *Stockfish) fail() {
	s.broken = true
	s.kill()
	if s.cmd != nil {
		_ = s.cmd.Wait()
		s.cmd = nil
	}
}

// Close terminates the subprocess. The backend must not be queried afterwards.
func (s *Stockfish) Close() error {
	if s.cmd == nil {
		return nil
	}
	s.kill()
	_ = s.cmd.Wait()
	s.cmd = nil
	s.broken = true
	return nil
}
