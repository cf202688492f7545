package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math/big"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/agausmann/perftree/perft"
)

// Script implements perft.Engine by running an external program once per
// query. The program is invoked with the relative depth, the position
// descriptor, and, when the move path is non-empty, the path joined by spaces
// as a single third argument. Its stderr is streamed through to our stderr;
// its stdout must follow the grammar parsed by parseScriptOutput.
type Script struct {
	cmd string
}

func NewScript(cmd string) *Script {
	return &Script{
		cmd: cmd,
	}
}

func (s *Script) Perft(ctx context.Context, fen string, moves []string, depth int) (*perft.Report, error) {
	args := []string{strconv.Itoa(depth), fen}
	if len(moves) > 0 {
		args = append(args, strings.Join(moves, " "))
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, s.cmd, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr
	// the script usually execs an engine of its own; run it in a dedicated
	// process group so cancellation kills the whole tree, not just the
	// direct child, and the stdout pipe actually closes
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("run %s: %w", s.cmd, err)
	}

	return parseScriptOutput(stdout.Bytes())
}

// parseScriptOutput reads move/count rows until a blank line, then the total
// count. Lines after the total are ignored.
func parseScriptOutput(out []byte) (*perft.Report, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))

	childCount := make(map[string]*big.Int)
	for {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: unexpected end of output", perft.ErrInvalidResponse)
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: expected move and count: %q", perft.ErrInvalidResponse, line)
		}
		move := fields[0]
		if _, ok := childCount[move]; ok {
			return nil, fmt.Errorf("%w: duplicate move %q", perft.ErrInvalidResponse, move)
		}
		count, err := perft.ParseCount(fields[1])
		if err != nil {
			return nil, err
		}
		childCount[move] = count
	}

	if !scanner.Scan() {
		return nil, fmt.Errorf("%w: missing total count", perft.ErrInvalidResponse)
	}
	totalCount, err := perft.ParseCount(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return nil, err
	}

	return perft.NewReport(totalCount, childCount), nil
}
