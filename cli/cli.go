package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/agausmann/perftree/session"
)

const defaultPrompt = "> "

// Options configure the command loop. A zero Timeout disables the per-query
// bound; Verbose logs a timing summary for every diff to stderr.
type Options struct {
	Prompt  string
	Timeout time.Duration
	Verbose bool
}

// Interface is the line-oriented front end: one command per input line, a
// case-sensitive keyword followed by whitespace-separated arguments.
type Interface struct {
	session *session.Session
	options Options

	in  io.Reader
	out io.Writer
	err io.Writer
}

func NewInterface(sess *session.Session, options Options) *Interface {
	if options.Prompt == "" {
		options.Prompt = defaultPrompt
	}
	return &Interface{
		session: sess,
		options: options,
		in:      os.Stdin,
		out:     os.Stdout,
		err:     os.Stderr,
	}
}

func (i *Interface) Run() error {
	reader := bufio.NewReader(i.in)
	for {
		i.printPrompt()
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF

		if args := strings.Fields(line); len(args) > 0 {
			switch cmd := args[0]; cmd {
			case "fen":
				if len(args) == 1 {
					fmt.Fprintln(i.out, i.session.Fen())
				} else {
					i.session.SetFen(strings.Join(args[1:], " "))
				}
			case "moves":
				if len(args) == 1 {
					fmt.Fprintln(i.out, strings.Join(i.session.Moves(), " "))
				} else {
					i.session.SetMoves(args[1:])
				}
			case "depth":
				if len(args) == 1 {
					fmt.Fprintln(i.out, i.session.Depth())
				} else {
					i.commandSetDepth(args[1])
				}
			case "root":
				i.session.Root()
			case "parent", "unmove":
				i.session.Parent()
			case "child", "move":
				if len(args) < 2 {
					fmt.Fprintln(i.err, "missing argument, expected a child move")
				} else {
					i.session.Child(args[1])
				}
			case "diff":
				i.commandDiff()
			case "chess960":
				i.session.SetChess960(true)
			case "nochess960":
				i.session.SetChess960(false)
			case "exit", "quit":
				return nil
			default:
				fmt.Fprintf(i.err, "unknown command %q\n", cmd)
			}
		}

		if eof {
			return nil
		}
	}
}

func (i *Interface) commandSetDepth(arg string) {
	depth, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintln(i.err, "cannot parse given depth:", err)
		return
	}
	if depth < 0 {
		fmt.Fprintln(i.err, "depth must be non-negative")
		return
	}
	i.session.SetDepth(depth)
}

func (i *Interface) commandDiff() {
	ctx := context.Background()
	if i.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.options.Timeout)
		defer cancel()
	}

	start := time.Now()
	d, err := i.session.Diff(ctx)
	if err != nil {
		fmt.Fprintln(i.err, "cannot compute diff:", err)
		return
	}
	if err := d.WriteColored(i.out); err != nil {
		fmt.Fprintln(i.err, "cannot render diff:", err)
		return
	}

	if i.options.Verbose {
		lhs, rhs := d.TotalCount()
		_, _ = message.NewPrinter(language.English).
			Fprintf(i.err, "d=%d nodes=%v/%v (%.3fs elapsed)\n",
				i.session.Depth()-len(i.session.Moves()), lhs, rhs, time.Since(start).Seconds())
	}
}

// printPrompt writes the prompt only for interactive sessions: stdin must be
// a terminal, and the prompt goes to stdout when that is a terminal too,
// falling back to stderr so redirected output stays clean.
func (i *Interface) printPrompt() {
	stdin, ok := i.in.(*os.File)
	if !ok || !isatty.IsTerminal(stdin.Fd()) {
		return
	}
	if stdout, ok := i.out.(*os.File); ok && isatty.IsTerminal(stdout.Fd()) {
		fmt.Fprint(i.out, i.options.Prompt)
	} else if stderr, ok := i.err.(*os.File); ok && isatty.IsTerminal(stderr.Fd()) {
		fmt.Fprint(i.err, i.options.Prompt)
	}
}
