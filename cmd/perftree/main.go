package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/agausmann/perftree/cli"
	"github.com/agausmann/perftree/engine"
	"github.com/agausmann/perftree/session"
)

const (
	exitOK = iota
	exitErr
)

var (
	enginePath = flag.String("engine", "stockfish", "reference engine executable")
	timeout    = flag.Int("timeout", 0, "per-query timeout in seconds, 0 to disable")
	verbose    = flag.Bool("verbose", false, "log query timing to stderr")
)

func main() {
	flag.Parse()

	err := realMain(flag.Args())
	if err != nil {
		log.Println(err)
		os.Exit(exitErr)
	}
	os.Exit(exitOK)
}

func realMain(args []string) error {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <script>\n", os.Args[0])
		flag.PrintDefaults()
		return fmt.Errorf("missing script argument")
	}

	reference, err := engine.NewStockfish(*enginePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = reference.Close()
	}()

	sess := session.NewSession(engine.NewScript(args[0]), reference)
	return cli.NewInterface(sess, cli.Options{
		Timeout: time.Duration(*timeout) * time.Second,
		Verbose: *verbose,
	}).Run()
}
