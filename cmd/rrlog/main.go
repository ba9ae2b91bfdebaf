// main.go - rrlog: inspect, verify, and demo non-deterministic event logs

package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rrlog <command> [options] <log-file>\n\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  dump    print every decoded entry\n")
		fmt.Fprintf(os.Stderr, "  stats   print per-kind entry/byte counts\n")
		fmt.Fprintf(os.Stderr, "  verify  check the log against the testable invariants\n")
		fmt.Fprintf(os.Stderr, "  demo    record and replay a small in-memory session\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  rrlog dump session-rr-nondet.log\n")
		fmt.Fprintf(os.Stderr, "  rrlog verify -policy check.lua session-rr-nondet.log\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "dump":
		err = runDump(args)
	case "stats":
		err = runStats(args)
	case "verify":
		err = runVerify(args)
	case "demo":
		err = runDemo(args)
	case "-h", "--help", "help":
		flag.Usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "rrlog: unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "rrlog %s: error: %v\n", cmd, err)
		os.Exit(1)
	}
}

// logDirFallback returns the -dir flag value if set, else RR_LOG_DIR from
// the environment, else "." — the same env-var-with-default pattern
// runtime_ipc.go's resolveSocketPath uses for XDG_RUNTIME_DIR.
func logDirFallback(dirFlag string) string {
	if dirFlag != "" {
		return dirFlag
	}
	if dir := os.Getenv("RR_LOG_DIR"); dir != "" {
		return dir
	}
	return "."
}
