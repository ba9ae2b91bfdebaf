// statscmd.go - rrlog stats: per-kind entry/byte totals

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	rr "github.com/skydiator/qemu-rr"
)

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: rrlog stats <log-file>")
	}

	log, err := rr.OpenReplayLog(fs.Arg(0))
	if err != nil {
		return err
	}
	defer log.Close(rr.ProgramPoint{})

	for {
		_, err := log.ReadItem()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "file size: %d bytes, %d items, %d bytes decoded\n",
		log.Size(), log.ItemNumber(), log.BytesRead())
	log.Stats().Report(os.Stdout)
	return nil
}
