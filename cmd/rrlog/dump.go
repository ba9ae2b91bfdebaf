// dump.go - rrlog dump: print every decoded entry of a log

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	rr "github.com/skydiator/qemu-rr"
)

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: rrlog dump <log-file>")
	}

	log, err := rr.OpenReplayLog(fs.Arg(0))
	if err != nil {
		return err
	}
	defer log.Close(rr.ProgramPoint{})

	fmt.Printf("header last PP: %s\n", log.LastProgramPoint())
	n := 0
	for {
		e, err := log.ReadItem()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		printEntry(n, e)
		n++
	}
	fmt.Printf("%d entries\n", n)
	return nil
}

func printEntry(n int, e *rr.Entry) {
	fmt.Printf("%6d  %-18s %-18s callsite=%s", n, e.PP, e.Kind, rr.CallsiteName(e.Callsite))
	switch e.Kind {
	case rr.KindInput1, rr.KindInput2, rr.KindInput4, rr.KindInput8, rr.KindInterruptRequest, rr.KindExitRequest:
		fmt.Printf(" value=%#x", e.Value)
	case rr.KindSkippedCall:
		fmt.Printf(" %s", describeSkipped(e.Skipped))
	}
	fmt.Println()
}

func describeSkipped(args rr.SkippedCallArgs) string {
	switch a := args.(type) {
	case rr.CPUMemRWArgs:
		return fmt.Sprintf("CPU_MEM_RW addr=%#x len=%d", a.Addr, len(a.Buf))
	case rr.CPUMemUnmapArgs:
		return fmt.Sprintf("CPU_MEM_UNMAP addr=%#x len=%d", a.Addr, len(a.Buf))
	case rr.MemRegionChangeArgs:
		return fmt.Sprintf("MEM_REGION_CHANGE name=%q added=%v mtype=%s start=%#x size=%#x", a.Name, a.Added, a.MType, a.Start, a.Size)
	case rr.HDTransferArgs:
		return fmt.Sprintf("HD_TRANSFER type=%d src=%#x dst=%#x bytes=%d", a.Type, a.Src, a.Dst, a.NumBytes)
	case rr.NetTransferArgs:
		return fmt.Sprintf("NET_TRANSFER type=%d src=%#x dst=%#x bytes=%d", a.Type, a.Src, a.Dst, a.NumBytes)
	case rr.HandlePacketArgs:
		return fmt.Sprintf("HANDLE_PACKET direction=%d size=%d", a.Direction, len(a.Buf))
	default:
		return "?"
	}
}
