// verify.go - rrlog verify: check a log against the testable invariants

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	lua "github.com/yuin/gopher-lua"
	rr "github.com/skydiator/qemu-rr"
)

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	policyPath := fs.String("policy", "", "optional Lua script with a global check(pp_instr, kind, callsite) function for extra checks")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: rrlog verify [-policy script.lua] <log-file>")
	}

	var L *lua.LState
	if *policyPath != "" {
		L = lua.NewState()
		defer L.Close()
		if err := L.DoFile(*policyPath); err != nil {
			return fmt.Errorf("loading policy script: %w", err)
		}
	}

	log, err := rr.OpenReplayLog(fs.Arg(0))
	if err != nil {
		return err
	}
	defer log.Close(rr.ProgramPoint{})

	v := newVerifier(log.LastProgramPoint())
	n := 0
	for {
		e, err := log.ReadItem()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		v.check(e)
		if L != nil {
			if err := runPolicy(L, e); err != nil {
				v.violations = append(v.violations, err.Error())
			}
		}
		n++
	}
	if err := v.finish(n); err != nil {
		v.violations = append(v.violations, err.Error())
	}

	if len(v.violations) == 0 {
		fmt.Printf("rrlog verify: %d entries, no violations\n", n)
		return nil
	}
	for _, msg := range v.violations {
		fmt.Fprintf(os.Stderr, "violation: %s\n", msg)
	}
	return fmt.Errorf("%d violation(s)", len(v.violations))
}

// verifier walks a decoded entry stream checking the testable invariants
// named in spec.md §8 that hold structurally over the whole log, without
// needing a live replay: monotone PPs, interrupt compaction, nonzero
// exits, and a single trailing LAST.
type verifier struct {
	headerLast rr.ProgramPoint

	sawAny         bool
	prevPP         rr.ProgramPoint
	sawLast        bool
	lastWasFinal   bool
	lastInterrupt  uint64
	haveInterrupt  bool
	violations     []string
}

func newVerifier(headerLast rr.ProgramPoint) *verifier {
	return &verifier{headerLast: headerLast}
}

func (v *verifier) check(e *rr.Entry) {
	if v.sawLast {
		v.violations = append(v.violations, fmt.Sprintf("entry after LAST at %s", e.PP))
	}
	if v.sawAny && e.PP.Compare(v.prevPP) < 0 {
		v.violations = append(v.violations, fmt.Sprintf("PP went backwards: %s after %s", e.PP, v.prevPP))
	}
	v.prevPP = e.PP
	v.sawAny = true

	switch e.Kind {
	case rr.KindInterruptRequest:
		if v.haveInterrupt && v.lastInterrupt == e.Value {
			v.violations = append(v.violations, fmt.Sprintf("consecutive INTERRUPT_REQUEST with same value %#x at %s", e.Value, e.PP))
		}
		v.lastInterrupt = e.Value
		v.haveInterrupt = true
	case rr.KindExitRequest:
		if e.Value == 0 {
			v.violations = append(v.violations, fmt.Sprintf("EXIT_REQUEST with value 0 at %s", e.PP))
		}
	case rr.KindLast:
		v.sawLast = true
		v.lastWasFinal = e.PP.Compare(v.headerLast) == 0
	}
}

func (v *verifier) finish(n int) error {
	if n == 0 {
		return nil
	}
	if !v.sawLast {
		return errors.New("log does not end with a LAST entry")
	}
	if !v.lastWasFinal {
		return fmt.Errorf("LAST entry PP %s does not match header last PP %s", v.prevPP, v.headerLast)
	}
	return nil
}

// runPolicy invokes the optional Lua check function on one entry. The
// script sees the program point's instruction count, the kind name, and
// the call-site name; it signals a violation by returning a non-empty
// string from check().
func runPolicy(L *lua.LState, e *rr.Entry) error {
	fn := L.GetGlobal("check")
	if fn.Type() != lua.LTFunction {
		return nil
	}
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LNumber(e.PP.Instr), lua.LString(e.Kind.String()), lua.LString(rr.CallsiteName(e.Callsite)),
	); err != nil {
		return fmt.Errorf("policy script error: %w", err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	if s, ok := ret.(lua.LString); ok && string(s) != "" {
		return fmt.Errorf("policy: %s", string(s))
	}
	return nil
}
