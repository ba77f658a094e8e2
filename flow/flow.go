// Package flow holds pure helpers the explorer uses to reason about the
// shape of a run: is it stuck, is it back where it started, how often a
// screen has been seen. Everything here is a function over passed-in
// data; no state.
package flow

import (
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
)

// StuckThreshold is how many consecutive no-effect actions mean the run
// needs caller intervention.
const StuckThreshold = 3

// ConsecutiveDuplicates counts the trailing run of no-effect actions,
// scanning from the end and stopping at the first effective one.
func ConsecutiveDuplicates(log []exploration.ActionRecord) int {
	n := 0
	for i := len(log) - 1; i >= 0; i-- {
		if !log[i].WasDuplicate {
			break
		}
		n++
	}
	return n
}

// IsStuck reports whether the trailing duplicate run reached the
// threshold.
func IsStuck(log []exploration.ActionRecord) bool {
	return ConsecutiveDuplicates(log) >= StuckThreshold
}

// IsBackAtStart reports whether the current screen is the start screen
// again. A single observation cannot establish a cycle, so any
// screenCount below 2 is false regardless of element equality.
func IsBackAtStart(eng *fingerprint.Engine, current, start []screen.Element, screenCount int) bool {
	if screenCount < 2 {
		return false
	}
	if eng == nil {
		eng = fingerprint.NewEngine()
	}
	return eng.Equal(eng.Extract(current, nil), eng.Extract(start, nil))
}

// VisitCount counts how many captured screens match the current one.
func VisitCount(eng *fingerprint.Engine, current []screen.Element, screens []exploration.ExploredScreen) int {
	if eng == nil {
		eng = fingerprint.NewEngine()
	}
	fp := eng.Extract(current, nil)
	n := 0
	for _, s := range screens {
		if eng.Equal(eng.Extract(s.Elements, nil), fp) {
			n++
		}
	}
	return n
}
