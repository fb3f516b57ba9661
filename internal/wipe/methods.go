package wipe

import (
	"fmt"
)

// Pattern is the fill used for one pass.
type Pattern int

const (
	PatternRandom Pattern = iota
	PatternZero
	PatternOnes
)

func (p Pattern) String() string {
	switch p {
	case PatternRandom:
		return "random data"
	case PatternZero:
		return "all zeros"
	case PatternOnes:
		return "all ones"
	default:
		return "unknown"
	}
}

// nsa recommended sequence
var nsaPatterns = []Pattern{PatternRandom, PatternZero, PatternOnes, PatternRandom}

// PassPatterns returns the fill for every pass of mode, in order. A
// non-positive standard count yields no passes.
func PassPatterns(mode Mode, passes int) []Pattern {
	if mode == ModeNSA {
		out := make([]Pattern, len(nsaPatterns))
		copy(out, nsaPatterns)
		return out
	}
	if passes <= 0 {
		return nil
	}
	out := make([]Pattern, passes)
	for i := range out {
		out[i] = PatternRandom
	}
	return out
}

// fill writes the pattern into buf. Random fills draw fresh bytes on every call.
func (p Pattern) fill(buf []byte) error {
	switch p {
	case PatternRandom:
		return FillRandom(buf)
	case PatternZero:
		FillBufferPattern(buf, 0x00)
	case PatternOnes:
		FillBufferPattern(buf, 0xFF)
	default:
		return fmt.Errorf("unknown fill pattern %d", int(p))
	}
	return nil
}

func passMessage(mode Mode, pass, total int, p Pattern) string {
	if mode == ModeNSA {
		return fmt.Sprintf("Overwriting pass %d/%d: %s...", pass, total, p)
	}
	return fmt.Sprintf("Overwriting pass %d/%d...", pass, total)
}
