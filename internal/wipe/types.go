package wipe

import (
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
)

// Mode selects the overwrite algorithm.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeNSA      Mode = "nsa"
)

const (
	MinPasses = 1
	MaxPasses = 10

	nsaPasses = 4
)

// EffectivePasses returns the number of passes the mode actually performs.
// The configured count only matters in standard mode.
func (m Mode) EffectivePasses(passes int) int {
	if m == ModeNSA {
		return nsaPasses
	}
	return passes
}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	switch m {
	case ModeStandard, ModeNSA:
		return m, nil
	default:
		return "", errors.Newf("unsupported wipe mode: %q", s)
	}
}

// Request is one destruction batch.
type Request struct {
	Paths  []string
	Passes int
	Mode   Mode
}

// EffectivePasses is the per-file pass count, uniform across the batch.
func (r Request) EffectivePasses() int {
	return r.Mode.EffectivePasses(r.Passes)
}

// Validate checks the request before any file is touched.
func (r Request) Validate() error {
	if len(r.Paths) == 0 {
		return errors.New("no files to destroy")
	}
	if err := checkPasses(r.Mode, r.Passes); err != nil {
		return err
	}
	for _, p := range r.Paths {
		if !filepath.IsAbs(p) {
			return errors.Newf("path is not absolute: %s", p)
		}
	}
	return nil
}

// checkPasses rejects an unknown mode or a standard-mode pass count outside
// MinPasses..MaxPasses. The error is marked ErrInvalidRequest.
func checkPasses(mode Mode, passes int) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return errors.Mark(err, ErrInvalidRequest)
	}
	if mode == ModeStandard && (passes < MinPasses || passes > MaxPasses) {
		return errors.Mark(
			errors.Newf("passes must be between %d and %d, got %d", MinPasses, MaxPasses, passes),
			ErrInvalidRequest)
	}
	return nil
}

// PrecheckResult describes a file that is ready to be destroyed.
type PrecheckResult struct {
	Path     string
	Size     int64
	Free     uint64
	Required uint64
	Symlink  bool
}

// State is a step of the per-file state machine.
type State int

const (
	StatePending State = iota
	StatePrechecking
	StateOverwriting
	StateObscuring
	StateRemoving
	StateDestroyed
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePrechecking:
		return "prechecking"
	case StateOverwriting:
		return "overwriting"
	case StateObscuring:
		return "obscuring"
	case StateRemoving:
		return "removing"
	case StateDestroyed:
		return "destroyed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// FileOutcome is the terminal result for one file.
type FileOutcome struct {
	Index     int
	Path      string
	FinalPath string // renamed path, equal to Path when obscuring failed or never ran
	State     State
	Err       error
	Warnings  []string
	Verified  bool // removal confirmed by a post-unlink existence check
}

// BatchSummary aggregates the outcomes of a batch.
type BatchSummary struct {
	Total     int
	Destroyed int
	Failed    int
	Cancelled int
	Outcomes  []FileOutcome
	Started   time.Time
	Finished  time.Time
}

func (s *BatchSummary) add(o FileOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.State {
	case StateDestroyed:
		s.Destroyed++
	case StateCancelled:
		s.Cancelled++
	default:
		s.Failed++
	}
}
