package wipe

import (
	"fmt"
	"io/fs"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
)

// Error taxonomy. OS errors are marked with one of these, so errors.Is works
// while the original message is kept.
var (
	ErrNotFound           = errors.New("wipe: file not found")
	ErrPermissionDenied   = errors.New("wipe: permission denied")
	ErrInsufficientSpace  = errors.New("wipe: insufficient free space")
	ErrNoSpaceLeft        = errors.New("wipe: no space left on device")
	ErrIO                 = errors.New("wipe: i/o error")
	ErrRename             = errors.New("wipe: rename failed")
	ErrVerificationFailed = errors.New("wipe: removal not verified")
	ErrCancelled          = errors.New("wipe: cancelled")
	ErrInvalidRequest     = errors.New("wipe: invalid request")
)

// checked in this order by Kind
var kinds = []error{
	ErrInvalidRequest,
	ErrCancelled,
	ErrVerificationFailed,
	ErrRename,
	ErrNotFound,
	ErrPermissionDenied,
	ErrInsufficientSpace,
	ErrNoSpaceLeft,
	ErrIO,
}

const elevatedHint = "retry with elevated privileges (run with sudo or as root)"

// Step names the stage of the destruction that produced an error.
type Step string

const (
	StepPrecheck  Step = "precheck"
	StepOverwrite Step = "overwrite"
	StepObscure   Step = "obscure"
	StepRemove    Step = "remove"
	StepVerify    Step = "verify"
)

// StepError carries the path and step of a failure.
type StepError struct {
	Step Step
	Path string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Step, e.Path, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepError(step Step, path string, err error) error {
	return &StepError{Step: step, Path: path, Err: err}
}

// Kind returns the taxonomy sentinel err is marked with, or nil.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// ErrorStep returns the step recorded on err, if any.
func ErrorStep(err error) (Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}

// classify marks an OS error with the matching sentinel. Errors that are
// already classified are returned unchanged.
func classify(err error) error {
	if err == nil || Kind(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errors.Mark(err, ErrNotFound)
	case isPermissionError(err):
		return errors.Mark(err, ErrPermissionDenied)
	case isDiskFullError(err):
		return errors.Mark(err, ErrNoSpaceLeft)
	default:
		return errors.Mark(err, ErrIO)
	}
}

func isPermissionError(err error) bool {
	if errors.Is(err, fs.ErrPermission) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EACCES || errno == syscall.EPERM || errno == syscall.EROFS
	}
	return false
}

// isDiskFullError reports whether err means the device ran out of space.
// Some filesystems only surface it through the message text.
func isDiskFullError(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.ENOSPC {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"no space left",
		"disk full",
		"disk is full",
		"insufficient space",
		"not enough space",
		"volume full",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
