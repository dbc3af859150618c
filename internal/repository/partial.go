package repository

import (
	"errors"
	"fmt"
	"strings"
)

// PartialError reports a multi-step write that stopped partway. Steps in
// Applied took effect and are not rolled back; Failed is the step that
// returned Err.
type PartialError struct {
	Op      string
	Applied []string
	Failed  string
	Err     error
}

func (e *PartialError) Error() string {
	applied := "nothing"
	if len(e.Applied) > 0 {
		applied = strings.Join(e.Applied, ", ")
	}
	return fmt.Sprintf("%s partially applied (applied: %s; failed: %s): %v", e.Op, applied, e.Failed, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// IsPartial reports whether err (or any error in its chain) is a
// PartialError.
func IsPartial(err error) bool {
	var target *PartialError
	return errors.As(err, &target)
}

// steps records the progress of a multi-step write.
type steps struct {
	op      string
	applied []string
}

func (s *steps) done(step string) {
	s.applied = append(s.applied, step)
}

func (s *steps) fail(step string, err error) *PartialError {
	return &PartialError{
		Op:      s.op,
		Applied: append([]string(nil), s.applied...),
		Failed:  step,
		Err:     err,
	}
}
