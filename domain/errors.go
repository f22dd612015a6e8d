package domain

import (
	"errors"
	"fmt"
)

// Stage identifies one pipeline step for error attribution and progress
// reporting.
type Stage string

const (
	StageIntake    Stage = "intake"
	StageAnalysis  Stage = "analysis"
	StagePlan      Stage = "plan"
	StageScript    Stage = "script"
	StageReview    Stage = "review"
	StageSynthesis Stage = "synthesis"
	StageCaptions  Stage = "captions"
	StageAlignment Stage = "alignment"
	StageRender    Stage = "render"
	StagePackage   Stage = "package"
)

// Error kinds. Validation errors are never retried; transient errors are
// retried with backoff inside adapters and become fatal after max attempts.
var (
	ErrValidation      = errors.New("validation error")
	ErrTransient       = errors.New("transient service error")
	ErrQualityRejected = errors.New("quality gate rejected script")
	ErrRender          = errors.New("render error")
)

// StageError wraps a stage failure with the identity of the failing stage so
// the top-level error always names which stage failed and why.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// WrapStage attaches stage identity to err, preserving an existing
// StageError rather than double-wrapping.
func WrapStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// ValidationErrorf builds a non-retryable input error.
func ValidationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// TransientErrorf builds a retryable service error.
func TransientErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrTransient}, args...)...)
}
