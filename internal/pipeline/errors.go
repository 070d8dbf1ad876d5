package pipeline

import (
	"errors"
	"fmt"
)

// Stage names the workflow step that failed.
type Stage string

const (
	StageStore    Stage = "storage"
	StageClassify Stage = "classification"
	StageExtract  Stage = "ocr"
	StageParse    Stage = "parse"
	StagePersist  Stage = "persist"
)

// ErrNoText marks an extraction that finished without usable text.
var ErrNoText = errors.New("no text extracted")

// StageError is the terminal failure of one submission.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage of a StageError anywhere in err's chain.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
