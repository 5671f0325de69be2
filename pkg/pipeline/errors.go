package pipeline

import (
	"fmt"

	"github.com/beetlebugorg/shpdump/internal/feature"
	"github.com/beetlebugorg/shpdump/internal/fsutil"
	"github.com/beetlebugorg/shpdump/internal/join"
)

// Error types raised by the stages, re-exported for errors.As checks.
type (
	ValidationError     = feature.ValidationError
	RebuildError        = feature.RebuildError
	OutputConflictError = fsutil.OutputConflictError
	JoinError           = join.JoinError
	MappingError        = join.MappingError
)

// MissingInputError reports an input path that does not exist.
type MissingInputError struct {
	Name string // input, output, other-input or mapping
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Name, e.Path)
}

// FormatError reports a dataset that cannot be read.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unreadable dataset %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Stage names a step of the per-type pipeline.
type Stage string

const (
	StageDiscover  Stage = "discover"
	StageValidate  Stage = "validate"
	StagePlan      Stage = "plan"
	StageProject   Stage = "project"
	StageSummarize Stage = "summarize"
	StageJoin      Stage = "join"
	StageRebuild   Stage = "rebuild"
	StagePersist   Stage = "persist"
	StageArchive   Stage = "archive"
	StageRender    Stage = "render"
)

// StageError locates a failure by feature-type and stage.
type StageError struct {
	TypeName string
	Stage    Stage
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("type %s: %s: %v", e.TypeName, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
