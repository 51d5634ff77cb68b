// Package diag implements the typed diagnostic errors every compiler stage
// reports: a short technical Error() string plus a longer formatted message
// meant for a human reader, with an optional wrapped cause so errors.Is/
// errors.As still see through to the underlying failure.
package diag

import (
	"fmt"

	"github.com/dekarrin/rosed"
)

// Stage tags which compiler phase raised a Diagnostic.
type Stage string

const (
	StageLex    Stage = "lexical"
	StageParse  Stage = "syntactic"
	StageImport Stage = "import"
	// f-string snippets are re-parses, so normalization failures surface
	// under the syntactic tag rather than a stage of their own.
	StageNormalize Stage = "syntactic"
	StageAnalyze   Stage = "semantic"
	StageCodegen   Stage = "internal"
)

// Diagnostic is an error attributable to a specific source position and
// compiler stage.
type Diagnostic struct {
	Filename string
	Line     int
	Stage    Stage
	msg      string
	wrap     error
}

func (d *Diagnostic) Error() string {
	if d.Filename == "" {
		return fmt.Sprintf("%s: %s", d.Stage, d.msg)
	}
	return fmt.Sprintf("%s:%d: %s: %s", d.Filename, d.Line, d.Stage, d.msg)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (d *Diagnostic) Unwrap() error {
	return d.wrap
}

// Pretty renders a longer, word-wrapped form suitable for a CLI to print
// directly to a terminal.
func (d *Diagnostic) Pretty(width int) string {
	if width <= 0 {
		width = 80
	}
	return rosed.Edit(d.Error()).Wrap(width).String()
}

// New creates a Diagnostic at the given position and stage.
func New(filename string, line int, stage Stage, format string, a ...interface{}) error {
	return &Diagnostic{
		Filename: filename,
		Line:     line,
		Stage:    stage,
		msg:      fmt.Sprintf(format, a...),
	}
}

// Wrap creates a Diagnostic that wraps an underlying error, preserving it for
// errors.Is/errors.As while still presenting its own stage-tagged message.
func Wrap(err error, filename string, line int, stage Stage, format string, a ...interface{}) error {
	return &Diagnostic{
		Filename: filename,
		Line:     line,
		Stage:    stage,
		msg:      fmt.Sprintf(format, a...),
		wrap:     err,
	}
}
