package shader

import (
	"fmt"

	"github.com/gogpu/naga"
)

// CompileStage names the step of program compilation that failed.
type CompileStage string

const (
	// StagePreprocess covers annotation parsing and entry point discovery.
	StagePreprocess CompileStage = "preprocess"

	// StageValidate covers WGSL parsing, lowering and IR validation.
	StageValidate CompileStage = "validate"

	// StageBackend covers module and pipeline creation inside a renderer backend.
	StageBackend CompileStage = "backend"
)

// CompileError reports a failed program compilation. It names the program and the exact feature
// combination so a broken permutation can be reproduced.
type CompileError struct {
	Program  string
	Features FeatureSet
	Stage    CompileStage
	Err      error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader %q with features %s failed at %s: %v", e.Program, e.Features, e.Stage, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Validate runs WGSL source through the pure Go naga front end (parse and lower). With strict
// set, the lowered IR is also checked by the naga validator.
//
// Parameters:
//   - source: processed WGSL source
//   - strict: also run IR validation
//
// Returns:
//   - error: the first parse, lowering or validation error, or nil
func Validate(source string, strict bool) error {
	ast, err := naga.Parse(source)
	if err != nil {
		return err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return fmt.Errorf("lowering: %w", err)
	}
	if !strict {
		return nil
	}
	issues, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	if len(issues) > 0 {
		return fmt.Errorf("validation: %w", issues[0])
	}
	return nil
}
