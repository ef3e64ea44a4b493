// File: errors.go
// Title: Resolution Errors
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18

package resolve

import (
	"fmt"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
	"github.com/msto63/cmdkit/foundation/engine/command"
)

func missing(p *command.Parameter) error {
	return ckerror.Newf("missing argument %s", p.Usage()).
		WithCode(ckerror.CodeMissingArguments).
		WithDetail("parameter", p.Name)
}

func invalid(p *command.Parameter, err error) error {
	return ckerror.Newf("%s: %v", p.Name, err).
		WithCode(ckerror.CodeInvalidArguments).
		WithDetail("parameter", p.Name)
}

func unsupported(kind string, p *command.Parameter) error {
	return fmt.Errorf("a %s cannot be used as %s", kind, p.Type)
}
