// File: codes.go
// Title: Error Code Definitions
// Description: Error codes shared by the tokenizer, resolvers, registry and
//              runners. Codes travel with failure responses so hosts can react
//              to a failure class without parsing message text.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-18 v0.2.0: Command engine taxonomy

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	CodeUnknown  Code = "UNKNOWN"
	CodeInternal Code = "INTERNAL"
	CodeTimeout  Code = "TIMEOUT"

	// Detected before invocation, no side effects have happened
	CodeTokenParse         Code = "TOKEN_PARSE"
	CodeLineTooLong        Code = "LINE_TOO_LONG"
	CodeCommandNotFound    Code = "COMMAND_NOT_FOUND"
	CodeChannelDisabled    Code = "CHANNEL_DISABLED"
	CodeUnknownOverload    Code = "UNKNOWN_OVERLOAD"
	CodeMissingArguments   Code = "MISSING_ARGS"
	CodeInvalidArguments   Code = "INVALID_ARGS"
	CodeMissingPermission  Code = "MISSING_PERMISSION"
	CodeInstanceResolution Code = "INSTANCE_RESOLUTION"

	// Raised by the operation body
	CodeExecution Code = "EXECUTION"

	// Registration
	CodeInvalidDescriptor Code = "INVALID_DESCRIPTOR"
	CodeDuplicateCommand  Code = "DUPLICATE_COMMAND"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeMissingConfig Code = "MISSING_CONFIG"
	CodeInvalidConfig Code = "INVALID_CONFIG"

	// Persistence
	CodeDatabaseError Code = "DATABASE_ERROR"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeTokenParse, CodeLineTooLong:
		return "syntax"
	case CodeCommandNotFound, CodeChannelDisabled, CodeUnknownOverload:
		return "lookup"
	case CodeMissingArguments, CodeInvalidArguments:
		return "arguments"
	case CodeMissingPermission:
		return "permission"
	case CodeInstanceResolution, CodeExecution, CodeTimeout:
		return "execution"
	case CodeInvalidDescriptor, CodeDuplicateCommand:
		return "registration"
	case CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return "configuration"
	case CodeDatabaseError:
		return "database"
	default:
		return "generic"
	}
}

// PreInvocation reports whether the code belongs to a failure that is
// detected before any operation body runs.
func (c Code) PreInvocation() bool {
	switch c {
	case CodeTokenParse, CodeLineTooLong, CodeCommandNotFound, CodeChannelDisabled,
		CodeUnknownOverload, CodeMissingArguments, CodeInvalidArguments,
		CodeMissingPermission, CodeInstanceResolution:
		return true
	default:
		return false
	}
}
