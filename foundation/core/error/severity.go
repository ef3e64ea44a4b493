// File: severity.go
// Title: Error Severity Levels
// Description: Severity levels used to pick the log level of a failure.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-18

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow is a user mistake such as a typo or a bad argument
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// GetSeverityFromCode determines the default severity for an error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeTokenParse, CodeLineTooLong, CodeCommandNotFound, CodeChannelDisabled,
		CodeUnknownOverload, CodeMissingArguments, CodeInvalidArguments:
		return SeverityLow
	case CodeMissingPermission, CodeTimeout:
		return SeverityMedium
	case CodeExecution, CodeInstanceResolution, CodeDatabaseError,
		CodeInvalidDescriptor, CodeDuplicateCommand, CodeInvalidConfig, CodeMissingConfig, CodeConfigError:
		return SeverityHigh
	case CodeInternal:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}
