package errors

import (
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal        ErrorCode = "COMMON_001"
	ErrCodeBadRequest      ErrorCode = "COMMON_002"
	ErrCodeNotFound        ErrorCode = "COMMON_005"
	ErrCodeTimeout         ErrorCode = "COMMON_009"
	ErrCodeValidation      ErrorCode = "COMMON_010"
	ErrCodeSerialization   ErrorCode = "COMMON_011"
	ErrCodeCacheError      ErrorCode = "COMMON_013"
	ErrCodeExternalService ErrorCode = "COMMON_014"
	ErrCodeConfig          ErrorCode = "COMMON_017"
)

// Aliases used at call sites that predate the module-prefixed names.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// SMILES Module Error Codes
const (
	ErrCodeInvalidCharacter   ErrorCode = "SMI_001"
	ErrCodeUnclosedBracket    ErrorCode = "SMI_002"
	ErrCodeInvalidRingEscape  ErrorCode = "SMI_003"
	ErrCodeUnbalancedBranches ErrorCode = "SMI_004"
	ErrCodeUnclosedRing       ErrorCode = "SMI_005"
	ErrCodeUnexpectedToken    ErrorCode = "SMI_006"
	ErrCodeInvalidPosition    ErrorCode = "SMI_007"
	ErrCodeInvalidAST         ErrorCode = "SMI_008"
	ErrCodeTooManyRings       ErrorCode = "SMI_009"
	ErrCodeEmptyInput         ErrorCode = "SMI_010"
	ErrCodeInvalidRingNumber  ErrorCode = "SMI_011"
	ErrCodeInvalidBond        ErrorCode = "SMI_012"
	ErrCodeUnsupportedForm    ErrorCode = "SMI_013"
)

// Build-script Module Error Codes
const (
	ErrCodeScriptSyntax  ErrorCode = "SCR_001"
	ErrCodeScriptUnbound ErrorCode = "SCR_002"
	ErrCodeScriptRebind  ErrorCode = "SCR_003"
	ErrCodeScriptType    ErrorCode = "SCR_004"
	ErrCodeScriptCall    ErrorCode = "SCR_005"
)

// Process exit statuses used by the CLI.
const (
	ExitOK       = 0
	ExitInternal = 1
	ExitInput    = 2
	ExitAST      = 3
	ExitScript   = 4
)

// ErrorCodeExitStatus maps error codes to CLI exit statuses.
var ErrorCodeExitStatus = map[ErrorCode]int{
	CodeOK: ExitOK,

	ErrCodeInternal:        ExitInternal,
	ErrCodeBadRequest:      ExitInput,
	ErrCodeNotFound:        ExitInput,
	ErrCodeTimeout:         ExitInternal,
	ErrCodeValidation:      ExitInput,
	ErrCodeSerialization:   ExitInput,
	ErrCodeCacheError:      ExitInternal,
	ErrCodeExternalService: ExitInternal,
	ErrCodeConfig:          ExitInput,

	ErrCodeInvalidCharacter:   ExitInput,
	ErrCodeUnclosedBracket:    ExitInput,
	ErrCodeInvalidRingEscape:  ExitInput,
	ErrCodeUnbalancedBranches: ExitInput,
	ErrCodeUnclosedRing:       ExitInput,
	ErrCodeUnexpectedToken:    ExitInput,
	ErrCodeEmptyInput:         ExitInput,
	ErrCodeInvalidPosition:    ExitAST,
	ErrCodeInvalidAST:         ExitAST,
	ErrCodeTooManyRings:       ExitAST,
	ErrCodeInvalidRingNumber:  ExitAST,
	ErrCodeInvalidBond:        ExitAST,
	ErrCodeUnsupportedForm:    ExitAST,

	ErrCodeScriptSyntax:  ExitScript,
	ErrCodeScriptUnbound: ExitScript,
	ErrCodeScriptRebind:  ExitScript,
	ErrCodeScriptType:    ExitScript,
	ErrCodeScriptCall:    ExitScript,
}

// ErrorCodeMessage maps error codes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:        "internal error",
	ErrCodeBadRequest:      "bad request",
	ErrCodeNotFound:        "resource not found",
	ErrCodeTimeout:         "operation timed out",
	ErrCodeValidation:      "validation failed",
	ErrCodeSerialization:   "serialization failed",
	ErrCodeCacheError:      "cache error",
	ErrCodeExternalService: "external service error",
	ErrCodeConfig:          "invalid configuration",

	ErrCodeInvalidCharacter:   "invalid character",
	ErrCodeUnclosedBracket:    "unclosed bracket atom",
	ErrCodeInvalidRingEscape:  "invalid %nn ring escape",
	ErrCodeUnbalancedBranches: "unbalanced branches",
	ErrCodeUnclosedRing:       "unclosed ring",
	ErrCodeUnexpectedToken:    "unexpected token",
	ErrCodeInvalidPosition:    "position out of range",
	ErrCodeInvalidAST:         "ill-formed structure",
	ErrCodeTooManyRings:       "ring numbers exhausted",
	ErrCodeEmptyInput:         "empty input",
	ErrCodeInvalidRingNumber:  "invalid ring number",
	ErrCodeInvalidBond:        "invalid bond symbol",
	ErrCodeUnsupportedForm:    "operation not supported for this form",

	ErrCodeScriptSyntax:  "build script syntax error",
	ErrCodeScriptUnbound: "unbound name",
	ErrCodeScriptRebind:  "name already bound",
	ErrCodeScriptType:    "argument type mismatch",
	ErrCodeScriptCall:    "call failed",
}

// ExitStatusForCode returns the CLI exit status for an ErrorCode.
func ExitStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeExitStatus[code]; ok {
		return status
	}
	return ExitInternal
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsSyntaxError reports whether the code is raised by the tokenizer or parser.
func IsSyntaxError(code ErrorCode) bool {
	switch code {
	case ErrCodeInvalidCharacter, ErrCodeUnclosedBracket, ErrCodeInvalidRingEscape,
		ErrCodeUnbalancedBranches, ErrCodeUnclosedRing, ErrCodeUnexpectedToken, ErrCodeEmptyInput:
		return true
	}
	return false
}

// IsClientError returns true if the code describes bad caller input rather than
// an internal failure.
func IsClientError(code ErrorCode) bool {
	status := ExitStatusForCode(code)
	return status >= ExitInput
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

