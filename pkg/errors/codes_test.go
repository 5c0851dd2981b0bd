package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "SMI_005", ErrCodeUnclosedRing.String())
}

func TestExitStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{CodeOK, ExitOK},
		{ErrCodeInternal, ExitInternal},
		{ErrCodeInvalidCharacter, ExitInput},
		{ErrCodeInvalidAST, ExitAST},
		{ErrCodeScriptRebind, ExitScript},
		{ErrorCode("UNKNOWN"), ExitInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ExitStatusForCode(tt.code), tt.code)
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "unclosed ring", DefaultMessageForCode(ErrCodeUnclosedRing))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("UNKNOWN")))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeUnexpectedToken))
	assert.True(t, IsClientError(ErrCodeScriptType))
	assert.False(t, IsClientError(ErrCodeInternal))
}

func TestIsSyntaxError(t *testing.T) {
	assert.True(t, IsSyntaxError(ErrCodeEmptyInput))
	assert.False(t, IsSyntaxError(ErrCodeInvalidPosition))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "SMI", ModuleForCode(ErrCodeInvalidAST))
	assert.Equal(t, "SCR", ModuleForCode(ErrCodeScriptSyntax))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestAllCodesHaveMessagesAndExitStatus(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	for code := range ErrorCodeMessage {
		assert.Regexp(t, pattern, string(code))
		_, ok := ErrorCodeExitStatus[code]
		assert.True(t, ok, "missing exit status for %s", code)
	}
}
