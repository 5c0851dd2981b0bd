// Package errors_test covers the AppError type, its factory functions and the
// error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"unclosed ring", errors.ErrCodeUnclosedRing, "ring 1 is never closed"},
		{"invalid param", errors.CodeInvalidParam, "SMILES must not be empty"},
		{"script", errors.ErrCodeScriptUnbound, "v9 is not bound"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Equal(t, errors.NoOffset, ae.Offset)
			assert.Empty(t, ae.Detail, "Detail should be empty for bare New()")
			assert.Nil(t, ae.Cause, "Cause should be nil for bare New()")
		})
	}
}

func TestNewAt_CarriesOffset(t *testing.T) {
	t.Parallel()

	ae := errors.NewAt(errors.ErrCodeInvalidCharacter, 3, "unexpected '.'")
	assert.Equal(t, 3, ae.Offset)
	assert.Contains(t, ae.Error(), "(offset 3)")

	off, ok := errors.GetOffset(ae)
	assert.True(t, ok)
	assert.Equal(t, 3, off)
}

func TestNewf_FormatsMessage(t *testing.T) {
	t.Parallel()

	ae := errors.Newf(errors.ErrCodeInvalidPosition, "position %d outside 1..%d", 7, 6)
	assert.Equal(t, "position 7 outside 1..6", ae.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	result := errors.Wrap(nil, errors.CodeInternal, "should not matter")
	assert.Nil(t, result)
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("dial tcp: connection refused")
	wrapped := errors.Wrap(root, errors.ErrCodeCacheError, "redis unreachable")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeCacheError, wrapped.Code)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
}

func TestWrap_PreservesCodeAndOffsetWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.NewAt(errors.ErrCodeUnexpectedToken, 5, "bond before ')'")
	outer := errors.Wrap(inner, errors.CodeUnknown, "parsing fragment")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeUnexpectedToken, outer.Code)
	assert.Equal(t, 5, outer.Offset)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeInvalidAST, "bad layout")
	outer := errors.Wrap(inner, errors.ErrCodeScriptCall, "FusedRing failed")

	assert.Equal(t, errors.ErrCodeScriptCall, outer.Code)
	assert.True(t, errors.IsCode(outer, errors.ErrCodeInvalidAST))
}

// ─────────────────────────────────────────────────────────────────────────────
// TestError_Method
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  *errors.AppError
		want string
	}{
		{"plain", errors.New(errors.ErrCodeEmptyInput, "empty input"), "[SMI_010] empty input"},
		{"detail", errors.New(errors.ErrCodeInvalidBond, "bad bond").WithDetail("symbol=$"), "[SMI_012] bad bond: symbol=$"},
		{"offset", errors.NewAt(errors.ErrCodeUnclosedBracket, 0, "no ]"), "[SMI_002] no ] (offset 0)"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Fluent builders
// ─────────────────────────────────────────────────────────────────────────────

func TestWithDetail_SetsDetailOnCopy(t *testing.T) {
	t.Parallel()

	original := errors.New(errors.CodeNotFound, "resource missing")
	detailed := original.WithDetail("id=42")

	assert.Empty(t, original.Detail, "WithDetail must not mutate the original")
	assert.Equal(t, "id=42", detailed.Detail)
	assert.Equal(t, original.Code, detailed.Code)
}

func TestBuilders_NilSafe(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(fmt.Errorf("x")))
	assert.Nil(t, ae.WithOffset(1))
}

func TestWithOffset_Copies(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeUnclosedRing, "ring 2 open")
	moved := ae.WithOffset(9)
	assert.Equal(t, errors.NoOffset, ae.Offset)
	assert.Equal(t, 9, moved.Offset)
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeTooManyRings, errors.GetCode(errors.TooManyRings()))

	wrapped := fmt.Errorf("outer: %w", errors.InvalidAST("zero value ring"))
	assert.Equal(t, errors.ErrCodeInvalidAST, errors.GetCode(wrapped))
}

func TestGetOffset_NotPresent(t *testing.T) {
	t.Parallel()

	_, ok := errors.GetOffset(errors.Internal("boom"))
	assert.False(t, ok)
	_, ok = errors.GetOffset(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("missing")))
	assert.True(t, errors.IsNotFound(fmt.Errorf("ctx: %w", errors.NotFound("missing"))))
	assert.False(t, errors.IsNotFound(errors.InvalidParam("bad")))
	assert.False(t, errors.IsNotFound(nil))
}

func TestInvalidPosition_Message(t *testing.T) {
	t.Parallel()

	ae := errors.InvalidPosition(8, 6)
	assert.Equal(t, errors.ErrCodeInvalidPosition, ae.Code)
	assert.Equal(t, "position 8 outside 1..6", ae.Message)
}
