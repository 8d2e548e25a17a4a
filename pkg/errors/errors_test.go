package errors_test

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/molview/pkg/errors"
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
		{"empty input", errors.CodeEmptyInput, "please enter a SMILES string"},
		{"capability", errors.CodeCapability, "SDF format is not supported"},
		{"remote", errors.CodeRemote, "invalid smiles"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestNew_StackContainsCaller(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.CodeInternal, "test")
	assert.Contains(t, ae.Stack, "errors_test.go")
}

func TestNewf_FormatsMessage(t *testing.T) {
	t.Parallel()

	ae := errors.Newf(errors.CodeCapability, "%s format is not supported", "SDF")
	assert.Equal(t, "SDF format is not supported", ae.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestError
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.CodeRemote, "parse failed")
	assert.Equal(t, "[ANA_003] parse failed", ae.Error())

	withDetail := ae.WithDetail("status=400")
	assert.Equal(t, "[ANA_003] parse failed: status=400", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, errors.Wrap(nil, errors.CodeRemote, "ignored"))
}

func TestWrap_PreservesCauseChain(t *testing.T) {
	t.Parallel()

	root := stderrors.New("connection refused")
	ae := errors.Wrap(root, errors.CodeRemote, "analysis service unreachable")

	require.NotNil(t, ae)
	assert.True(t, stderrors.Is(ae, root))
	assert.Equal(t, root, stderrors.Unwrap(ae))
}

func TestWrap_UnknownKeepsOriginalCode(t *testing.T) {
	t.Parallel()

	inner := errors.Render("surface rejected data")
	outer := errors.Wrap(inner, errors.CodeUnknown, "load failed")
	assert.Equal(t, errors.CodeRender, outer.Code)
}

func TestWithCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("eof")
	ae := errors.Remote("conformer failed").WithCause(cause)
	assert.True(t, stderrors.Is(ae, cause))

	var nilErr *errors.AppError
	assert.Nil(t, nilErr.WithCause(cause))
	assert.Nil(t, nilErr.WithDetail("x"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_TraversesFmtWrapping(t *testing.T) {
	t.Parallel()

	ae := errors.Capability("XYZ format is not supported")
	wrapped := fmt.Errorf("submit: %w", ae)

	assert.True(t, errors.IsCode(wrapped, errors.CodeCapability))
	assert.False(t, errors.IsCode(wrapped, errors.CodeRemote))
	assert.False(t, errors.IsCode(nil, errors.CodeRemote))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.CodeEmptyInput, errors.GetCode(errors.EmptyInput("x")))
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"app error", errors.Remote("invalid smiles"), "invalid smiles"},
		{"wrapped app error", fmt.Errorf("x: %w", errors.Capability("SDF format is not supported")), "SDF format is not supported"},
		{"empty message uses default", &errors.AppError{Code: errors.CodeEmptyInput}, "please enter a SMILES string or select a file"},
		{"plain error is hidden", stderrors.New("dial tcp 127.0.0.1:8000: connection refused"), "Analysis failed. Please try again."},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, errors.UserMessage(tc.err))
		})
	}
}

func TestFactories_SetExpectedCodes(t *testing.T) {
	t.Parallel()

	cases := map[errors.ErrorCode]*errors.AppError{
		errors.CodeEmptyInput:   errors.EmptyInput("m"),
		errors.CodeValidation:   errors.Validation("m"),
		errors.CodeCapability:   errors.Capability("m"),
		errors.CodeRemote:       errors.Remote("m"),
		errors.CodeRender:       errors.Render("m"),
		errors.CodeNotFound:     errors.NotFound("m"),
		errors.CodeInvalidParam: errors.InvalidParam("m"),
		errors.CodeConflict:     errors.InvalidState("m"),
		errors.CodeInternal:     errors.Internal("m"),
	}
	for code, ae := range cases {
		assert.Equal(t, code, ae.Code)
		assert.True(t, strings.Contains(ae.Error(), string(code)))
	}
}
