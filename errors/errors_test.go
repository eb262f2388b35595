package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(42).String())
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, "Component", "Method", "action"))
	assert.Nil(t, WrapTransient(nil, "Component", "Method", "action"))
	assert.Nil(t, WrapInvalid(nil, "Component", "Method", "action"))
	assert.Nil(t, WrapFatal(nil, "Component", "Method", "action"))
}

func TestWrap_Format(t *testing.T) {
	base := stderrors.New("boom")
	err := Wrap(base, "WriteGateway", "Insert", "insert document")
	assert.EqualError(t, err, "WriteGateway.Insert: insert document failed: boom")
	assert.True(t, stderrors.Is(err, base))
}

func TestClassifiedWrappers(t *testing.T) {
	base := stderrors.New("boom")

	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wrap(base, "Comp", "Op", "act")

			var ce *ClassifiedError
			require.True(t, stderrors.As(err, &ce))
			assert.Equal(t, tt.class, ce.Class)
			assert.Equal(t, "Comp", ce.Component)
			assert.True(t, stderrors.Is(err, base))
		})
	}
}

func TestClassify_Sentinels(t *testing.T) {
	assert.Equal(t, ErrorFatal, Classify(ErrNoCredentials))
	assert.Equal(t, ErrorFatal, Classify(ErrMissingConfig))
	assert.Equal(t, ErrorInvalid, Classify(ErrMissingDeletePrecondition))
	assert.Equal(t, ErrorInvalid, Classify(ErrConflictingFieldName))
	assert.Equal(t, ErrorTransient, Classify(ErrConnectionLost))
}

func TestClassify_WrappedSentinels(t *testing.T) {
	err := fmt.Errorf("startup: %w", ErrNoCredentials)
	assert.True(t, IsFatal(err))
	assert.Equal(t, ErrorFatal, Classify(err))
}

func TestIsTransient_Patterns(t *testing.T) {
	assert.True(t, IsTransient(stderrors.New("request timeout while dialing")))
	assert.True(t, IsTransient(stderrors.New("service unavailable")))
	assert.False(t, IsTransient(stderrors.New("document update conflict")))
	assert.False(t, IsTransient(nil))
}

func TestClassify_UnknownDefaultsTransient(t *testing.T) {
	assert.Equal(t, ErrorTransient, Classify(stderrors.New("weird failure")))
}
