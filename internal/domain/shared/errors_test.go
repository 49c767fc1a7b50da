package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_String(t *testing.T) {
	testCases := map[Kind]string{
		KindInternal:      "INTERNAL_ERROR",
		KindUnauthorized:  "UNAUTHORIZED",
		KindForbidden:     "FORBIDDEN",
		KindNotFound:      "NOT_FOUND",
		KindUnprocessable: "UNPROCESSABLE_ENTITY",
		Kind(99):          "INTERNAL_ERROR",
	}
	for kind, want := range testCases {
		assert.Equal(t, want, kind.String())
	}
}

func TestDomainError(t *testing.T) {
	t.Run("constructors set kind and code", func(t *testing.T) {
		err := NotFound("Post not found")
		assert.Equal(t, KindNotFound, err.Kind)
		assert.Equal(t, "NOT_FOUND", err.Code)
		assert.Equal(t, "Post not found", err.Error())
	})

	t.Run("unprocessable carries details", func(t *testing.T) {
		err := Unprocessable("Invalid post data", FieldError{Field: "content", Message: "Invalid value"})
		assert.Len(t, err.Details, 1)
		assert.Equal(t, "content", err.Details[0].Field)
	})

	t.Run("internal unwraps to its cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Internal("Failed to load post", cause)
		assert.ErrorIs(t, err, cause)
	})
}

func TestKindOf(t *testing.T) {
	t.Run("finds wrapped domain errors", func(t *testing.T) {
		err := fmt.Errorf("load: %w", Forbidden("Access denied"))
		assert.Equal(t, KindForbidden, KindOf(err))
		assert.True(t, IsKind(err, KindForbidden))
		assert.False(t, IsKind(err, KindNotFound))
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
		assert.False(t, IsKind(errors.New("boom"), KindInternal))
	})
}
