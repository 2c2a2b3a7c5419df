package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	notFound := New(KindNotFound, "THING_NOT_FOUND", "thing not found")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"app error", notFound, KindNotFound},
		{"wrapped with fmt", fmt.Errorf("load thing 4: %w", notFound), KindNotFound},
		{"wrapping app error", Wrap(errors.New("boom"), KindConflict, "CLASH", "clash"), KindConflict},
		{"validation errors", validator.ValidationErrors{{Field: "year", Message: "bad"}}, KindValidation},
		{"wrapped validation errors", fmt.Errorf("cmd: %w", validator.ValidationErrors{{Field: "x", Message: "y"}}), KindValidation},
		{"plain error", errors.New("connection refused"), KindInternal},
		{"nil", nil, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsValidation(New(KindValidation, "V", "v")))
	assert.True(t, IsNotFound(New(KindNotFound, "N", "n")))
	assert.True(t, IsConflict(New(KindConflict, "C", "c")))
	assert.False(t, IsValidation(nil))
	assert.False(t, IsConflict(errors.New("x")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindInternal, "X", "x"))

	cause := New(KindConflict, "BASE", "base")
	err := Wrap(cause, KindConflict, "DETAIL", "cannot do it")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cannot do it: base", err.Error())
}

func TestKind_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, KindNotFound.HTTPStatus())
	assert.Equal(t, http.StatusConflict, KindConflict.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, KindUnauthorized.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, KindForbidden.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.HTTPStatus())
	assert.Equal(t, "conflict", KindConflict.String())
}
