package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperror.Kind
	}{
		{name: "InvalidArgument", err: apperror.InvalidArgument("month %d out of range", 13), want: apperror.KindInvalidArgument},
		{name: "NotFound", err: apperror.NotFound("project not found"), want: apperror.KindNotFound},
		{name: "Forbidden", err: apperror.Forbidden("requires admin"), want: apperror.KindForbidden},
		{name: "Wrapped", err: fmt.Errorf("loading: %w", apperror.NotFound("gone")), want: apperror.KindNotFound},
		{name: "Unclassified", err: errors.New("connection reset"), want: apperror.KindStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperror.KindOf(tt.err))
		})
	}
}

func TestStore_KeepsClassification(t *testing.T) {
	nf := apperror.NotFound("user not found")
	assert.Same(t, nf, apperror.Store(nf))

	raw := errors.New("dial tcp: refused")
	err := apperror.Store(raw)
	assert.True(t, apperror.Is(err, apperror.KindStore))
	assert.ErrorIs(t, err, raw)
	assert.Equal(t, "dial tcp: refused", err.Error())

	assert.NoError(t, apperror.Store(nil))
}

func TestEnvelope(t *testing.T) {
	ok := apperror.OK(42)
	assert.True(t, ok.Success)
	assert.Equal(t, 42, ok.Data)

	fail := apperror.Fail(apperror.Forbidden("Access denied. Requires manager role."))
	assert.False(t, fail.Success)
	assert.Equal(t, "Access denied. Requires manager role.", fail.Error)
	assert.Equal(t, apperror.KindForbidden, fail.Kind)
	assert.Nil(t, fail.Data)
}
