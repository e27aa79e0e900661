package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"Duplicate", &DuplicateKeyError{Scope: "item", Key: "a"}, KindConfiguration},
		{"OutOfRange", &IndexOutOfRangeError{Op: "op", Section: 1, Item: -1, Limit: 1}, KindMisuse},
		{"Wrapped", fmt.Errorf("build: %w", &UnknownKeyError{Op: "op", Key: 3}), KindMisuse},
		{"Plain", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestSentinels(t *testing.T) {
	err := fmt.Errorf("apply: %w", &IndexOutOfRangeError{Op: "diff.RemoveItem", Section: 0, Item: 4, Limit: 3})
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	assert.False(t, errors.Is(err, ErrDuplicateKey))
	assert.Contains(t, err.Error(), "item index 4 in section 0")

	assert.True(t, errors.Is(&DuplicateKeyError{Scope: "section", Key: "x"}, ErrDuplicateKey))
	assert.True(t, errors.Is(&InvalidStateError{Op: "toggle", Reason: "not expandable"}, ErrInvalidState))
	assert.Equal(t, "configuration", KindConfiguration.String())
}
