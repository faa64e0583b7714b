package apperrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"wrong argument", New(KindWrongArgument, "bad flag"), 1},
		{"input layer", New(KindInputLayer, "boom"), 2},
		{"permission", New(KindPermission, "denied"), 3},
		{"no devices", New(KindNoDevices, "none found"), 4},
		{"store", New(KindStore, "db gone"), 5},
		{"config", New(KindConfig, "no home"), 6},
		{"system", New(KindSystem, "no group"), 7},
		{"plain error defaults to 1", fmt.Errorf("unwrapped"), 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ExitCode(c.err))
		})
	}
}

func TestWrapNilIsNil(t *testing.T) {
	assert.Nil(t, Wrap(KindStore, nil))
}

func TestExitCodeUnwrapsWrappedError(t *testing.T) {
	inner := New(KindPermission, "denied")
	wrapped := fmt.Errorf("context: %w", inner)
	assert.Equal(t, 3, ExitCode(wrapped))
}
