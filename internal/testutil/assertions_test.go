package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLines(t *testing.T) {
	t.Parallel()

	result := &HarnessResult{LogOutput: `level=INFO msg="Running step." step=compile cmdline=make
level=INFO msg="Running step." command=project step=simulate
level=INFO msg="Running step." step=compile_all cmdline=make
level=INFO msg="Skipping step." step=open reason="gif disabled"
`}

	testCases := []struct {
		name string
		msg  string
		step string
		want int
	}{
		{name: "step followed by attribute", msg: "Running step.", step: "compile", want: 1},
		{name: "step at end of line", msg: "Running step.", step: "simulate", want: 1},
		{name: "other message", msg: "Running step.", step: "open", want: 0},
		{name: "prefix does not match", msg: "Running step.", step: "compile_", want: 0},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Len(t, logLines(result, tc.msg, tc.step), tc.want)
		})
	}
}
