package testutil

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// logLines returns the text-format log lines with the given message that
// carry step=<name>.
func logLines(result *HarnessResult, msg, step string) []string {
	stepAttr := regexp.MustCompile(` step=` + regexp.QuoteMeta(step) + `( |$)`)
	var out []string
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, `msg="`+msg+`"`) && stepAttr.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}

// AssertStepRan checks the log output within a HarnessResult to confirm that
// a project step was started.
func AssertStepRan(t *testing.T, result *HarnessResult, step string) {
	t.Helper()
	require.NotEmpty(t, logLines(result, "Running step.", step),
		"expected project step '%s' to run", step)
}

// AssertStepSkipped confirms that a project step was skipped and not run.
func AssertStepSkipped(t *testing.T, result *HarnessResult, step string) {
	t.Helper()
	require.NotEmpty(t, logLines(result, "Skipping step.", step),
		"expected project step '%s' to be skipped", step)
	require.Empty(t, logLines(result, "Running step.", step),
		"project step '%s' ran but should have been skipped", step)
}
