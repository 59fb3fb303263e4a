package workflow

import (
	"regexp"
	"strings"
)

// The four canonical lifecycle scripts every integration directory
// provides, in their required execution order.
const (
	ScriptSetupEnv    = "setup_env"
	ScriptInstall     = "install"
	ScriptRunTest     = "run_test"
	ScriptPostProcess = "post_process"
)

// LifecycleOrder lists the canonical scripts in order.
var LifecycleOrder = []string{
	ScriptSetupEnv,
	ScriptInstall,
	ScriptRunTest,
	ScriptPostProcess,
}

// lifecycleIndex maps script name to its position in LifecycleOrder.
var lifecycleIndex = func() map[string]int {
	idx := make(map[string]int, len(LifecycleOrder))
	for i, s := range LifecycleOrder {
		idx[s] = i
	}
	return idx
}()

// ScriptCall is one invocation of a lifecycle script found in a run
// body.
type ScriptCall struct {
	// Script is the canonical script name (without .sh).
	Script string
	// Integration is the directory the script lives in, e.g.
	// "scripts_d4rl" for .ci/scripts_d4rl/install.sh.
	Integration string
	// Line is the absolute line in the workflow file.
	Line int
}

// Order returns the script's position in the canonical lifecycle.
func (c ScriptCall) Order() int { return lifecycleIndex[c.Script] }

// scriptCallPattern matches a relative path ending in
// <integration>/<script>.sh for the canonical script names.
var scriptCallPattern = regexp.MustCompile(
	`[\w./-]*?([\w-]+)/(setup_env|install|run_test|post_process)\.sh\b`)

// ScriptCalls scans every run body of the job for lifecycle script
// invocations, in order of appearance. Comment lines are skipped.
func (j *Job) ScriptCalls() []ScriptCall {
	var calls []ScriptCall
	for _, step := range j.Steps {
		if step.Run == "" {
			continue
		}
		for offset, line := range strings.Split(step.Run, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "#") {
				continue
			}
			for _, m := range scriptCallPattern.FindAllStringSubmatch(line, -1) {
				calls = append(calls, ScriptCall{
					Script:      m[2],
					Integration: m[1],
					Line:        step.RunLine + offset,
				})
			}
		}
	}
	return calls
}

// setLinePattern finds "set ..." invocations at the start of a line.
var setLinePattern = regexp.MustCompile(`(?m)^\s*set\s+(.+)$`)

// StrictMode reports whether a run body enables strict-mode shell
// flags: errexit, nounset, and pipefail.
func StrictMode(body string) bool {
	for _, m := range setLinePattern.FindAllStringSubmatch(body, -1) {
		args := m[1]
		if hasShortFlag(args, 'e') && hasShortFlag(args, 'u') &&
			strings.Contains(args, "pipefail") {
			return true
		}
	}
	return false
}

// hasShortFlag reports whether a bundled short flag appears in a set
// argument string, e.g. 'e' in "-euxo pipefail".
func hasShortFlag(args string, flag byte) bool {
	for _, field := range strings.Fields(args) {
		if !strings.HasPrefix(field, "-") || strings.HasPrefix(field, "--") {
			continue
		}
		if strings.IndexByte(field[1:], flag) >= 0 {
			return true
		}
	}
	return false
}
