package main_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all e2e tests.
	tmp, err := os.MkdirTemp("", "rlconf-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	binaryPath = filepath.Join(tmp, "rlconf")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build binary: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_ = os.RemoveAll(tmp)
	os.Exit(code)
}

// runBinary runs the rlconf binary with the given args and optional
// stdin. It returns stdout, stderr, and the exit code.
func runBinary(t *testing.T, stdin string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("unexpected error running binary: %v", err)
		}
	}

	return outBuf.String(), errBuf.String(), exitCode
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture %s: %v", path, err)
	}
	return path
}

const cleanConfig = `env:
  name: HalfCheetah-v4
  library: gym
optim:
  lr: 3e-4
  batch_size: 256
logger:
  exp_name: iql_${env.name}
`

const brokenConfig = `env:
  name: HalfCheetah-v4
optim:
  lr: ${optim.base_lr}
`

const workflowFixture = `name: Continuous Benchmark
on:
  pull_request:
  push:
    branches:
      - main
concurrency:
  group: ${{ github.workflow }}-${{ github.ref == 'refs/heads/main' && format('ci-main-{0}', github.sha) || github.ref }}
  cancel-in-progress: true
jobs:
  test:
    runs-on: linux.g5.4xlarge.nvidia.gpu
    timeout-minutes: 90
    strategy:
      matrix:
        python-version: ["3.9", "3.10"]
        cuda-version: ["11.8", "12.1"]
        exclude:
          - python-version: "3.9"
            cuda-version: "12.1"
    steps:
      - run: |
          set -euo pipefail
          bash .ci/scripts_gym/setup_env.sh
          bash .ci/scripts_gym/install.sh
          bash .ci/scripts_gym/run_test.sh
          bash .ci/scripts_gym/post_process.sh
`

func TestE2E_NoArgs_ExitsZero(t *testing.T) {
	_, _, exitCode := runBinary(t, "")
	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
}

func TestE2E_UnknownCommand_ExitsTwo(t *testing.T) {
	_, stderr, exitCode := runBinary(t, "", "frobnicate")
	if exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
	if !strings.Contains(stderr, "unknown command") {
		t.Errorf("expected unknown command message, got: %s", stderr)
	}
}

func TestE2E_Check_CleanFile_ExitsZero(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "clean.yaml", cleanConfig)

	_, stderr, exitCode := runBinary(t, "", "check", "--no-color", path)
	if exitCode != 0 {
		t.Errorf("expected exit code 0 for clean file, got %d\nstderr: %s", exitCode, stderr)
	}
}

func TestE2E_Check_Violations_ExitsOne(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "broken.yaml", brokenConfig)

	_, stderr, exitCode := runBinary(t, "", "check", "--no-color", path)
	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(stderr, "RLC001") {
		t.Errorf("expected stderr to contain RLC001, got: %s", stderr)
	}
	if !strings.Contains(stderr, "optim.base_lr") {
		t.Errorf("expected stderr to name the unresolved reference, got: %s", stderr)
	}
}

func TestE2E_Check_JSONFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "broken.yaml", brokenConfig)

	_, stderr, exitCode := runBinary(t, "", "check", "--no-color", "--format", "json", path)
	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}

	var diagnostics []map[string]interface{}
	if err := json.Unmarshal([]byte(stderr), &diagnostics); err != nil {
		t.Fatalf("stderr is not valid JSON: %v\nstderr: %s", err, stderr)
	}
	if len(diagnostics) == 0 {
		t.Fatal("expected at least one diagnostic in JSON output")
	}

	d := diagnostics[0]
	for _, field := range []string{"file", "line", "column", "rule", "name", "severity", "message"} {
		if _, ok := d[field]; !ok {
			t.Errorf("JSON diagnostic missing required field %q", field)
		}
	}
}

func TestE2E_Check_CustomConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "broken.yaml", brokenConfig)
	configPath := writeFixture(t, dir, ".rlconf.yml", "rules:\n  unresolved-interpolation: false\n")

	_, stderr, exitCode := runBinary(t, "", "check", "--no-color", "--config", configPath, path)
	if strings.Contains(stderr, "RLC001") {
		t.Errorf("expected RLC001 to be suppressed by config, got: %s", stderr)
	}
	if exitCode != 0 {
		t.Errorf("expected exit code 0 with rule disabled, got %d", exitCode)
	}
}

func TestE2E_Check_WorkflowFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "ci.yml", workflowFixture)

	_, stderr, exitCode := runBinary(t, "", "check", "--no-color", path)
	if exitCode != 0 {
		t.Errorf("expected clean workflow to pass, got %d\nstderr: %s", exitCode, stderr)
	}
}

func TestE2E_Check_Stdin(t *testing.T) {
	_, stderr, exitCode := runBinary(t, brokenConfig, "check", "--no-color")
	if exitCode != 1 {
		t.Errorf("expected exit code 1 for stdin with violations, got %d", exitCode)
	}
	if !strings.Contains(stderr, "<stdin>") {
		t.Errorf("expected diagnostics to use <stdin> as file name, got: %s", stderr)
	}
}

func TestE2E_Resolve_AppliesOverridesBeforeInterpolation(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "cfg.yaml", cleanConfig)

	stdout, stderr, exitCode := runBinary(t, "", "resolve", "-s", "env.name=Hopper-v4", path)
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "exp_name: iql_Hopper-v4") {
		t.Errorf("expected interpolation to pick up the override, got:\n%s", stdout)
	}
	if strings.Contains(stdout, "${") {
		t.Errorf("expected all interpolations resolved, got:\n%s", stdout)
	}
}

func TestE2E_Resolve_UnresolvedReference_ExitsOne(t *testing.T) {
	_, stderr, exitCode := runBinary(t, brokenConfig, "resolve")
	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(stderr, "optim.base_lr") {
		t.Errorf("expected error to name the missing key, got: %s", stderr)
	}
}

func TestE2E_Matrix_ExpandsAndRendersConcurrency(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "ci.yml", workflowFixture)

	stdout, stderr, exitCode := runBinary(t, "", "matrix", path)
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "job test (3 instances)") {
		t.Errorf("expected 3 instances after exclude, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "python-version=3.10, cuda-version=12.1") {
		t.Errorf("expected expanded instance in output, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "push to main: Continuous Benchmark-ci-main-bbbbbbb") {
		t.Errorf("expected main push group keyed on the sha, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "pull_request: Continuous Benchmark-refs/pull/1234/merge") {
		t.Errorf("expected PR group keyed on the ref, got:\n%s", stdout)
	}
}

func TestE2E_Init_WritesConfig(t *testing.T) {
	dir := t.TempDir()

	cmd := exec.Command(binaryPath, "init")
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".rlconf.yml"))
	if err != nil {
		t.Fatalf("reading generated config: %v", err)
	}
	for _, want := range []string{"unresolved-interpolation", "job-timeout", "files:"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("generated config missing %q:\n%s", want, data)
		}
	}

	// A second init must refuse to overwrite.
	cmd = exec.Command(binaryPath, "init")
	cmd.Dir = dir
	if err := cmd.Run(); err == nil {
		t.Error("expected second init to fail")
	}
}

func TestE2E_HelpRule_ListsAll(t *testing.T) {
	stdout, _, exitCode := runBinary(t, "", "help", "rule")
	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	for _, id := range []string{"RLC001", "RLC004", "RLC008"} {
		if !strings.Contains(stdout, id) {
			t.Errorf("expected rule list to contain %s, got:\n%s", id, stdout)
		}
	}
}

func TestE2E_HelpRule_ShowsDoc(t *testing.T) {
	stdout, _, exitCode := runBinary(t, "", "help", "rule", "strict-shell-mode")
	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(stdout, "set -euo pipefail") {
		t.Errorf("expected rule doc content, got:\n%s", stdout)
	}
}

func TestE2E_Version(t *testing.T) {
	stdout, _, exitCode := runBinary(t, "", "version")
	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if !strings.HasPrefix(stdout, "rlconf ") {
		t.Errorf("expected version output to start with 'rlconf ', got: %s", stdout)
	}
}
