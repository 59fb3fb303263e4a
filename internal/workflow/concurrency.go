package workflow

import (
	"fmt"
	"regexp"
	"strings"
)

var exprBlock = regexp.MustCompile(`\$\{\{(.*?)\}\}`)

// Render substitutes every ${{ ... }} block in s with its evaluated
// value.
func Render(s string, ctx *Context) (string, error) {
	var firstErr error
	out := exprBlock.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		body := strings.TrimSpace(match[3 : len(match)-2])
		v, err := EvalExpr(body, ctx)
		if err != nil {
			firstErr = fmt.Errorf("evaluating %q: %w", body, err)
			return match
		}
		return stringify(v)
	})
	return out, firstErr
}

// GroupFor evaluates the workflow's concurrency group expression for
// the given context. Returns "" when no concurrency policy is set.
func (w *Workflow) GroupFor(ctx *Context) (string, error) {
	if w.Concurrency == nil {
		return "", nil
	}
	return Render(w.Concurrency.Group, ctx)
}

// mainPushCtx and prCtx build the probe contexts used to check the
// cancellation policy: two distinct pushes to the default branch must
// land in distinct groups, while two runs for the same PR ref must
// share one.
func mainPushCtx(w *Workflow, runID, sha string) *Context {
	return &Context{
		Workflow:  w.Name,
		EventName: "push",
		Ref:       "refs/heads/main",
		RefName:   "main",
		RunID:     runID,
		RunNumber: runID,
		SHA:       sha,
	}
}

func prCtx(w *Workflow, runID, sha string) *Context {
	return &Context{
		Workflow:  w.Name,
		EventName: "pull_request",
		Ref:       "refs/pull/1234/merge",
		RefName:   "1234/merge",
		RunID:     runID,
		RunNumber: runID,
		SHA:       sha,
	}
}

// CheckCancellationPolicy verifies the concurrency policy described in
// the workflow: in-flight runs for a ref are cancelled by newer runs
// (same group, cancel-in-progress), except that each push to the
// default branch gets a unique group so all of them complete. It
// returns a human-readable problem description, or "" when the policy
// holds.
func (w *Workflow) CheckCancellationPolicy() string {
	c := w.Concurrency
	if c == nil {
		return "no concurrency policy: overlapping runs for one ref will all execute"
	}
	if c.Group == "" {
		return "concurrency policy has no group expression"
	}
	if !c.CancelInProgress {
		return "concurrency policy does not cancel in-progress runs"
	}

	prA, errA := w.GroupFor(prCtx(w, "1", "aaa"))
	prB, errB := w.GroupFor(prCtx(w, "2", "bbb"))
	if errA != nil || errB != nil {
		err := errA
		if err == nil {
			err = errB
		}
		return fmt.Sprintf("cannot evaluate concurrency group: %v", err)
	}
	if prA != prB {
		return "runs for the same ref land in different groups, so pushes never cancel superseded runs"
	}

	mainA, errA := w.GroupFor(mainPushCtx(w, "1", "aaa"))
	mainB, errB := w.GroupFor(mainPushCtx(w, "2", "bbb"))
	if errA != nil || errB != nil {
		err := errA
		if err == nil {
			err = errB
		}
		return fmt.Sprintf("cannot evaluate concurrency group: %v", err)
	}
	if mainA == mainB {
		return "pushes to the default branch share one group and would cancel each other"
	}

	return ""
}
