package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/0x0BSoD/feedMaker/internal/tasklist"
)

var ErrUnknownMode = errors.New("unknown batch mode")

// Mode selects what a batch row produces.
type Mode string

const (
	ModeIndex Mode = "index"
	ModePage  Mode = "page"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeIndex, "":
		return ModeIndex, nil
	case ModePage:
		return ModePage, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Outcome is the result of one batch row. Reason is set on failure.
type Outcome struct {
	Task   tasklist.Task
	Path   string
	Reason string
}

type Summary struct {
	OK     []Outcome
	Failed []Outcome
}

// Batch runs every task in order. A failing or panicking row is recorded
// and the next one runs anyway. Failures are forwarded to the reporter.
func (p *Pipeline) Batch(ctx context.Context, tasks []tasklist.Task, mode Mode) Summary {
	run := p.Index
	if mode == ModePage {
		run = p.Page
	}

	var sum Summary
	for _, task := range tasks {
		res, err := p.runSafe(ctx, run, task)
		if err != nil {
			reason := Reason(err)
			slog.Warn("row failed", "row", task.Row, "url", task.URL, "reason", reason)
			sum.Failed = append(sum.Failed, Outcome{Task: task, Reason: reason})
			continue
		}

		sum.OK = append(sum.OK, Outcome{Task: task, Path: res.Path})
	}

	slog.Info("batch finished", "mode", string(mode), "ok", len(sum.OK), "failed", len(sum.Failed))

	if len(sum.Failed) > 0 && p.reporter != nil {
		p.reporter.Notify(sum.Report())
	}

	return sum
}

type runFunc func(ctx context.Context, rawURL, name string) (Result, error)

func (p *Pipeline) runSafe(ctx context.Context, run runFunc, task tasklist.Task) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return run(ctx, task.URL, task.Name)
}

// Report renders the failures of a batch as plain text.
func (s Summary) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "feedmaker batch: %d ok, %d failed", len(s.OK), len(s.Failed))

	for _, o := range s.Failed {
		fmt.Fprintf(&b, "\nrow %d %s: %s", o.Task.Row, o.Task.URL, o.Reason)
	}

	return b.String()
}
