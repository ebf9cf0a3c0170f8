package cron

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Action is the work performed by a dispatched job.
type Action interface {
	Run(ctx context.Context) error
	String() string
}

type callbackAction struct {
	fn func(ctx context.Context) error
}

func (a callbackAction) Run(ctx context.Context) error {
	if a.fn == nil {
		return nil
	}
	return a.fn(ctx)
}

func (a callbackAction) String() string { return "callback" }

// commandAction spawns an external program with stdio discarded. Run
// returns once the process has started; it does not wait for it to exit.
type commandAction struct {
	name string
	args []string
	env  func() []string
}

func (a commandAction) Run(_ context.Context) error {
	// Not CommandContext: the process must outlive the dispatch.
	cmd := exec.Command(a.name, a.args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if a.env != nil {
		cmd.Env = a.env()
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("cron: spawning %q: %w", a.name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func (a commandAction) String() string {
	if len(a.args) == 0 {
		return a.name
	}
	return a.name + " " + strings.Join(a.args, " ")
}

// jobAction adapts a Job to Action.
type jobAction struct {
	job Job
}

func (a jobAction) Run(ctx context.Context) error { return a.job.Run(ctx) }

func (a jobAction) String() string { return "job:" + a.job.Name() }
