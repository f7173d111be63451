package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"

	"devicemgr/internal/probe"
)

// Inventory reports the execution providers the inference runtime was built with.
// Errors wrap probe.ErrUnavailable; callers decide the fallback.
type Inventory interface {
	Name() string
	Installed(ctx context.Context) (Set, error)
}

// StaticInventory returns a fixed list, from configuration or the environment.
type StaticInventory struct {
	label string
	set   Set
}

// NewStaticInventory creates an inventory over names. label is used in logs.
func NewStaticInventory(label string, names []string) *StaticInventory {
	return &StaticInventory{label: label, set: FromStrings(names)}
}

// Name returns the label
func (s *StaticInventory) Name() string {
	return s.label
}

// Installed returns the configured set
func (s *StaticInventory) Installed(context.Context) (Set, error) {
	return s.set, nil
}

// CommandInventory asks the inference runtime itself by running a command
// and parsing what it prints.
type CommandInventory struct {
	command string
	runner  probe.Runner
}

// NewCommandInventory creates an inventory running command through runner.
func NewCommandInventory(command string, runner probe.Runner) *CommandInventory {
	return &CommandInventory{command: command, runner: runner}
}

// Name identifies the inventory in logs
func (c *CommandInventory) Name() string {
	return "command"
}

// Installed runs the listing command.
func (c *CommandInventory) Installed(ctx context.Context) (Set, error) {
	argv, err := shellwords.Parse(c.command)
	if err != nil {
		return Set{}, probe.Unavailable("provider command", fmt.Errorf("parse %q: %w", c.command, err))
	}
	if len(argv) == 0 {
		return Set{}, probe.Unavailable("provider command", fmt.Errorf("empty command"))
	}

	out, err := c.runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return Set{}, fmt.Errorf("list providers: %w", err)
	}

	set := ParseList(string(out))
	if set.Len() == 0 {
		return Set{}, probe.Unavailable("provider command", fmt.Errorf("no providers in output %q", strings.TrimSpace(string(out))))
	}
	return set, nil
}
