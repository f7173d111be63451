package telemetry

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"devicemgr/internal/probe"
)

// SMIProbe reads memory by running the NVIDIA diagnostic tool
type SMIProbe struct {
	path   string
	runner probe.Runner
}

// NewSMIProbe creates a probe running the tool at path through runner
func NewSMIProbe(path string, runner probe.Runner) *SMIProbe {
	return &SMIProbe{path: path, runner: runner}
}

// Name returns the tool path
func (p *SMIProbe) Name() string {
	return "smi/" + p.path
}

// QueryMemory queries total and free memory; used is their difference
func (p *SMIProbe) QueryMemory(ctx context.Context) (Memory, error) {
	total, err := p.query(ctx, "memory.total")
	if err != nil {
		return Memory{}, err
	}
	free, err := p.query(ctx, "memory.free")
	if err != nil {
		return Memory{}, err
	}
	if total == 0 {
		return Memory{}, fmt.Errorf("%w: total is zero", ErrImplausible)
	}
	return Memory{UsedMB: total - free, TotalMB: total}, nil
}

func (p *SMIProbe) query(ctx context.Context, field string) (int, error) {
	out, err := p.runner.Run(ctx, p.path, "--query-gpu="+field, "--format=csv")
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", field, err)
	}
	value, err := ParseSMIValue(out)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", field, err)
	}
	return value, nil
}

// ParseSMIValue reads CSV output such as
//
//	memory.total [MiB]
//	24564 MiB
//
// skipping the header and returning the leading number of the first column
// of the first data row.
func ParseSMIValue(out []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	header := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if header {
			header = false
			continue
		}
		if line == "" {
			continue
		}
		column := strings.TrimSpace(strings.SplitN(line, ",", 2)[0])
		fields := strings.Fields(column)
		if len(fields) == 0 {
			break
		}
		value, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, fmt.Errorf("parse %q: %w", column, err)
		}
		return value, nil
	}
	return 0, fmt.Errorf("no data row in output")
}
