//go:build integration || unit || test

package processdoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/scmforge/internal/process"
)

// StubRunner is a stub implementation of process.Runner that prints canned output.
type StubRunner struct {
	Stdout   []string
	ExitCode int
	RunErr   error
	Commands []*process.Commandline
}

var _ process.Runner = (*StubRunner)(nil)

func (s *StubRunner) Run(_ context.Context, cl *process.Commandline, stdout, _ process.LineConsumer) (int, error) {
	s.Commands = append(s.Commands, cl)
	if s.RunErr != nil {
		return -1, s.RunErr
	}
	for _, line := range s.Stdout {
		if stdout != nil {
			stdout.ConsumeLine(line)
		}
	}
	return s.ExitCode, nil
}
