package base

import (
	"context"
	"fmt"
	"strings"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	"github.com/rios0rios0/scmforge/internal/process"
	"github.com/rios0rios0/scmforge/internal/xmlstream"
)

// Tool wraps the executable of a CLI-backed provider.
type Tool struct {
	Name       string
	Executable string
	Runner     process.Runner
	// Benign lists stderr markers that are dropped from diagnostics.
	Benign []string
}

// NewTool returns a tool using the default process runner.
func NewTool(name, executable string, benign ...string) *Tool {
	return &Tool{Name: name, Executable: executable, Runner: process.NewExecRunner(), Benign: benign}
}

// Command returns a new command line for the tool running in dir.
func (t *Tool) Command(dir string, args ...string) *process.Commandline {
	return process.NewCommandline(dir, t.Executable, args...)
}

// Execution is the outcome of one tool run.
type Execution struct {
	Result   entities.ScmResult
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the run was accepted by its exit-code policy.
func (e *Execution) Success() bool { return e.Result.IsSuccess() }

// Run executes cl, feeding stdout to consumer (which may be nil), and maps the exit code
// through policy. Only launch and I/O failures are returned as errors.
func (t *Tool) Run(
	ctx context.Context,
	cl *process.Commandline,
	consumer process.LineConsumer,
	policy process.ExitCodePolicy,
) (*Execution, error) {
	stdout := &process.StringConsumer{}
	stderr := process.NewFilteringConsumer(t.Benign...)

	code, err := t.Runner.Run(ctx, cl, process.Tee(stdout, consumer), stderr)
	if err != nil {
		return nil, entities.NewScmError(fmt.Sprintf("execute %s", t.Name), err)
	}

	exec := &Execution{ExitCode: code, Stdout: stdout.Output(), Stderr: stderr.Output()}
	if policy.Accepts(code) {
		exec.Result = entities.NewScmResult(cl.String(), "", exec.Stdout, true)
		return exec, nil
	}

	diagnostics := strings.TrimSpace(exec.Stderr)
	if diagnostics == "" {
		diagnostics = strings.TrimSpace(exec.Stdout)
	}
	exec.Result = entities.NewFailedResult(
		cl.String(),
		fmt.Sprintf("The %s command failed (exit code %d).", t.Name, code),
		diagnostics,
	)
	return exec, nil
}

// RunXML runs cl with its stdout streamed into consumer, then closes the consumer and
// waits for the parser. Partial documents are kept; see xmlstream.Consumer.Wait.
func (t *Tool) RunXML(
	ctx context.Context,
	cl *process.Commandline,
	consumer *xmlstream.Consumer,
	policy process.ExitCodePolicy,
) (*Execution, error) {
	exec, err := t.Run(ctx, cl, consumer, policy)
	consumer.Close()
	if waitErr := consumer.Wait(ctx); waitErr != nil && err == nil {
		return nil, entities.NewScmError(fmt.Sprintf("parse %s output", t.Name), waitErr)
	}
	return exec, err
}
