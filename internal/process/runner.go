package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	logger "github.com/sirupsen/logrus"
)

const maxLineSize = 1024 * 1024

// Runner launches an external process.
type Runner interface {
	Run(ctx context.Context, cl *Commandline, stdout, stderr LineConsumer) (int, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner returns the default runner.
func NewExecRunner() *ExecRunner { return &ExecRunner{} }

// Run executes cl, streams stdout and stderr to the consumers and returns the exit code.
// A non-zero exit code is not an error: err is reported only when the process could not
// be started or its output could not be read.
func (r *ExecRunner) Run(ctx context.Context, cl *Commandline, stdout, stderr LineConsumer) (int, error) {
	logger.Debugf("Executing: %s", cl)

	cmd := exec.CommandContext(ctx, cl.Executable, cl.Args...)
	cmd.Dir = cl.Dir
	cmd.Env = cl.Environ()

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("failed to open stdout of %q: %w", cl.Executable, err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("failed to open stderr of %q: %w", cl.Executable, err)
	}

	if startErr := cmd.Start(); startErr != nil {
		return -1, fmt.Errorf("failed to launch %q: %w", cl.Executable, startErr)
	}

	var wg sync.WaitGroup
	var outErr, errErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		outErr = pump(outPipe, stdout)
	}()
	go func() {
		defer wg.Done()
		errErr = pump(errPipe, stderr)
	}()
	wg.Wait()

	waitErr := cmd.Wait()
	if readErr := errors.Join(outErr, errErr); readErr != nil {
		return -1, fmt.Errorf("failed to read output of %q: %w", cl.Executable, readErr)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, fmt.Errorf("%q interrupted: %w", cl.Executable, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if waitErr != nil {
		return -1, fmt.Errorf("failed to wait for %q: %w", cl.Executable, waitErr)
	}
	return 0, nil
}

func pump(r io.Reader, consumer LineConsumer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if consumer != nil {
			consumer.ConsumeLine(scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}
