// Package process runs external commands with a bounded lifetime and
// streams their combined output line by line.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

const (
	// DefaultTimeout applies when a Command carries no timeout.
	DefaultTimeout = 5 * time.Minute

	// maxLineSize caps a single emitted line; longer lines are split.
	maxLineSize = 1024 * 1024
	waitDelay   = 2 * time.Second
)

// Command describes one subprocess invocation.
type Command struct {
	Argv              []string
	Dir               string
	Timeout           time.Duration
	IgnoreNonZeroExit bool
}

// Runner spawns commands. The zero value is not usable; call NewRunner.
type Runner struct {
	logger         zerolog.Logger
	defaultTimeout time.Duration
}

// NewRunner creates a Runner. A zero defaultTimeout selects DefaultTimeout.
func NewRunner(logger zerolog.Logger, defaultTimeout time.Duration) *Runner {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	return &Runner{
		logger:         logger.With().Str("component", "process").Logger(),
		defaultTimeout: defaultTimeout,
	}
}

// Run executes cmd and returns its combined stdout and stderr. Every line is
// also sent on out when out is non-nil; the caller owns out and must keep
// draining it until Run returns.
//
// A command outliving its timeout is killed together with its process group
// and reported as *domain.ProcessTimeoutError. A non-zero exit is reported as
// *domain.ProcessExitError unless cmd.IgnoreNonZeroExit is set.
func (r *Runner) Run(ctx context.Context, cmd Command, out chan<- string) (string, error) {
	if len(cmd.Argv) == 0 {
		return "", errors.New("empty command")
	}
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	configureCommandProcess(c)
	c.Cancel = func() error {
		terminateCommandProcess(c)
		return nil
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return "", fmt.Errorf("create output pipe: %w", err)
	}
	defer pr.Close()
	c.Stdout = pw
	c.Stderr = pw

	start := time.Now()
	if err := c.Start(); err != nil {
		pw.Close()
		return "", fmt.Errorf("start %s: %w", strings.Join(cmd.Argv, " "), err)
	}
	// The child holds its own copy of the write end.
	pw.Close()

	var buf strings.Builder
	done := make(chan struct{})
	go func() {
		defer close(done)
		readLines(pr, func(line string) {
			buf.WriteString(line)
			buf.WriteByte('\n')
			if out != nil {
				out <- line
			}
		})
	}()

	waitErr := c.Wait()

	// Orphaned grandchildren may keep the pipe open after a kill.
	select {
	case <-done:
	case <-time.After(waitDelay):
		pr.Close()
		<-done
	}

	output := buf.String()
	code := -1
	if c.ProcessState != nil {
		code = c.ProcessState.ExitCode()
	}
	r.logger.Debug().
		Strs("argv", cmd.Argv).
		Str("dir", cmd.Dir).
		Dur("duration", time.Since(start)).
		Int("exit_code", code).
		Msg("command finished")

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return output, &domain.ProcessTimeoutError{Argv: cmd.Argv, Timeout: timeout}
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return output, fmt.Errorf("wait %s: %w", strings.Join(cmd.Argv, " "), waitErr)
		}
		if ctx.Err() != nil {
			return output, fmt.Errorf("%s: %w", strings.Join(cmd.Argv, " "), ctx.Err())
		}
		if cmd.IgnoreNonZeroExit {
			return output, nil
		}
		return output, &domain.ProcessExitError{Code: exitErr.ExitCode(), Argv: cmd.Argv, Output: output}
	}
	return output, nil
}

// readLines reads r until EOF or a read error, calling emit once per line.
// Lines longer than maxLineSize are split into maxLineSize chunks so the
// pipe is always drained.
func readLines(r io.Reader, emit func(string)) {
	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		line = append(line, chunk...)
		if err != nil {
			if len(line) > 0 {
				emit(string(line))
			}
			return
		}
		if !isPrefix || len(line) >= maxLineSize {
			emit(string(line))
			line = line[:0]
		}
	}
}
